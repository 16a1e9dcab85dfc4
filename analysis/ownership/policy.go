// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ownership

import (
	"github.com/hooyq/taint-ana/analysis/binding"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/internal/funcutil"
)

// ReleaseDecision is the outcome of a release event
type ReleaseDecision int

const (
	// FirstRelease releases a live group
	FirstRelease ReleaseDecision = iota
	// Revisit is the same release of the same identifier reached again, e.g. on another path through a loop
	Revisit
	// AliasRelease releases an identifier whose group was already released through another identifier
	AliasRelease
	// Double releases an identifier a second time in the same lifetime, at a different location
	Double
)

func (d ReleaseDecision) String() string {
	switch d {
	case FirstRelease:
		return "first release"
	case Revisit:
		return "revisit"
	case AliasRelease:
		return "alias release"
	default:
		return "double release"
	}
}

// decideRelease classifies the release of id at loc. The manager is not modified.
//
// Only the release of the identical identifier at two distinct locations of the same lifetime is a double release.
// Releasing an identifier after its group was released through another member is allowed: such releases are usually
// cleanup paths of an alias, and flagging them is too imprecise. The identical-identifier check applies to every
// member of the group, not only to its root: a bound identifier released twice is a double release.
func decideRelease(m *binding.Manager, id binding.Identifier, loc cfg.Location) ReleaseDecision {
	at := m.ReleasedAt(id)
	switch {
	case !m.IsReleased(id):
		return FirstRelease
	case funcutil.SomeEquals(at, loc):
		return Revisit
	case at.IsNone():
		return AliasRelease
	default:
		return Double
	}
}
