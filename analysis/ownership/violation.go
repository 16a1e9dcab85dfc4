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
	"fmt"
	"go/token"
	"strings"

	"github.com/hooyq/taint-ana/analysis/binding"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/internal/funcutil"
)

// Kind is the kind of a violation
type Kind int

const (
	// UseAfterRelease is a read, move, borrow or call argument whose group is released
	UseAfterRelease Kind = iota
	// DoubleRelease is a second release of the same identifier in the same lifetime
	DoubleRelease
)

func (k Kind) String() string {
	switch k {
	case UseAfterRelease:
		return "use-after-release"
	case DoubleRelease:
		return "double-release"
	default:
		return "unknown"
	}
}

// Violation is a defect found on some path of a function
type Violation struct {
	Kind       Kind
	Function   string
	Identifier binding.Identifier
	Block      cfg.BlockID
	BlockLabel string
	Location   cfg.Location
	Pos        token.Position
	// Event is the rendering of the statement or terminator where the violation happens
	Event string
	// Root and Members describe the binding group of Identifier when the violation is found
	Root    binding.Identifier
	Members []binding.Identifier
	Tag     funcutil.Optional[binding.Source]
	// FirstRelease is the location of the earlier release of Identifier, for double releases
	FirstRelease funcutil.Optional[cfg.Location]
	// Path is the sequence of blocks explored from the entry of the function to Block
	Path []cfg.BlockID
}

type violationKey struct {
	kind     Kind
	function string
	id       binding.Identifier
	loc      cfg.Location
}

func (v Violation) key() violationKey {
	return violationKey{kind: v.Kind, function: v.Function, id: v.Identifier, loc: v.Location}
}

func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s in %s at %s (%s)", v.Kind, v.Identifier, v.Function, v.BlockLabel, v.Location)
	if v.Event != "" {
		fmt.Fprintf(&b, ": %s", v.Event)
	}
	if v.Root != "" && v.Root != v.Identifier {
		fmt.Fprintf(&b, " [group of %s]", v.Root)
	}
	return b.String()
}

// PathString renders the path of the violation
func (v Violation) PathString() string {
	s := make([]string, len(v.Path))
	for i, b := range v.Path {
		s[i] = fmt.Sprintf("bb%d", b)
	}
	return strings.Join(s, " -> ")
}

// A Reporter receives the violations found by the analysis
type Reporter interface {
	Report(v Violation)
}

// Collector is a Reporter that stores the violations, ignoring duplicates (same kind, function, identifier and
// location, usually found on different paths). Violations for which Ignore returns true are counted but not stored,
// and do not count against MaxAlarms. If MaxAlarms > 0, at most MaxAlarms violations are stored.
type Collector struct {
	MaxAlarms  int
	Ignore     func(Violation) bool
	violations []Violation
	seen       map[violationKey]bool
	ignored    int
	dropped    int
}

// NewCollector returns an empty collector
func NewCollector(maxAlarms int) *Collector {
	return &Collector{MaxAlarms: maxAlarms, seen: map[violationKey]bool{}}
}

// Report stores v unless it is a duplicate or the collector is full
func (c *Collector) Report(v Violation) {
	if c.seen == nil {
		c.seen = map[violationKey]bool{}
	}
	k := v.key()
	if c.seen[k] {
		return
	}
	c.seen[k] = true
	if c.Ignore != nil && c.Ignore(v) {
		c.ignored++
		return
	}
	if c.MaxAlarms > 0 && len(c.violations) >= c.MaxAlarms {
		c.dropped++
		return
	}
	c.violations = append(c.violations, v)
}

// Ignored returns the number of distinct violations discarded by Ignore
func (c *Collector) Ignored() int {
	return c.ignored
}

// Violations returns the stored violations, in the order they were reported
func (c *Collector) Violations() []Violation {
	return c.violations
}

// Dropped returns the number of distinct violations that were not stored because of MaxAlarms
func (c *Collector) Dropped() int {
	return c.dropped
}
