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

package traversal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hooyq/taint-ana/analysis/cfg"
)

// Stats counts the decisions of the visit admission policy during one traversal.
type Stats struct {
	// Attempted is the number of frames popped from the work stack
	Attempted int
	// Admitted is the number of block visits that were admitted
	Admitted int
	// SkippedDuplicate is the number of visits denied because the same key had already been admitted
	SkippedDuplicate int
	// SkippedCap is the number of visits denied because the block reached its visit cap
	SkippedCap int
	// DistinctHistories is the number of distinct admission keys admitted
	DistinctHistories int
	// DistinctBlocks is the number of distinct blocks admitted at least once
	DistinctBlocks int
}

// Add adds the counters of o to s
func (s *Stats) Add(o Stats) {
	s.Attempted += o.Attempted
	s.Admitted += o.Admitted
	s.SkippedDuplicate += o.SkippedDuplicate
	s.SkippedCap += o.SkippedCap
	s.DistinctHistories += o.DistinctHistories
	s.DistinctBlocks += o.DistinctBlocks
}

func (s Stats) String() string {
	return fmt.Sprintf("attempted %d, admitted %d, duplicates %d, capped %d, histories %d, blocks %d",
		s.Attempted, s.Admitted, s.SkippedDuplicate, s.SkippedCap, s.DistinctHistories, s.DistinctBlocks)
}

// Admission decides whether a block reached along some path should be visited.
//
// In baseline mode, every block is visited at most once. In path-sensitive mode, a visit is keyed by the block and
// the last ContextDepth blocks visited before it on the path; a key is admitted once, and no block is admitted more
// than MaxVisitsPerBlock times.
type Admission struct {
	opts      Options
	visits    map[cfg.BlockID]int
	histories map[string]bool
	stats     Stats
}

// NewAdmission returns an admission policy with no visit admitted yet
func NewAdmission(opts Options) *Admission {
	return &Admission{
		opts:      opts.normalize(),
		visits:    map[cfg.BlockID]int{},
		histories: map[string]bool{},
	}
}

// Admit returns true if block should be visited. history is the path of blocks leading to block, block excluded,
// in visit order; only its last ContextDepth elements are considered.
func (a *Admission) Admit(block cfg.BlockID, history []cfg.BlockID) bool {
	a.stats.Attempted++
	if !a.opts.PathSensitive {
		if a.visits[block] > 0 {
			a.stats.SkippedDuplicate++
			return false
		}
		a.admit(block)
		return true
	}

	key := historyKey(block, history, a.opts.ContextDepth)
	if a.histories[key] {
		a.stats.SkippedDuplicate++
		return false
	}
	if a.visits[block] >= a.opts.MaxVisitsPerBlock {
		a.stats.SkippedCap++
		return false
	}
	a.histories[key] = true
	a.admit(block)
	return true
}

func (a *Admission) admit(block cfg.BlockID) {
	if a.visits[block] == 0 {
		a.stats.DistinctBlocks++
	}
	a.visits[block]++
	a.stats.Admitted++
	a.stats.DistinctHistories++
}

// Visits returns the number of admitted visits of block
func (a *Admission) Visits(block cfg.BlockID) int {
	return a.visits[block]
}

// Stats returns the counters of the admission policy
func (a *Admission) Stats() Stats {
	return a.stats
}

func historyKey(block cfg.BlockID, history []cfg.BlockID, k int) string {
	if len(history) > k {
		history = history[len(history)-k:]
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(block)))
	b.WriteByte('|')
	for i, h := range history {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(h)))
	}
	return b.String()
}
