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

package graphutil

import (
	"github.com/yourbasic/graph"
)

// FindElementaryCycles finds the elementary cycles of the block graph, stopping after limit cycles when limit > 0.
// Each cycle starts and ends with its smallest block id.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
func FindElementaryCycles(g *BlockGraph, limit int) [][]int64 {
	s := &state{
		g:      g,
		limit:  limit,
		cycles: [][]int64{},
	}
	start := 0
	for start < g.Order() && !s.full() {
		least, component := leastComponent(g, start)
		if least < 0 {
			break
		}
		s.in = make(map[int64]bool, len(component))
		for _, v := range component {
			s.in[int64(v)] = true
		}
		s.stack = []int64{}
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(int64(least), int64(least))
		start = least + 1
	}
	return s.cycles
}

// above is the subgraph of g induced by the nodes with id >= min
type above struct {
	g   *BlockGraph
	min int
}

func (a above) Order() int { return a.g.Order() }

func (a above) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < a.min {
		return false
	}
	return a.g.Visit(v, func(w int, c int64) bool {
		if w < a.min {
			return false
		}
		return do(w, c)
	})
}

// leastComponent returns the least node >= start that belongs to a strongly connected component with at least
// one edge in the subgraph induced by nodes >= start, along with that component. It returns -1 if there is none.
func leastComponent(g *BlockGraph, start int) (int, []int) {
	least := -1
	var found []int
	for _, component := range graph.StrongComponents(above{g, start}) {
		if len(component) == 1 && !g.Edges[int64(component[0])][int64(component[0])] {
			continue
		}
		m := component[0]
		for _, v := range component {
			if v < m {
				m = v
			}
		}
		if m < start {
			continue
		}
		if least < 0 || m < least {
			least = m
			found = component
		}
	}
	return least, found
}

type state struct {
	g       *BlockGraph
	limit   int
	in      map[int64]bool
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *state) full() bool {
	return s.limit > 0 && len(s.cycles) >= s.limit
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, i int64) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range s.g.succ[v] {
		if s.full() {
			break
		}
		if !s.in[w] {
			continue
		}
		if w == i {
			cycle := make([]int64, len(s.stack), len(s.stack)+1)
			copy(cycle, s.stack)
			s.cycles = append(s.cycles, append(cycle, w))
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for _, w := range s.g.succ[v] {
			if !s.in[w] {
				continue
			}
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
