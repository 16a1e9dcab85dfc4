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
	"fmt"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/yourbasic/graph"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// MaxReportedCycles bounds the enumeration of elementary cycles in Shape
const MaxReportedCycles = 64

// CFGShape summarizes the structure of a control-flow graph.
type CFGShape struct {
	Blocks int
	Edges  int
	// Reachable is the number of blocks reachable from the entry block, entry included
	Reachable int
	// Unreachable lists the blocks that cannot be reached from the entry block
	Unreachable []cfg.BlockID
	// SelfLoops is the number of blocks that jump to themselves
	SelfLoops int
	// LoopComponents is the number of strongly connected components that contain a cycle
	LoopComponents int
	// Cycles is the number of elementary cycles, up to MaxReportedCycles
	Cycles int
	// CyclesTruncated is set when the enumeration stopped at MaxReportedCycles
	CyclesTruncated bool
	Acyclic         bool
}

// Shape computes the CFGShape of fn
func Shape(fn *cfg.Function) CFGShape {
	g := NewBlockGraph(fn)
	s := CFGShape{
		Blocks:  g.Order(),
		Edges:   g.NumEdges(),
		Acyclic: graph.Acyclic(g),
	}
	s.SelfLoops = graph.Check(g).Loops

	for _, component := range graph.StrongComponents(g) {
		if len(component) > 1 || g.Edges[int64(component[0])][int64(component[0])] {
			s.LoopComponents++
		}
	}

	if !s.Acyclic {
		cycles := FindElementaryCycles(g, MaxReportedCycles)
		s.Cycles = len(cycles)
		s.CyclesTruncated = len(cycles) >= MaxReportedCycles
	}

	reached := make([]bool, g.Order())
	if entry := g.Node(int64(fn.Entry)); entry != nil {
		bfs := traverse.BreadthFirst{
			Visit: func(n gonum.Node) {
				reached[n.ID()] = true
			},
		}
		bfs.Walk(g, entry, nil)
	}
	for i, r := range reached {
		if r {
			s.Reachable++
		} else {
			s.Unreachable = append(s.Unreachable, cfg.BlockID(i))
		}
	}
	return s
}

func (s CFGShape) String() string {
	str := fmt.Sprintf("%d blocks, %d edges, %d reachable", s.Blocks, s.Edges, s.Reachable)
	if s.Acyclic {
		return str + ", acyclic"
	}
	more := ""
	if s.CyclesTruncated {
		more = "+"
	}
	return str + fmt.Sprintf(", %d loop components, %d%s cycles", s.LoopComponents, s.Cycles, more)
}
