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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"github.com/hooyq/taint-ana/internal/graphutil"
	"golang.org/x/exp/slices"
)

// function builds a function whose block i jumps to succ[i]
func function(succ ...[]cfg.BlockID) *cfg.Function {
	f := &cfg.Function{Name: "f"}
	for i, s := range succ {
		kind := cfg.Goto
		if len(s) == 0 {
			kind = cfg.Return
		} else if len(s) > 1 {
			kind = cfg.Switch
		}
		f.Blocks = append(f.Blocks, &cfg.Block{ID: cfg.BlockID(i), Terminator: cfg.Terminator{Kind: kind, Targets: s}})
	}
	return f
}

func ids(b ...cfg.BlockID) []cfg.BlockID { return b }

func TestBlockGraphGonum(t *testing.T) {
	f := function(ids(1, 2), ids(3), ids(3, 3), ids())
	g := graphutil.NewBlockGraph(f)
	if g.NumEdges() != 4 {
		t.Errorf("expected 4 distinct edges, got %d", g.NumEdges())
	}
	if !g.HasEdgeFromTo(0, 1) || g.HasEdgeFromTo(1, 0) || !g.HasEdgeBetween(1, 0) {
		t.Errorf("wrong edge predicates")
	}
	if g.Edge(3, 0) != nil {
		t.Errorf("no edge expected from 3 to 0")
	}
	if e := g.Edge(0, 2); e == nil || e.From().ID() != 0 || e.To().ID() != 2 || e.ReversedEdge().From().ID() != 2 {
		t.Errorf("wrong edge %v", e)
	}
	to := g.To(3)
	if to.Len() != 2 {
		t.Errorf("block 3 should have 2 predecessors, got %d", to.Len())
	}
	var preds []int64
	for to.Next() {
		preds = append(preds, to.Node().ID())
	}
	if to.Len() != 0 {
		t.Errorf("exhausted iterator should have length 0")
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i] < preds[j] })
	if !slices.Equal(preds, []int64{1, 2}) {
		t.Errorf("wrong predecessors %v", preds)
	}
	to.Reset()
	if !to.Next() || to.Node() == nil {
		t.Errorf("reset iterator should restart")
	}
	if g.Node(12) != nil {
		t.Errorf("unknown node should be nil")
	}
}

func TestBlockGraphVisit(t *testing.T) {
	g := graphutil.NewBlockGraph(function(ids(1, 2), ids(), ids()))
	var seen []int
	aborted := g.Visit(0, func(w int, c int64) bool {
		seen = append(seen, w)
		return w == 1
	})
	if !aborted || !slices.Equal(seen, []int{1}) {
		t.Errorf("visit should stop after first successor, saw %v", seen)
	}
}

func cycleStrings(cycles [][]int64) []string {
	results := funcutil.Map(cycles, func(c []int64) string {
		return strings.Join(funcutil.Map(c, func(x int64) string { return strconv.Itoa(int(x)) }), "")
	})
	sort.Strings(results)
	return results
}

func TestFindElementaryCycles(t *testing.T) {
	// 0 -> 1 -> 2 -> 1, 2 -> 3 -> 0, 3 -> 3, 4 unreachable -> 0
	f := function(ids(1), ids(2), ids(1, 3), ids(0, 3), ids(0))
	g := graphutil.NewBlockGraph(f)
	got := cycleStrings(graphutil.FindElementaryCycles(g, 0))
	expected := []string{"01230", "121", "33"}
	if !slices.Equal(got, expected) {
		t.Errorf("expected cycles %v, got %v", expected, got)
	}
	if n := len(graphutil.FindElementaryCycles(g, 2)); n != 2 {
		t.Errorf("limit should stop enumeration at 2, got %d", n)
	}
}

func TestShape(t *testing.T) {
	s := graphutil.Shape(function(ids(1, 2), ids(3), ids(3), ids()))
	if !s.Acyclic || s.Blocks != 4 || s.Edges != 4 || s.Reachable != 4 || s.Cycles != 0 {
		t.Errorf("wrong shape for diamond: %+v", s)
	}

	s = graphutil.Shape(function(ids(1), ids(1, 2), ids(), ids(2)))
	if s.Acyclic {
		t.Errorf("self loop should make the graph cyclic")
	}
	if s.SelfLoops != 1 || s.LoopComponents != 1 || s.Cycles != 1 {
		t.Errorf("wrong loop counts: %+v", s)
	}
	if s.Reachable != 3 || !slices.Equal(s.Unreachable, []cfg.BlockID{3}) {
		t.Errorf("block 3 should be unreachable: %+v", s)
	}
	if !strings.Contains(s.String(), "1 cycles") {
		t.Errorf("unexpected string %q", s.String())
	}
}

func TestTreeAncestors(t *testing.T) {
	root := graphutil.NewTree(0)
	a := root.Extend(1)
	b := a.Extend(2)
	c := a.Extend(3)
	if c.Depth != 2 || c.Parent != a || b.Parent != a {
		t.Errorf("wrong tree structure")
	}
	if got := b.Labels(-1); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("full path: %v", got)
	}
	if got := c.Labels(2); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("last two: %v", got)
	}
	if got := root.Labels(5); !slices.Equal(got, []int{0}) {
		t.Errorf("root path: %v", got)
	}
}

func TestTreeExtendDoesNotRetainChildren(t *testing.T) {
	root := graphutil.NewTree(0)
	leaf := root
	for i := 1; i <= 100; i++ {
		leaf = leaf.Extend(i)
		// siblings that are dropped right away must not be reachable from root
		leaf.Extend(-i)
	}
	if leaf.Depth != 100 {
		t.Errorf("depth: %d", leaf.Depth)
	}
	if got := leaf.Labels(3); !slices.Equal(got, []int{98, 99, 100}) {
		t.Errorf("last three: %v", got)
	}
	if got := leaf.Ancestors(-1); got[0] != root || len(got) != 101 {
		t.Errorf("path to root has %d nodes", len(got))
	}
}

func TestMarshalDOT(t *testing.T) {
	f := function(ids(1, 2), ids(3), ids(3), ids())
	f.Blocks[0].Terminator.Operand = cfg.CopyOf(cfg.Local("c"))
	b, err := graphutil.MarshalDOT(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(b)
	for _, want := range []string{"digraph", "bb0 -> bb1", "bb2 -> bb3", "switch copy c"} {
		if !strings.Contains(s, want) {
			t.Errorf("%q not found in:\n%s", want, s)
		}
	}
}
