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
	"github.com/hooyq/taint-ana/analysis/cfg"
	"gonum.org/v1/gonum/graph"
)

// BlockGraph is an abstraction over the control-flow graph of a function to work with existing graph libraries.
// It implements the methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Directed.
// Node ids are the block ids of the function.
type BlockGraph struct {
	// Function is the function the graph was constructed from
	Function *cfg.Function

	// succ[x] are the distinct successors of block x, in terminator order
	succ [][]int64

	// pred[x] are the distinct predecessors of block x
	pred [][]int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge from block x to block y
	Edges map[int64]map[int64]bool
}

// NewBlockGraph returns the graph of the blocks of fn. Duplicate targets of a terminator (e.g. a switch with two
// arms jumping to the same block) produce a single edge.
func NewBlockGraph(fn *cfg.Function) *BlockGraph {
	n := fn.NumBlocks()
	g := &BlockGraph{
		Function: fn,
		succ:     make([][]int64, n),
		pred:     make([][]int64, n),
		Edges:    make(map[int64]map[int64]bool, n),
	}
	for i := 0; i < n; i++ {
		g.Edges[int64(i)] = map[int64]bool{}
	}
	for i := 0; i < n; i++ {
		from := int64(i)
		for _, t := range fn.Successors(cfg.BlockID(i)) {
			to := int64(t)
			if to < 0 || to >= int64(n) || g.Edges[from][to] {
				continue
			}
			g.Edges[from][to] = true
			g.succ[from] = append(g.succ[from], to)
			g.pred[to] = append(g.pred[to], from)
		}
	}
	return g
}

// Order implements the order of the graph.Iterator interface for the BlockGraph
func (g *BlockGraph) Order() int {
	return len(g.succ)
}

// Visit implements the graph.Iterator interface for the BlockGraph
func (g *BlockGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(g.succ) {
		return false
	}
	for _, w := range g.succ[v] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// NumEdges returns the number of distinct edges
func (g *BlockGraph) NumEdges() int {
	n := 0
	for _, s := range g.succ {
		n += len(s)
	}
	return n
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil when id is not a block of the function.
func (g *BlockGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.succ)) {
		return nil
	}
	return g.node(id)
}

func (g *BlockGraph) node(id int64) BNode {
	return BNode{Block: g.Function.Block(cfg.BlockID(id))}
}

// Nodes returns the set of nodes in the graph
func (g *BlockGraph) Nodes() graph.Nodes {
	ids := make([]int64, len(g.succ))
	for i := range ids {
		ids[i] = int64(i)
	}
	return g.nodeSet(ids)
}

// From returns the set of nodes directly reachable from the id
func (g *BlockGraph) From(id int64) graph.Nodes {
	if id < 0 || id >= int64(len(g.succ)) {
		return graph.Empty
	}
	return g.nodeSet(g.succ[id])
}

// To returns the set of nodes that can reach id directly
func (g *BlockGraph) To(id int64) graph.Nodes {
	if id < 0 || id >= int64(len(g.pred)) {
		return graph.Empty
	}
	return g.nodeSet(g.pred[id])
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g *BlockGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// HasEdgeFromTo returns whether there is a directed edge from uid to vid
func (g *BlockGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *BlockGraph) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return BEdge{from: g.node(uid), to: g.node(vid)}
	}
	return nil
}

func (g *BlockGraph) nodeSet(ids []int64) *NodeSet {
	return &NodeSet{graph: g, ids: ids, cur: -1}
}

// *************** Nodes implementation **********************

// BNode is a wrapper around a *cfg.Block that implements the graph.Node interface
type BNode struct {
	Block *cfg.Block
}

// ID returns the id of the node
func (n BNode) ID() int64 {
	return int64(n.Block.ID)
}

func (n BNode) String() string {
	if n.Block == nil {
		return ""
	}
	return n.Block.Name()
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	graph *BlockGraph

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is ids[cur]
	// invariant: -1 <= cur <= len(ids)
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids) {
		ns.cur++
	}
	return ns.cur < len(ns.ids)
}

// Len returns the number of nodes remaining in the iterator
func (ns *NodeSet) Len() int {
	if ns.cur >= len(ns.ids) {
		return 0
	}
	return len(ns.ids) - ns.cur - 1
}

// Reset moves the iterator back before the first node
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node return the current node in the set, or nil when the iterator is not positioned on a node
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.graph.node(ns.ids[ns.cur])
}

// *************** Edge implementation **********************

// BEdge implements the graph.Edge interface
type BEdge struct {
	from BNode
	to   BNode
}

// From returns the origin of the edge
func (e BEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e BEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e BEdge) ReversedEdge() graph.Edge {
	return BEdge{from: e.to, to: e.from}
}
