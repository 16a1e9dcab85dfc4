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

// Package traversal explores the paths of a control-flow graph depth-first, forking the analysis state at each
// branch so that the successors of a branch never observe each other's state.
package traversal

import (
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/internal/graphutil"
)

// Graph is a control-flow graph. *cfg.Function implements it.
type Graph interface {
	EntryBlock() cfg.BlockID
	Successors(cfg.BlockID) []cfg.BlockID
}

// Forkable states can be deep-copied. A fork must not share any mutable data with its original.
type Forkable[S any] interface {
	Fork() S
}

// Options configure the visit admission of a traversal
type Options struct {
	PathSensitive     bool
	ContextDepth      int
	MaxVisitsPerBlock int
}

// OptionsFromConfig returns the traversal options specified in the config
func OptionsFromConfig(c config.TraversalSpec) Options {
	return Options{
		PathSensitive:     c.PathSensitive,
		ContextDepth:      c.ContextDepth,
		MaxVisitsPerBlock: c.MaxVisitsPerBlock,
	}
}

func (o Options) normalize() Options {
	if o.ContextDepth < 0 {
		o.ContextDepth = 0
	}
	if o.MaxVisitsPerBlock <= 0 {
		o.MaxVisitsPerBlock = config.DefaultMaxVisitsPerBlock
	}
	return o
}

// Frame is one admitted visit of a block: the block, the state flowing into it along the current path, and the
// path itself.
type Frame[S any] struct {
	Block cfg.BlockID
	State S
	// Path is the node of the path tree for this visit; its ancestors are the blocks visited before on the path
	Path *graphutil.Tree[cfg.BlockID]
}

// PathBlocks returns the blocks of the path from the entry block to the frame's block, both included.
func (f Frame[S]) PathBlocks() []cfg.BlockID {
	return f.Path.Labels(-1)
}

// frame is an element of the work stack
type frame[S any] struct {
	block cfg.BlockID
	node  *graphutil.Tree[cfg.BlockID]
	state S
}

// Run explores the paths of g from its entry block with an explicit work stack, calling visit on every admitted
// block visit. The state of a block with a single successor flows unchanged into the successor; a block with several
// successors passes a fork of its state to each of them. There is no merge: each path carries its own state.
// Successors are explored in order, like a recursive depth-first search.
func Run[S Forkable[S]](g Graph, initial S, opts Options, visit func(Frame[S])) Stats {
	admission := NewAdmission(opts)
	k := admission.opts.ContextDepth
	entry := g.EntryBlock()
	stack := []frame[S]{{block: entry, node: graphutil.NewTree(entry), state: initial}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path := cur.node.Labels(k + 1)
		if !admission.Admit(cur.block, path[:len(path)-1]) {
			continue
		}

		visit(Frame[S]{Block: cur.block, State: cur.state, Path: cur.node})

		succs := g.Successors(cur.block)
		switch len(succs) {
		case 0:
		case 1:
			stack = append(stack, frame[S]{block: succs[0], node: cur.node.Extend(succs[0]), state: cur.state})
		default:
			for i := len(succs) - 1; i >= 0; i-- {
				s := succs[i]
				stack = append(stack, frame[S]{block: s, node: cur.node.Extend(s), state: cur.state.Fork()})
			}
		}
	}
	return admission.Stats()
}
