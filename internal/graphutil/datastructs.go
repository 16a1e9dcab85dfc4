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

import "github.com/hooyq/taint-ana/internal/funcutil"

// Tree is a simple generic implementation of a tree with parent links only. The chain of labels from the root to a
// node is how paths of a traversal are represented; a node is reclaimed once no path extends it.
type Tree[T any] struct {
	Parent *Tree[T]
	Label  T
	// Depth is the number of edges between the node and the root
	Depth int
}

// NewTree returns a new tree with the labels of the type provided
func NewTree[T any](rootLabel T) *Tree[T] {
	return &Tree[T]{Label: rootLabel}
}

// Label returns the label of its argument
func Label[T any](t *Tree[T]) T {
	return t.Label
}

// Extend returns a new node with the given label whose parent is t. The node is not recorded in t.
func (t *Tree[T]) Extend(label T) *Tree[T] {
	return &Tree[T]{
		Parent: t,
		Label:  label,
		Depth:  t.Depth + 1,
	}
}

// Ancestors returns the chain of the n closest ancestors of t, t included, starting from the farthest one.
// If n < 0, then it returns the chain up to the root of the tree
func (t *Tree[T]) Ancestors(n int) []*Tree[T] {
	var ans []*Tree[T]
	cur := t
	i := 0
	for cur != nil && (i < n || n < 0) {
		ans = append(ans, cur)
		cur = cur.Parent
		i++
	}
	funcutil.Reverse(ans)
	return ans
}

// Labels returns the labels of the n closest ancestors of t (see Ancestors).
func (t *Tree[T]) Labels(n int) []T {
	return funcutil.Map(t.Ancestors(n), Label[T])
}
