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
	"strings"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// DOTID implements the dot.Node interface
func (n BNode) DOTID() string {
	return n.String()
}

// Attributes implements the encoding.Attributer interface. The label of a block lists its statements and its
// terminator.
func (n BNode) Attributes() []encoding.Attribute {
	if n.Block == nil {
		return nil
	}
	lines := []string{n.Block.Name() + ":"}
	for _, s := range n.Block.Statements {
		lines = append(lines, s.String())
	}
	lines = append(lines, n.Block.Terminator.String())
	return []encoding.Attribute{
		{Key: "shape", Value: "box"},
		{Key: "label", Value: strings.Join(lines, "\n")},
	}
}

// MarshalDOT renders the control-flow graph of fn in the DOT format
func MarshalDOT(fn *cfg.Function) ([]byte, error) {
	return dot.Marshal(NewBlockGraph(fn), fn.Name, "", "  ")
}
