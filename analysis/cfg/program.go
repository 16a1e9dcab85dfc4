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

package cfg

import (
	"fmt"
	"go/token"
	"strings"
)

// BlockID identifies a block inside its function. Block ids are indexes in Function.Blocks.
type BlockID int

// Location is a program point: a statement index in a block. The terminator of block b is at index
// len(b.Statements).
type Location struct {
	Block BlockID
	Index int
}

func (l Location) String() string {
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Index)
}

// RvalueKind is the kind of the right-hand side of an assignment.
type RvalueKind int

const (
	// Use reads a single operand (copy, move or constant).
	Use RvalueKind = iota
	// Ref creates a reference to Place.
	Ref
	// AddressOf creates a raw pointer to Place.
	AddressOf
	// Discriminant reads the variant tag of Place.
	Discriminant
	// Cast converts the single operand.
	Cast
	// UnaryOp applies Op to the single operand.
	UnaryOp
	// BinaryOp applies Op to the two operands.
	BinaryOp
	// Aggregate builds a struct, tuple or array from the operands.
	Aggregate
	// Repeat builds an array by repeating the single operand.
	Repeat
	// CopyForDeref copies Place in preparation of a dereference.
	CopyForDeref
	// Nullary produces a fresh value without reading anything.
	Nullary
)

// Rvalue is the right-hand side of an assignment.
type Rvalue struct {
	Kind     RvalueKind
	Operands []Operand
	Place    Place
	Mutable  bool
	Op       string
}

// Callee names a called function. Package is the package (or path prefix), Receiver the receiver type for
// methods, Name the function or method name.
type Callee struct {
	Package  string
	Receiver string
	Name     string
}

func (c Callee) String() string {
	var b strings.Builder
	if c.Package != "" {
		b.WriteString(c.Package)
		b.WriteString("::")
	}
	if c.Receiver != "" {
		b.WriteString(c.Receiver)
		b.WriteString("::")
	}
	b.WriteString(c.Name)
	return b.String()
}

// Call is a function call. Destination is invalid when the result is discarded.
type Call struct {
	Callee      Callee
	Args        []Operand
	Destination Place
}

// StatementKind is the kind of a statement.
type StatementKind int

const (
	// Assign writes Rvalue to Target.
	Assign StatementKind = iota
	// CallStmt is a call that does not end its block.
	CallStmt
	// Nop does nothing.
	Nop
)

// Statement is a non-terminating instruction of a block.
type Statement struct {
	Kind   StatementKind
	Target Place
	Rvalue Rvalue
	Call   *Call
	Pos    token.Position
}

// TerminatorKind is the kind of a block terminator.
type TerminatorKind int

const (
	// Goto jumps unconditionally.
	Goto TerminatorKind = iota
	// Switch branches on the Operand.
	Switch
	// Return leaves the function, reading Values.
	Return
	// Drop releases Place and continues.
	Drop
	// CallTerm calls Call and continues.
	CallTerm
	// Assert checks the Operand.
	Assert
	// Unreachable ends the path.
	Unreachable
	// Resume continues unwinding; it ends the path.
	Resume
)

// Terminator ends a block. Targets are its successor blocks, in order.
type Terminator struct {
	Kind    TerminatorKind
	Targets []BlockID
	Operand Operand
	Values  []Operand
	Place   Place
	Call    *Call
	Pos     token.Position
}

// Block is a basic block.
type Block struct {
	ID         BlockID
	Label      string
	Statements []Statement
	Terminator Terminator
}

// Name returns the label of the block, or bbN when it has none.
func (b *Block) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("bb%d", b.ID)
}

// TerminatorLocation returns the location of the block's terminator.
func (b *Block) TerminatorLocation() Location {
	return Location{Block: b.ID, Index: len(b.Statements)}
}

// Extern is a variable that holds a value coming from outside the function (parameter, external input). Tag
// describes where it comes from.
type Extern struct {
	Name string
	Tag  string
}

// Function is the control-flow graph of one analyzed function.
type Function struct {
	Name    string
	Entry   BlockID
	Blocks  []*Block
	Externs []Extern
	Pos     token.Position
}

// Block returns the block with the given id, or nil if there is none.
func (f *Function) Block(id BlockID) *Block {
	if int(id) < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}

// EntryBlock implements the traversal graph interface.
func (f *Function) EntryBlock() BlockID {
	return f.Entry
}

// Successors returns the successor block ids of block id.
func (f *Function) Successors(id BlockID) []BlockID {
	b := f.Block(id)
	if b == nil {
		return nil
	}
	return b.Terminator.Targets
}

// NumBlocks returns the number of blocks in the function.
func (f *Function) NumBlocks() int {
	return len(f.Blocks)
}

// Validate checks that block ids match their index and that every target refers to a block of the function.
func (f *Function) Validate() error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("function %s has no blocks", f.Name)
	}
	if f.Block(f.Entry) == nil {
		return fmt.Errorf("function %s: entry block %d does not exist", f.Name, f.Entry)
	}
	for i, b := range f.Blocks {
		if b == nil {
			return fmt.Errorf("function %s: block %d is nil", f.Name, i)
		}
		if int(b.ID) != i {
			return fmt.Errorf("function %s: block %s has id %d at index %d", f.Name, b.Name(), b.ID, i)
		}
		for _, t := range b.Terminator.Targets {
			if f.Block(t) == nil {
				return fmt.Errorf("function %s: block %s jumps to unknown block %d", f.Name, b.Name(), t)
			}
		}
	}
	return nil
}
