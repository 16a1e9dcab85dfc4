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
	"strings"
)

// ProjectionKind is the kind of access in a place's access chain.
type ProjectionKind int

const (
	// Field is a static field access; Index holds the field index.
	Field ProjectionKind = iota
	// Downcast selects an enum variant; Index holds the variant index. It is meaningful only when immediately
	// followed by a Field.
	Downcast
	// Deref is a pointer dereference.
	Deref
	// IndexBy is an index by a local variable (Local holds its name).
	IndexBy
	// ConstantIndex is an index by a constant (Index holds the constant).
	ConstantIndex
	// Subslice is a sub-slicing [From..To].
	Subslice
	// OpaqueCast is a reinterpretation that does not change the place.
	OpaqueCast
)

// Projection is one element of an access chain.
type Projection struct {
	Kind  ProjectionKind
	Index int
	Local string
	From  int
	To    int
}

// FieldOf returns a field projection.
func FieldOf(i int) Projection { return Projection{Kind: Field, Index: i} }

// VariantOf returns a downcast projection.
func VariantOf(v int) Projection { return Projection{Kind: Downcast, Index: v} }

// DerefOf returns a dereference projection.
func DerefOf() Projection { return Projection{Kind: Deref} }

// IndexOf returns an index projection by the local named l.
func IndexOf(l string) Projection { return Projection{Kind: IndexBy, Local: l} }

// String renders the projection in the textual IR syntax.
func (p Projection) String() string {
	switch p.Kind {
	case Field:
		return fmt.Sprintf(".%d", p.Index)
	case Downcast:
		return fmt.Sprintf("@%d", p.Index)
	case Deref:
		return ".*"
	case IndexBy:
		return "[" + p.Local + "]"
	case ConstantIndex:
		return fmt.Sprintf("[%d]", p.Index)
	case Subslice:
		return fmt.Sprintf("[%d..%d]", p.From, p.To)
	case OpaqueCast:
		return ".opaque"
	default:
		return ".?"
	}
}

// A Place is a base variable with an ordered access chain. A place with an empty Base does not refer to any
// storage.
type Place struct {
	Base       string
	Projection []Projection
}

// Local returns the place denoting the variable named base with no access chain.
func Local(base string) Place {
	return Place{Base: base}
}

// IsValid returns true if the place refers to a base variable.
func (p Place) IsValid() bool {
	return p.Base != ""
}

// IsLocal returns true when the place is the bare base variable.
func (p Place) IsLocal() bool {
	return p.IsValid() && len(p.Projection) == 0
}

// IsSimpleDeref returns true when the place is exactly one dereference of its base variable.
func (p Place) IsSimpleDeref() bool {
	return p.IsValid() && len(p.Projection) == 1 && p.Projection[0].Kind == Deref
}

// Project returns a new place with the projection appended. The receiver is never modified.
func (p Place) Project(proj ...Projection) Place {
	chain := make([]Projection, 0, len(p.Projection)+len(proj))
	chain = append(chain, p.Projection...)
	chain = append(chain, proj...)
	return Place{Base: p.Base, Projection: chain}
}

func (p Place) String() string {
	if !p.IsValid() {
		return "<none>"
	}
	var b strings.Builder
	b.WriteString(p.Base)
	for _, proj := range p.Projection {
		b.WriteString(proj.String())
	}
	return b.String()
}

// OperandKind distinguishes how an operand reads its place.
type OperandKind int

const (
	// Copy reads the place without transferring ownership.
	Copy OperandKind = iota
	// Move transfers ownership out of the place.
	Move
	// Constant is a literal; it has no place.
	Constant
)

// Operand is a value read by a statement or terminator.
type Operand struct {
	Kind    OperandKind
	Place   Place
	Literal string
}

// CopyOf returns a copy operand of p.
func CopyOf(p Place) Operand { return Operand{Kind: Copy, Place: p} }

// MoveOf returns a move operand of p.
func MoveOf(p Place) Operand { return Operand{Kind: Move, Place: p} }

// Const returns a constant operand.
func Const(lit string) Operand { return Operand{Kind: Constant, Literal: lit} }

func (o Operand) String() string {
	switch o.Kind {
	case Copy:
		return "copy " + o.Place.String()
	case Move:
		return "move " + o.Place.String()
	default:
		if o.Literal == "" {
			return "const"
		}
		return "const " + o.Literal
	}
}
