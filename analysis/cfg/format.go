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

func joinOperands(ops []Operand) string {
	s := make([]string, len(ops))
	for i, op := range ops {
		s[i] = op.String()
	}
	return strings.Join(s, ", ")
}

func (r Rvalue) String() string {
	switch r.Kind {
	case Use:
		if len(r.Operands) == 1 {
			return r.Operands[0].String()
		}
		return "use(" + joinOperands(r.Operands) + ")"
	case Ref:
		if r.Mutable {
			return "&mut " + r.Place.String()
		}
		return "&" + r.Place.String()
	case AddressOf:
		return "&raw " + r.Place.String()
	case Discriminant:
		return "discriminant(" + r.Place.String() + ")"
	case CopyForDeref:
		return "deref_copy(" + r.Place.String() + ")"
	case Cast:
		return "cast(" + joinOperands(r.Operands) + ")"
	case Aggregate:
		return "[" + joinOperands(r.Operands) + "]"
	case Repeat:
		return "repeat(" + joinOperands(r.Operands) + ")"
	case UnaryOp, BinaryOp, Nullary:
		op := r.Op
		if op == "" {
			op = "op"
		}
		return op + "(" + joinOperands(r.Operands) + ")"
	default:
		return "?"
	}
}

func (c *Call) String() string {
	s := c.Callee.String() + "(" + joinOperands(c.Args) + ")"
	if c.Destination.IsValid() {
		return c.Destination.String() + " = " + s
	}
	return s
}

func (s Statement) String() string {
	switch s.Kind {
	case Assign:
		return s.Target.String() + " = " + s.Rvalue.String()
	case CallStmt:
		if s.Call == nil {
			return "call ?"
		}
		return "call " + s.Call.String()
	default:
		return "nop"
	}
}

func targets(t []BlockID) string {
	s := make([]string, len(t))
	for i, b := range t {
		s[i] = fmt.Sprintf("bb%d", b)
	}
	return strings.Join(s, ", ")
}

func (t Terminator) String() string {
	switch t.Kind {
	case Goto:
		return "goto -> " + targets(t.Targets)
	case Switch:
		return "switch " + t.Operand.String() + " -> [" + targets(t.Targets) + "]"
	case Return:
		if len(t.Values) == 0 {
			return "return"
		}
		return "return " + joinOperands(t.Values)
	case Drop:
		return "drop " + t.Place.String() + " -> " + targets(t.Targets)
	case CallTerm:
		if t.Call == nil {
			return "call ?"
		}
		return "call " + t.Call.String() + " -> " + targets(t.Targets)
	case Assert:
		return "assert " + t.Operand.String() + " -> " + targets(t.Targets)
	case Unreachable:
		return "unreachable"
	case Resume:
		return "resume"
	default:
		return "?"
	}
}

// At returns the rendering of the statement or terminator at loc, or the empty string if there is none.
func (f *Function) At(loc Location) string {
	b := f.Block(loc.Block)
	if b == nil || loc.Index < 0 || loc.Index > len(b.Statements) {
		return ""
	}
	if loc.Index == len(b.Statements) {
		return b.Terminator.String()
	}
	return b.Statements[loc.Index].String()
}

// PosAt returns the position of the statement or terminator at loc, or the position of the function if there is
// none.
func (f *Function) PosAt(loc Location) token.Position {
	b := f.Block(loc.Block)
	if b == nil || loc.Index < 0 || loc.Index > len(b.Statements) {
		return f.Pos
	}
	if loc.Index == len(b.Statements) {
		return b.Terminator.Pos
	}
	return b.Statements[loc.Index].Pos
}
