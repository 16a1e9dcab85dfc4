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

// An EventOp must implement methods for ALL statement and terminator kinds
type EventOp interface {
	DoAssign(Location, *Statement)
	DoCall(Location, *Call)
	DoNop(Location)
	DoGoto(Location, *Terminator)
	DoSwitch(Location, *Terminator)
	DoReturn(Location, *Terminator)
	DoDrop(Location, *Terminator)
	DoAssert(Location, *Terminator)
	DoUnreachable(Location, *Terminator)
	DoResume(Location, *Terminator)
}

// StatementSwitch maps the statement kinds to the methods of the visitor.
func StatementSwitch(op EventOp, loc Location, s *Statement) {
	switch s.Kind {
	case Assign:
		op.DoAssign(loc, s)
	case CallStmt:
		if s.Call != nil {
			op.DoCall(loc, s.Call)
		}
	case Nop:
		op.DoNop(loc)
	}
}

// TerminatorSwitch maps the terminator kinds to the methods of the visitor.
func TerminatorSwitch(op EventOp, loc Location, t *Terminator) {
	switch t.Kind {
	case Goto:
		op.DoGoto(loc, t)
	case Switch:
		op.DoSwitch(loc, t)
	case Return:
		op.DoReturn(loc, t)
	case Drop:
		op.DoDrop(loc, t)
	case CallTerm:
		if t.Call != nil {
			op.DoCall(loc, t.Call)
		}
	case Assert:
		op.DoAssert(loc, t)
	case Unreachable:
		op.DoUnreachable(loc, t)
	case Resume:
		op.DoResume(loc, t)
	}
}

// VisitBlock runs the visitor on every statement of the block, in order, and then on its terminator.
func VisitBlock(op EventOp, b *Block) {
	for i := range b.Statements {
		StatementSwitch(op, Location{Block: b.ID, Index: i}, &b.Statements[i])
	}
	TerminatorSwitch(op, b.TerminatorLocation(), &b.Terminator)
}
