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

package textir

import (
	"go/token"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/hooyq/taint-ana/analysis/cfg"
)

func position(p lexer.Position) token.Position {
	return token.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

// lowering holds the label resolution of the function being lowered
type lowering struct {
	labels map[string]cfg.BlockID
}

func lowerFunction(f *Function) (*cfg.Function, error) {
	fn := &cfg.Function{
		Name: strings.Join(f.Name.Parts, "::"),
		Pos:  position(f.Pos),
	}
	if len(f.Blocks) == 0 {
		return nil, errorAt(f.Pos, "function has no blocks")
	}
	l := &lowering{labels: map[string]cfg.BlockID{}}
	for i, b := range f.Blocks {
		if _, dup := l.labels[b.Label]; dup {
			return nil, errorAt(b.Pos, "duplicate block label %s", b.Label)
		}
		l.labels[b.Label] = cfg.BlockID(i)
	}
	for _, e := range f.Externs {
		ext := cfg.Extern{Name: e.Name}
		if e.Tag != nil {
			ext.Tag = *e.Tag
		}
		fn.Externs = append(fn.Externs, ext)
	}
	for i, b := range f.Blocks {
		block, err := l.block(cfg.BlockID(i), b)
		if err != nil {
			return nil, err
		}
		fn.Blocks = append(fn.Blocks, block)
	}
	return fn, nil
}

func (l *lowering) block(id cfg.BlockID, b *Block) (*cfg.Block, error) {
	block := &cfg.Block{ID: id, Label: b.Label}
	if len(b.Items) == 0 {
		return nil, errorAt(b.Pos, "block %s is empty", b.Label)
	}
	last := len(b.Items) - 1
	for i, item := range b.Items {
		if i == last {
			t, err := l.terminator(item)
			if err != nil {
				return nil, err
			}
			block.Terminator = *t
			break
		}
		s, err := l.statement(item)
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, *s)
	}
	return block, nil
}

func (l *lowering) statement(item *Item) (*cfg.Statement, error) {
	s := &cfg.Statement{Pos: position(item.Pos)}
	switch {
	case item.Nop:
		s.Kind = cfg.Nop
	case item.Assign != nil:
		rv, err := rvalue(item.Assign.Value)
		if err != nil {
			return nil, err
		}
		s.Kind = cfg.Assign
		s.Target = place(item.Assign.Target)
		s.Rvalue = rv
	case item.Call != nil:
		if len(item.Call.Targets) > 0 {
			return nil, errorAt(item.Pos, "a call with targets must end its block")
		}
		s.Kind = cfg.CallStmt
		s.Call = call(item.Call)
	default:
		return nil, errorAt(item.Pos, "terminator must be the last item of its block")
	}
	return s, nil
}

func (l *lowering) terminator(item *Item) (*cfg.Terminator, error) {
	t := &cfg.Terminator{Pos: position(item.Pos)}
	var targets []string
	switch {
	case item.Goto != nil:
		t.Kind = cfg.Goto
		targets = []string{item.Goto.Target}
	case item.Switch != nil:
		t.Kind = cfg.Switch
		t.Operand = operand(item.Switch.Discr)
		targets = item.Switch.Targets
	case item.Return != nil:
		t.Kind = cfg.Return
		for _, v := range item.Return.Values {
			t.Values = append(t.Values, operand(v))
		}
	case item.Drop != nil:
		t.Kind = cfg.Drop
		t.Place = place(item.Drop.Place)
		targets = item.Drop.Targets
	case item.Assert != nil:
		t.Kind = cfg.Assert
		t.Operand = operand(item.Assert.Cond)
		targets = item.Assert.Targets
	case item.Call != nil && len(item.Call.Targets) > 0:
		t.Kind = cfg.CallTerm
		t.Call = call(item.Call)
		targets = item.Call.Targets
	case item.Unreachable:
		t.Kind = cfg.Unreachable
	case item.Resume:
		t.Kind = cfg.Resume
	default:
		return nil, errorAt(item.Pos, "block must end with a terminator")
	}
	for _, label := range targets {
		id, ok := l.labels[label]
		if !ok {
			return nil, errorAt(item.Pos, "unknown block label %s", label)
		}
		t.Targets = append(t.Targets, id)
	}
	return t, nil
}

func call(c *CallItem) *cfg.Call {
	res := &cfg.Call{Callee: callee(c.Callee)}
	if c.Dest != nil {
		res.Destination = place(c.Dest)
	}
	for _, a := range c.Args {
		res.Args = append(res.Args, operand(a))
	}
	return res
}

// callee splits a::b::c into package a::b and name c
func callee(p *Path) cfg.Callee {
	n := len(p.Parts)
	return cfg.Callee{Package: strings.Join(p.Parts[:n-1], "::"), Name: p.Parts[n-1]}
}

func rvalue(r *Rvalue) (cfg.Rvalue, error) {
	switch {
	case r.AddressOf != nil:
		return cfg.Rvalue{Kind: cfg.AddressOf, Place: place(r.AddressOf)}, nil
	case r.Ref != nil:
		return cfg.Rvalue{Kind: cfg.Ref, Place: place(r.Ref.Place), Mutable: r.Ref.Mut}, nil
	case r.Operand != nil:
		return cfg.Rvalue{Kind: cfg.Use, Operands: []cfg.Operand{operand(r.Operand)}}, nil
	case r.Aggregate != nil:
		return cfg.Rvalue{Kind: cfg.Aggregate, Operands: operands(r.Aggregate.Elems)}, nil
	case r.Apply != nil:
		return apply(r.Apply)
	}
	return cfg.Rvalue{}, errorAt(lexer.Position{}, "empty right-hand side")
}

func apply(a *Apply) (cfg.Rvalue, error) {
	switch a.Op {
	case "discriminant", "deref_copy":
		if len(a.Args) != 1 || a.Args[0].Place == nil {
			return cfg.Rvalue{}, errorAt(argPos(a), "%s expects a single place", a.Op)
		}
		kind := cfg.Discriminant
		if a.Op == "deref_copy" {
			kind = cfg.CopyForDeref
		}
		return cfg.Rvalue{Kind: kind, Place: place(a.Args[0].Place)}, nil
	}
	ops := make([]cfg.Operand, 0, len(a.Args))
	for _, arg := range a.Args {
		if arg.Operand == nil {
			return cfg.Rvalue{}, errorAt(arg.Place.Pos, "%s expects operands, found place %s", a.Op, arg.Place.Base)
		}
		ops = append(ops, operand(arg.Operand))
	}
	switch a.Op {
	case "use":
		return cfg.Rvalue{Kind: cfg.Use, Operands: ops}, nil
	case "cast", "repeat":
		if len(ops) != 1 {
			return cfg.Rvalue{}, errorAt(argPos(a), "%s expects one operand", a.Op)
		}
		kind := cfg.Cast
		if a.Op == "repeat" {
			kind = cfg.Repeat
		}
		return cfg.Rvalue{Kind: kind, Operands: ops}, nil
	}
	switch len(ops) {
	case 0:
		return cfg.Rvalue{Kind: cfg.Nullary, Op: a.Op}, nil
	case 1:
		return cfg.Rvalue{Kind: cfg.UnaryOp, Op: a.Op, Operands: ops}, nil
	case 2:
		return cfg.Rvalue{Kind: cfg.BinaryOp, Op: a.Op, Operands: ops}, nil
	default:
		return cfg.Rvalue{}, errorAt(argPos(a), "operator %s takes at most two operands", a.Op)
	}
}

func argPos(a *Apply) lexer.Position {
	if len(a.Args) == 0 {
		return lexer.Position{}
	}
	if a.Args[0].Place != nil {
		return a.Args[0].Place.Pos
	}
	return a.Args[0].Operand.Pos
}

func operands(ops []*Operand) []cfg.Operand {
	res := make([]cfg.Operand, len(ops))
	for i, op := range ops {
		res[i] = operand(op)
	}
	return res
}

func operand(op *Operand) cfg.Operand {
	switch {
	case op.Copy != nil:
		return cfg.CopyOf(place(op.Copy))
	case op.Move != nil:
		return cfg.MoveOf(place(op.Move))
	case op.Const != nil:
		return cfg.Const(*op.Const)
	}
	return cfg.Const("")
}

func place(p *Place) cfg.Place {
	res := cfg.Local(p.Base)
	for _, proj := range p.Proj {
		res.Projection = append(res.Projection, projection(proj))
	}
	return res
}

func projection(p *Projection) cfg.Projection {
	switch {
	case p.Deref:
		return cfg.DerefOf()
	case p.Opaque:
		return cfg.Projection{Kind: cfg.OpaqueCast}
	case p.Field != nil:
		return cfg.FieldOf(*p.Field)
	case p.Variant != nil:
		return cfg.VariantOf(*p.Variant)
	case p.Bracket.Local != "":
		return cfg.IndexOf(p.Bracket.Local)
	case p.Bracket.To != nil:
		return cfg.Projection{Kind: cfg.Subslice, From: *p.Bracket.From, To: *p.Bracket.To}
	default:
		return cfg.Projection{Kind: cfg.ConstantIndex, Index: *p.Bracket.From}
	}
}
