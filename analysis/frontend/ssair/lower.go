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

package ssair

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"github.com/hooyq/taint-ana/internal/typesutil"
	"golang.org/x/tools/go/ssa"
)

// builtinPackage is the package of the pseudo-functions used for the instructions that read values without
// defining any: panic, send.
const builtinPackage = "builtin"

// lowerer translates the instructions of one SSA function. The current block is set before lowering the
// instructions of each block.
type lowerer struct {
	fn    *ssa.Function
	fset  *token.FileSet
	out   *cfg.Function
	block *cfg.Block
	done  bool
	// last is the last valid position seen; instructions without position inherit it
	last token.Position
}

// Lower translates an SSA function into the control-flow graph model. SSA blocks keep their index; parameters and
// free variables become externs.
func Lower(fn *ssa.Function) (*cfg.Function, error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("function %s has no body", fn)
	}
	l := &lowerer{fn: fn, out: &cfg.Function{Name: fn.String()}}
	if fn.Prog != nil {
		l.fset = fn.Prog.Fset
	}
	l.out.Pos = l.position(fn.Pos())
	l.last = l.out.Pos
	for _, p := range fn.Params {
		l.out.Externs = append(l.out.Externs, cfg.Extern{Name: p.Name(), Tag: "param:" + p.Name()})
	}
	for _, fv := range fn.FreeVars {
		l.out.Externs = append(l.out.Externs, cfg.Extern{Name: fv.Name(), Tag: "freevar:" + fv.Name()})
	}
	for _, b := range fn.Blocks {
		l.block = &cfg.Block{ID: cfg.BlockID(b.Index), Label: b.Comment}
		l.done = false
		for _, instr := range b.Instrs {
			l.lowerInstr(instr)
		}
		if !l.done {
			l.fallthroughTerminator(b)
		}
		l.out.Blocks = append(l.out.Blocks, l.block)
	}
	if err := l.out.Validate(); err != nil {
		return nil, err
	}
	return l.out, nil
}

func (l *lowerer) position(pos token.Pos) token.Position {
	if l.fset == nil || !pos.IsValid() {
		return token.Position{}
	}
	return l.fset.Position(pos)
}

// at returns the position of pos, or the last valid position when pos is not valid
func (l *lowerer) at(pos token.Pos) token.Position {
	p := l.position(pos)
	if !p.IsValid() {
		return l.last
	}
	l.last = p
	return p
}

// fallthroughTerminator ends a block whose last instruction is not a terminator
func (l *lowerer) fallthroughTerminator(b *ssa.BasicBlock) {
	t := cfg.Terminator{Kind: cfg.Unreachable}
	if len(b.Succs) > 0 {
		t = cfg.Terminator{Kind: cfg.Goto}
		for _, s := range b.Succs {
			t.Targets = append(t.Targets, cfg.BlockID(s.Index))
		}
	}
	t.Pos = l.last
	l.block.Terminator = t
}

func (l *lowerer) terminate(t cfg.Terminator, pos token.Pos) {
	t.Pos = l.at(pos)
	l.block.Terminator = t
	l.done = true
}

func (l *lowerer) succs() []cfg.BlockID {
	return funcutil.Map(l.block2ssa().Succs, func(b *ssa.BasicBlock) cfg.BlockID { return cfg.BlockID(b.Index) })
}

func (l *lowerer) block2ssa() *ssa.BasicBlock {
	return l.fn.Blocks[l.block.ID]
}

func (l *lowerer) add(s cfg.Statement, pos token.Pos) {
	s.Pos = l.at(pos)
	l.block.Statements = append(l.block.Statements, s)
}

func (l *lowerer) assign(v ssa.Value, rv cfg.Rvalue) {
	l.add(cfg.Statement{Kind: cfg.Assign, Target: cfg.Local(v.Name()), Rvalue: rv}, v.Pos())
}

// read assigns to v the value read from place. Values of types that may hold references move: the target joins the
// binding group of the place.
func (l *lowerer) read(v ssa.Value, place cfg.Place) {
	op := cfg.CopyOf(place)
	if mayAlias(v.Type()) {
		op = cfg.MoveOf(place)
	}
	l.assign(v, cfg.Rvalue{Kind: cfg.Use, Operands: []cfg.Operand{op}})
}

// alias assigns x to v
func (l *lowerer) alias(v ssa.Value, x ssa.Value) {
	l.assign(v, cfg.Rvalue{Kind: cfg.Use, Operands: []cfg.Operand{l.operand(x)}})
}

func (l *lowerer) fresh(v ssa.Value, op string) {
	l.assign(v, cfg.Rvalue{Kind: cfg.Nullary, Op: op})
}

func (l *lowerer) pseudoCall(name string, pos token.Pos, args ...ssa.Value) {
	c := &cfg.Call{Callee: cfg.Callee{Package: builtinPackage, Name: name}}
	for _, a := range args {
		c.Args = append(c.Args, l.operand(a))
	}
	l.add(cfg.Statement{Kind: cfg.CallStmt, Call: c}, pos)
}

// mayAlias returns false for the basic types that cannot refer to other storage
func mayAlias(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return !ok || b.Kind() == types.UnsafePointer
}

func (l *lowerer) place(v ssa.Value) cfg.Place {
	if g, ok := v.(*ssa.Global); ok {
		return cfg.Local(g.String())
	}
	return cfg.Local(v.Name())
}

func (l *lowerer) operand(v ssa.Value) cfg.Operand {
	switch v := v.(type) {
	case *ssa.Const:
		if v.Value == nil {
			return cfg.Const("nil")
		}
		return cfg.Const(v.Value.ExactString())
	case *ssa.Function, *ssa.Builtin:
		return cfg.Const(v.Name())
	}
	if mayAlias(v.Type()) {
		return cfg.MoveOf(l.place(v))
	}
	return cfg.CopyOf(l.place(v))
}

func (l *lowerer) operands(vs []ssa.Value) []cfg.Operand {
	return funcutil.Map(vs, l.operand)
}

// index returns the projection of an index by v
func index(v ssa.Value) cfg.Projection {
	if c, ok := v.(*ssa.Const); ok && c.Value != nil {
		if c.Value.Kind() == constant.Int {
			if i, exact := constant.Int64Val(c.Value); exact {
				return cfg.Projection{Kind: cfg.ConstantIndex, Index: int(i)}
			}
		}
		return cfg.IndexOf(c.Value.ExactString())
	}
	return cfg.IndexOf(v.Name())
}

// typeName returns the name of the named type behind t, or its string
func typeName(t types.Type) string {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	switch t := typesutil.Unalias(t).(type) {
	case *types.Named:
		return t.Obj().Name()
	case *types.Interface:
		return "interface"
	}
	return t.String()
}

// Callee returns the callee of a call: package path, receiver type name and function or method name. Interface
// method calls use the interface type as receiver.
func Callee(cc *ssa.CallCommon) cfg.Callee {
	if cc.IsInvoke() {
		c := cfg.Callee{Receiver: typeName(cc.Value.Type()), Name: cc.Method.Name()}
		if cc.Method.Pkg() != nil {
			c.Package = cc.Method.Pkg().Path()
		}
		return c
	}
	switch v := cc.Value.(type) {
	case *ssa.Builtin:
		return cfg.Callee{Package: builtinPackage, Name: v.Name()}
	case *ssa.Function:
		f := v
		if o := v.Origin(); o != nil {
			f = o
		}
		c := cfg.Callee{Name: f.Name()}
		if f.Pkg != nil {
			c.Package = f.Pkg.Pkg.Path()
		} else if obj := f.Object(); obj != nil && obj.Pkg() != nil {
			c.Package = obj.Pkg().Path()
		}
		if recv := f.Signature.Recv(); recv != nil {
			c.Receiver = typeName(recv.Type())
		}
		return c
	default:
		return cfg.Callee{Name: cc.Value.Name()}
	}
}

// call translates a call. The receiver of an interface method call is its first argument; the function value of a
// dynamic call is read after the arguments.
func (l *lowerer) call(cc *ssa.CallCommon, dest cfg.Place) *cfg.Call {
	c := &cfg.Call{Callee: Callee(cc), Destination: dest}
	if cc.IsInvoke() {
		c.Args = append(c.Args, l.operand(cc.Value))
	}
	c.Args = append(c.Args, l.operands(cc.Args)...)
	switch cc.Value.(type) {
	case *ssa.Function, *ssa.Builtin:
	default:
		if !cc.IsInvoke() {
			c.Args = append(c.Args, l.operand(cc.Value))
		}
	}
	return c
}

// lowerInstr translates one instruction into the current block. Conversions alias their operand; allocations
// start a fresh value. Instructions that only carry debug information are skipped.
func (l *lowerer) lowerInstr(instr ssa.Instruction) {
	switch x := instr.(type) {
	case *ssa.ChangeInterface:
		l.alias(x, x.X)
	case *ssa.ChangeType:
		l.alias(x, x.X)
	case *ssa.Convert:
		l.alias(x, x.X)
	case *ssa.MultiConvert:
		l.alias(x, x.X)
	case *ssa.SliceToArrayPointer:
		l.alias(x, x.X)
	case *ssa.MakeInterface:
		l.alias(x, x.X)
	case *ssa.Slice:
		l.alias(x, x.X)
	case *ssa.TypeAssert:
		l.alias(x, x.X)
	case *ssa.Range:
		l.alias(x, x.X)
	case *ssa.Next:
		l.alias(x, x.Iter)
	case *ssa.Alloc:
		l.fresh(x, "new")
	case *ssa.MakeChan, *ssa.MakeSlice, *ssa.MakeMap:
		l.fresh(x.(ssa.Value), "make")
	case *ssa.Phi:
		l.fresh(x, "phi")
	case *ssa.UnOp:
		l.unOp(x)
	case *ssa.BinOp:
		l.assign(x, cfg.Rvalue{Kind: cfg.BinaryOp, Op: x.Op.String(), Operands: l.operands([]ssa.Value{x.X, x.Y})})
	case *ssa.Extract:
		l.read(x, l.place(x.Tuple).Project(cfg.FieldOf(x.Index)))
	case *ssa.FieldAddr:
		l.assign(x, cfg.Rvalue{Kind: cfg.Ref, Mutable: true, Place: l.place(x.X).Project(cfg.DerefOf(), cfg.FieldOf(x.Field))})
	case *ssa.Field:
		l.read(x, l.place(x.X).Project(cfg.FieldOf(x.Field)))
	case *ssa.IndexAddr:
		l.assign(x, cfg.Rvalue{Kind: cfg.Ref, Mutable: true, Place: l.place(x.X).Project(index(x.Index))})
	case *ssa.Index:
		l.read(x, l.place(x.X).Project(index(x.Index)))
	case *ssa.Lookup:
		l.read(x, l.place(x.X).Project(index(x.Index)))
	case *ssa.MakeClosure:
		// the closure is a new object holding the captured values
		l.assign(x, cfg.Rvalue{Kind: cfg.Aggregate, Operands: l.operands(x.Bindings)})
	case *ssa.Select:
		l.selectStates(x)
	case *ssa.Call:
		var dest cfg.Place
		if x.Call.Signature().Results().Len() > 0 {
			dest = cfg.Local(x.Name())
		}
		l.add(cfg.Statement{Kind: cfg.CallStmt, Call: l.call(&x.Call, dest)}, x.Pos())
	case *ssa.Go:
		l.add(cfg.Statement{Kind: cfg.CallStmt, Call: l.call(&x.Call, cfg.Place{})}, x.Pos())
	case *ssa.Store:
		l.write(l.place(x.Addr).Project(cfg.DerefOf()), x.Val, x.Pos())
	case *ssa.MapUpdate:
		l.write(l.place(x.Map).Project(index(x.Key)), x.Value, x.Pos())
	case *ssa.Send:
		l.pseudoCall("send", x.Pos(), x.Chan, x.X)
	case *ssa.RunDefers:
		l.runDefers(x)
	case *ssa.Return:
		l.terminate(cfg.Terminator{Kind: cfg.Return, Values: l.operands(x.Results)}, x.Pos())
	case *ssa.Panic:
		l.pseudoCall("panic", x.Pos(), x.X)
		l.terminate(cfg.Terminator{Kind: cfg.Unreachable}, x.Pos())
	case *ssa.If:
		l.terminate(cfg.Terminator{Kind: cfg.Switch, Operand: l.operand(x.Cond), Targets: l.succs()}, x.Pos())
	case *ssa.Jump:
		l.terminate(cfg.Terminator{Kind: cfg.Goto, Targets: l.succs()}, x.Pos())
	case *ssa.Defer, *ssa.DebugRef:
		// deferred calls are lowered at RunDefers
	}
}

func (l *lowerer) unOp(x *ssa.UnOp) {
	switch x.Op {
	case token.MUL:
		l.read(x, l.place(x.X).Project(cfg.DerefOf()))
	case token.ARROW:
		l.assign(x, cfg.Rvalue{Kind: cfg.UnaryOp, Op: "recv", Operands: []cfg.Operand{l.operand(x.X)}})
	default:
		l.assign(x, cfg.Rvalue{Kind: cfg.UnaryOp, Op: x.Op.String(), Operands: []cfg.Operand{l.operand(x.X)}})
	}
}

// selectStates reads the channels and the sent values of a select.
func (l *lowerer) selectStates(x *ssa.Select) {
	var vs []ssa.Value
	for _, st := range x.States {
		vs = append(vs, st.Chan)
		if st.Send != nil {
			vs = append(vs, st.Send)
		}
	}
	l.assign(x, cfg.Rvalue{Kind: cfg.Aggregate, Operands: l.operands(vs)})
}

// write assigns v to target; writes through a dereference restore the target.
func (l *lowerer) write(target cfg.Place, v ssa.Value, pos token.Pos) {
	l.add(cfg.Statement{
		Kind:   cfg.Assign,
		Target: target,
		Rvalue: cfg.Rvalue{Kind: cfg.Use, Operands: []cfg.Operand{l.operand(v)}},
	}, pos)
}

// runDefers replays, last deferred first and at the position of their defer, the deferred calls that were
// executed on every path reaching rd: those before rd in its block and those in the blocks dominating it.
// A defer in a block that does not dominate rd is skipped, since some paths to rd never run it.
func (l *lowerer) runDefers(rd *ssa.RunDefers) {
	for _, d := range dominatingDefers(rd) {
		l.add(cfg.Statement{Kind: cfg.CallStmt, Call: l.call(&d.Call, cfg.Place{})}, d.Pos())
	}
}

// dominatingDefers returns the defers that always execute before rd, in reverse execution order.
func dominatingDefers(rd *ssa.RunDefers) []*ssa.Defer {
	var res []*ssa.Defer
	stop := ssa.Instruction(rd)
	for b := rd.Block(); b != nil; b = b.Idom() {
		var inBlock []*ssa.Defer
		for _, instr := range b.Instrs {
			if instr == stop {
				break
			}
			if d, ok := instr.(*ssa.Defer); ok {
				inBlock = append(inBlock, d)
			}
		}
		for i := len(inBlock) - 1; i >= 0; i-- {
			res = append(res, inBlock[i])
		}
		stop = nil
	}
	return res
}
