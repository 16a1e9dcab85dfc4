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

package ownership

import (
	"errors"

	"github.com/hooyq/taint-ana/analysis/binding"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"github.com/hooyq/taint-ana/internal/graphutil"
)

type identifier = funcutil.Optional[binding.Identifier]

// classifier turns the statements and terminators of the visited blocks into binding events. It implements
// cfg.EventOp. The bindings and path fields are set before each block visit.
type classifier struct {
	fn       *cfg.Function
	config   *config.Config
	logger   *config.LogGroup
	report   func(Violation)
	warnings []error

	bindings *binding.Manager
	path     *graphutil.Tree[cfg.BlockID]
}

func newClassifier(fn *cfg.Function, c *config.Config, logger *config.LogGroup, report func(Violation)) *classifier {
	return &classifier{fn: fn, config: c, logger: logger, report: report}
}

// visitBlock runs the classifier on the block with the state of the current path
func (c *classifier) visitBlock(b *cfg.Block, bindings *binding.Manager, path *graphutil.Tree[cfg.BlockID]) {
	c.bindings = bindings
	c.path = path
	cfg.VisitBlock(c, b)
}

func (c *classifier) warn(err error) {
	c.warnings = append(c.warnings, err)
	c.logger.Warnf("%s: %v", c.fn.Name, err)
}

func (c *classifier) register(id binding.Identifier) {
	if c.bindings.Register(id, funcutil.None[binding.Source]()) {
		c.logger.Tracef("%s: register %s", c.fn.Name, id)
	}
}

func (c *classifier) violation(kind Kind, id binding.Identifier, loc cfg.Location) Violation {
	v := Violation{
		Kind:       kind,
		Function:   c.fn.Name,
		Identifier: id,
		Block:      loc.Block,
		Location:   loc,
		Pos:        c.fn.PosAt(loc),
		Event:      c.fn.At(loc),
		Tag:        c.bindings.Tag(id),
	}
	if b := c.fn.Block(loc.Block); b != nil {
		v.BlockLabel = b.Name()
	}
	if root, members, err := c.bindings.Group(id); err == nil {
		v.Root = root
		v.Members = members
	}
	if c.path != nil {
		v.Path = c.path.Labels(-1)
	}
	return v
}

// use checks that the group of id is not released
func (c *classifier) use(loc cfg.Location, id identifier) {
	if id.IsNone() {
		return
	}
	x := id.Value()
	c.register(x)
	if c.bindings.IsReleased(x) {
		c.logger.Debugf("%s: use of released %s at %s", c.fn.Name, x, loc)
		c.report(c.violation(UseAfterRelease, x, loc))
	}
}

// useOperands checks every operand at full precision
func (c *classifier) useOperands(loc cfg.Location, ops []cfg.Operand) {
	for _, op := range ops {
		c.use(loc, Canonicalize(operandPlace(op)))
	}
}

// bind registers both identifiers and unions their groups. A failed union is recorded as a warning.
func (c *classifier) bind(id1, id2 identifier) {
	if id1.IsNone() || id2.IsNone() {
		return
	}
	c.register(id1.Value())
	c.register(id2.Value())
	if err := c.bindings.Bind(id1.Value(), id2.Value()); err != nil {
		c.warn(err)
		return
	}
	c.logger.Tracef("%s: bind %s and %s", c.fn.Name, id1.Value(), id2.Value())
}

// move checks the source is alive and puts the target in the group of the source
func (c *classifier) move(loc cfg.Location, source cfg.Place, target cfg.Place) {
	c.use(loc, BaseOnly(source))
	c.bind(Canonicalize(source), BaseOnly(target))
}

// release applies the double release policy to the release of id at loc
func (c *classifier) release(loc cfg.Location, id identifier) {
	if id.IsNone() {
		return
	}
	x := id.Value()
	c.register(x)
	decision := decideRelease(c.bindings, x, loc)
	c.logger.Tracef("%s: release %s at %s: %s", c.fn.Name, x, loc, decision)
	switch decision {
	case Revisit:
		return
	case Double:
		v := c.violation(DoubleRelease, x, loc)
		v.FirstRelease = c.bindings.ReleasedAt(x)
		c.logger.Debugf("%s: double release of %s at %s", c.fn.Name, x, loc)
		c.report(v)
		return
	}
	err := c.bindings.ReleaseAt(x, loc)
	if errors.Is(err, binding.ErrUnregistered) {
		c.warn(err)
		c.register(x)
		err = c.bindings.ReleaseAt(x, loc)
	}
	if err != nil {
		c.warn(err)
	}
}

// restore starts a new lifetime for the group of the write target when the whole object is written, directly or
// through one dereference
func (c *classifier) restore(target cfg.Place) {
	if !target.IsLocal() && !target.IsSimpleDeref() {
		return
	}
	id := binding.Identifier(target.Base)
	if !c.bindings.IsReleased(id) {
		c.register(id)
		return
	}
	if err := c.bindings.Unrelease(id); err != nil {
		c.warn(err)
		return
	}
	c.logger.Debugf("%s: %s reassigned, group restored", c.fn.Name, id)
}

// ************ Statements ************

func (c *classifier) DoAssign(loc cfg.Location, s *cfg.Statement) {
	c.restore(s.Target)
	rv := &s.Rvalue
	switch rv.Kind {
	case cfg.Use:
		for _, op := range rv.Operands {
			switch op.Kind {
			case cfg.Copy:
				c.use(loc, BaseOnly(op.Place))
			case cfg.Move:
				c.move(loc, op.Place, s.Target)
			}
		}
	case cfg.Ref:
		c.move(loc, rv.Place, s.Target)
	case cfg.AddressOf, cfg.CopyForDeref:
		c.use(loc, Canonicalize(rv.Place))
	case cfg.Discriminant:
		c.use(loc, BaseOnly(rv.Place))
	case cfg.Cast, cfg.UnaryOp, cfg.BinaryOp, cfg.Aggregate, cfg.Repeat:
		c.useOperands(loc, rv.Operands)
	case cfg.Nullary:
	}
	if t := BaseOnly(s.Target); t.IsSome() {
		c.register(t.Value())
	}
}

func (c *classifier) DoCall(loc cfg.Location, call *cfg.Call) {
	if call.Destination.IsValid() {
		c.restore(call.Destination)
	}
	isRelease := c.config.IsRelease(call.Callee) && len(call.Args) > 0
	if isRelease {
		c.release(loc, Canonicalize(operandPlace(call.Args[0])))
	}
	if c.config.IsEscape(call.Callee) && len(call.Args) > 0 && call.Destination.IsValid() {
		c.bind(Canonicalize(call.Destination), Canonicalize(operandPlace(call.Args[0])))
	}
	if c.config.IsSource(call.Callee) && call.Destination.IsValid() {
		if dest := Canonicalize(call.Destination); dest.IsSome() {
			c.bindings.SetTag(dest.Value(), binding.Source(call.Callee.String()))
			c.logger.Tracef("%s: %s comes from %s", c.fn.Name, dest.Value(), call.Callee)
		}
	}
	for i, arg := range call.Args {
		if i == 0 && isRelease {
			continue
		}
		c.use(loc, BaseOnly(operandPlace(arg)))
	}
	if call.Destination.IsValid() {
		c.register(binding.Identifier(call.Destination.Base))
	}
}

func (c *classifier) DoNop(cfg.Location) {}

// ************ Terminators ************

func (c *classifier) DoGoto(cfg.Location, *cfg.Terminator) {}

func (c *classifier) DoSwitch(loc cfg.Location, t *cfg.Terminator) {
	c.use(loc, BaseOnly(operandPlace(t.Operand)))
}

func (c *classifier) DoReturn(loc cfg.Location, t *cfg.Terminator) {
	for _, v := range t.Values {
		c.use(loc, BaseOnly(operandPlace(v)))
	}
	if r := c.config.Ownership.ReturnPlace; r != "" {
		c.use(loc, funcutil.Some(binding.Identifier(r)))
	}
}

func (c *classifier) DoDrop(loc cfg.Location, t *cfg.Terminator) {
	c.release(loc, Canonicalize(t.Place))
}

func (c *classifier) DoAssert(loc cfg.Location, t *cfg.Terminator) {
	c.use(loc, BaseOnly(operandPlace(t.Operand)))
}

func (c *classifier) DoUnreachable(cfg.Location, *cfg.Terminator) {}

func (c *classifier) DoResume(cfg.Location, *cfg.Terminator) {}
