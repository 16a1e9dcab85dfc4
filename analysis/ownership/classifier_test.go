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
	"testing"

	"github.com/hooyq/taint-ana/analysis/binding"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/frontend/textir"
	"github.com/hooyq/taint-ana/analysis/traversal"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *cfg.Function {
	t.Helper()
	fns, err := textir.ParseString("test.oir", src)
	require.NoError(t, err, textir.FormatError(src, err))
	require.Len(t, fns, 1)
	return fns[0]
}

func TestCanonicalize(t *testing.T) {
	base := cfg.Local("base")
	tests := []struct {
		place cfg.Place
		want  string
	}{
		{base, "base"},
		{base.Project(cfg.FieldOf(2), cfg.VariantOf(1), cfg.FieldOf(0)), "base.2(as 1).0"},
		{base.Project(cfg.DerefOf()), "base"},
		{base.Project(cfg.FieldOf(1), cfg.DerefOf(), cfg.FieldOf(3)), "base.1"},
		{base.Project(cfg.Projection{Kind: cfg.OpaqueCast}, cfg.FieldOf(1)), "base.1"},
		{base.Project(cfg.VariantOf(1)), "base"},
		{base.Project(cfg.FieldOf(0), cfg.VariantOf(1), cfg.DerefOf()), "base.0"},
		{base.Project(cfg.IndexOf("i"), cfg.FieldOf(0)), "base"},
		{base.Project(cfg.Projection{Kind: cfg.ConstantIndex, Index: 1}), "base"},
		{base.Project(cfg.FieldOf(4), cfg.Projection{Kind: cfg.Subslice, From: 1, To: 2}), "base.4"},
	}
	for _, test := range tests {
		got := Canonicalize(test.place)
		if assert.True(t, got.IsSome(), "%s", test.place) {
			assert.Equal(t, binding.Identifier(test.want), got.Value(), "%s", test.place)
		}
	}
	assert.True(t, Canonicalize(cfg.Place{}).IsNone())
	assert.True(t, BaseOnly(cfg.Place{}).IsNone())
	assert.Equal(t, binding.Identifier("base"), BaseOnly(base.Project(cfg.FieldOf(2))).Value())
	assert.False(t, operandPlace(cfg.Const("1")).IsValid())
	assert.Equal(t, "x", operandPlace(cfg.MoveOf(cfg.Local("x"))).Base)
}

func TestDecideRelease(t *testing.T) {
	m := binding.NewManager()
	noTag := funcutil.None[binding.Source]()
	m.Register("a", noTag)
	m.Register("b", noTag)
	require.NoError(t, m.Bind("a", "b"))
	l1 := cfg.Location{Block: 1, Index: 0}
	l2 := cfg.Location{Block: 2, Index: 0}

	assert.Equal(t, FirstRelease, decideRelease(m, "a", l1))
	require.NoError(t, m.ReleaseAt("a", l1))
	assert.Equal(t, Revisit, decideRelease(m, "a", l1))
	assert.Equal(t, Double, decideRelease(m, "a", l2))
	assert.Equal(t, AliasRelease, decideRelease(m, "b", l2))

	// b is not the root of its group, and releasing it twice is still a double release
	require.NoError(t, m.ReleaseAt("b", l2))
	assert.Equal(t, Double, decideRelease(m, "b", cfg.Location{Block: 3, Index: 0}))

	require.NoError(t, m.Unrelease("b"))
	assert.Equal(t, FirstRelease, decideRelease(m, "a", l2))
	assert.Equal(t, "double release", Double.String())
}

// visitStates runs the classifier on fn and returns a snapshot of the bindings after each visit of each block
func visitStates(fn *cfg.Function, c *config.Config) (map[cfg.BlockID][]*binding.Manager, []Violation) {
	var found []Violation
	cl := newClassifier(fn, c, config.NewLogGroup(c), func(v Violation) { found = append(found, v) })
	states := map[cfg.BlockID][]*binding.Manager{}
	traversal.Run(fn, InitialBindings(fn), traversal.OptionsFromConfig(c.Traversal),
		func(f traversal.Frame[*binding.Manager]) {
			cl.visitBlock(fn.Block(f.Block), f.State, f.Path)
			states[f.Block] = append(states[f.Block], f.State.Fork())
		})
	return states, found
}

func TestForkedBranchesAreIndependent(t *testing.T) {
	fn := parse(t, `fn forks {
		ext a; ext c; ext n;
		bb0: { drop a -> bb1; }
		bb1: { switch copy n -> [bb2, bb3]; }
		bb2: { drop c -> bb4; }
		bb3: { d = move c; goto -> bb4; }
		bb4: { return; }
	}`)
	c := config.NewDefault()
	c.Traversal.PathSensitive = true
	states, found := visitStates(fn, c)
	assert.Empty(t, found)

	require.Len(t, states[1], 1)
	pre := states[1][0]
	assert.True(t, pre.IsReleased("a"))
	assert.False(t, pre.IsReleased("c"))
	assert.False(t, pre.IsRegistered("d"))

	require.Len(t, states[2], 1)
	assert.True(t, states[2][0].IsReleased("c"))
	assert.True(t, states[2][0].IsReleased("a"))

	require.Len(t, states[3], 1)
	branch2 := states[3][0]
	assert.False(t, branch2.IsReleased("c"))
	assert.True(t, branch2.IsReleased("a"))
	root, members, err := branch2.Group("d")
	require.NoError(t, err)
	assert.Equal(t, []binding.Identifier{"c", "d"}, members)
	assert.Equal(t, binding.Identifier("c"), root)

	// the snapshot of the pre-fork state is not affected by the branches
	assert.False(t, pre.IsReleased("c"))
}

const loopUse = `fn loop_use {
	ext n; ext x;
	bb0: { goto -> bb1; }
	bb1: {
		y = copy x;
		switch copy n -> [bb2, bb3];
	}
	bb2: { drop x -> bb1; }
	bb3: { return; }
}`

func TestLoopUseNeedsPathSensitivity(t *testing.T) {
	fn := parse(t, loopUse)
	c := config.NewDefault()
	_, found := visitStates(fn, c)
	assert.Empty(t, found, "baseline visits the loop header once")

	c.Traversal.PathSensitive = true
	_, found = visitStates(fn, c)
	require.NotEmpty(t, found)
	v := found[0]
	assert.Equal(t, UseAfterRelease, v.Kind)
	assert.Equal(t, binding.Identifier("x"), v.Identifier)
	assert.Equal(t, cfg.Location{Block: 1, Index: 0}, v.Location)
	assert.Equal(t, []cfg.BlockID{0, 1, 2, 1}, v.Path)
}

func TestReassignmentInLoopStartsNewLifetime(t *testing.T) {
	fn := parse(t, `fn loop_realloc {
		ext n;
		bb0: { goto -> bb1; }
		bb1: {
			x = nullary();
			switch copy n -> [bb2, bb3];
		}
		bb2: { drop x -> bb1; }
		bb3: { return; }
	}`)
	c := config.NewDefault()
	c.Traversal.PathSensitive = true
	states, found := visitStates(fn, c)
	assert.Empty(t, found)
	for _, s := range states[1] {
		assert.False(t, s.IsReleased("x"), "x is live after its assignment")
	}
}

func TestViolationDetails(t *testing.T) {
	fn := parse(t, `fn details {
		ext a "stdin";
		ext c;
		bb0: {
			b = move a;
			switch copy c -> [bb1, bb2];
		}
		bb1: { drop b -> bb3; }
		bb2: { return; }
		bb3: { drop b -> exit; }
		exit: { return; }
	}`)
	_, found := visitStates(fn, config.NewDefault())
	require.Len(t, found, 1)
	v := found[0]
	assert.Equal(t, DoubleRelease, v.Kind)
	assert.Equal(t, "details", v.Function)
	assert.Equal(t, binding.Identifier("b"), v.Identifier)
	assert.Equal(t, cfg.BlockID(3), v.Block)
	assert.Equal(t, "bb3", v.BlockLabel)
	assert.Equal(t, "drop b -> bb4", v.Event)
	assert.Equal(t, binding.Identifier("a"), v.Root)
	assert.Equal(t, []binding.Identifier{"a", "b"}, v.Members)
	assert.Equal(t, binding.Source("stdin"), v.Tag.Value())
	assert.Equal(t, cfg.Location{Block: 1, Index: 0}, v.FirstRelease.Value())
	assert.Equal(t, []cfg.BlockID{0, 1, 3}, v.Path)
	assert.Equal(t, "bb0 -> bb1 -> bb3", v.PathString())
	assert.Equal(t, 10, v.Pos.Line)
	assert.Contains(t, v.String(), "double-release of b in details at bb3")
	assert.Contains(t, v.String(), "[group of a]")
}

func TestSourceCallsTagTheirResult(t *testing.T) {
	fn := parse(t, `fn sources {
		bb0: {
			call f = os::open(const "x");
			g = move f;
			call std::mem::drop(move f) -> bb1;
		}
		bb1: {
			y = copy g;
			return;
		}
	}`)
	c := config.NewDefault()
	c.Ownership.SourceFunctions = []config.CodeIdentifier{{Package: "os", Method: "open"}}
	_, found := visitStates(fn, c)
	require.Len(t, found, 1)
	assert.Equal(t, binding.Source("os::open"), found[0].Tag.Value())
	assert.Equal(t, binding.Identifier("g"), found[0].Identifier)
}

func TestReturnPlaceCanBeDisabled(t *testing.T) {
	src := `fn ret {
		ext _0;
		bb0: { drop _0 -> bb1; }
		bb1: { return; }
	}`
	_, found := visitStates(parse(t, src), config.NewDefault())
	assert.Len(t, found, 1)

	c := config.NewDefault()
	c.Ownership.ReturnPlace = ""
	_, found = visitStates(parse(t, src), c)
	assert.Empty(t, found)
}

func TestReleaseCallDoesNotUseItsArgument(t *testing.T) {
	fn := parse(t, `fn release_twice {
		ext a;
		bb0: {
			call std::mem::drop(move a);
			call std::mem::drop(move a);
			return;
		}
	}`)
	_, found := visitStates(fn, config.NewDefault())
	require.Len(t, found, 1)
	assert.Equal(t, DoubleRelease, found[0].Kind)
	assert.Equal(t, cfg.Location{Block: 0, Index: 1}, found[0].Location)
}

func TestEscapeCallAliasesItsArgument(t *testing.T) {
	fn := parse(t, `fn escape {
		ext v;
		bb0: {
			call p = core::slice::as_mut_ptr(copy v.0);
			call std::mem::drop(move v.0);
			x = copy p;
			y = copy v;
			return;
		}
	}`)
	states, found := visitStates(fn, config.NewDefault())
	require.Len(t, found, 1)
	assert.Equal(t, binding.Identifier("p"), found[0].Identifier)
	assert.Equal(t, []binding.Identifier{"p", "v.0"}, found[0].Members)
	assert.False(t, states[0][0].IsReleased("v"))
}
