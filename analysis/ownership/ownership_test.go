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

package ownership_test

import (
	"embed"
	"strings"
	"testing"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/ownership"
	"github.com/hooyq/taint-ana/internal/analysistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testfsys embed.FS

func found(results []ownership.FunctionResult) map[analysistest.Expectation]bool {
	got := map[analysistest.Expectation]bool{}
	for _, res := range results {
		for _, v := range res.Violations {
			got[analysistest.Expectation{
				Pos:  analysistest.NewLPos(v.Pos),
				Kind: analysistest.AnnotationName(v.Kind.String()),
			}] = true
		}
	}
	return got
}

func TestAnnotatedScenarios(t *testing.T) {
	fns, want, err := analysistest.LoadOIR(testfsys, "testdata/scenarios.oir")
	require.NoError(t, err)
	require.NotEmpty(t, want)
	for _, pathSensitive := range []bool{false, true} {
		c := config.NewDefault()
		c.Traversal.PathSensitive = pathSensitive
		a := ownership.NewAnalyzer(c, nil)
		results, err := a.AnalyzeProgram(fns)
		require.NoError(t, err)
		require.Len(t, results, len(fns))
		for _, res := range results {
			assert.Empty(t, res.Warnings, "%s", res.Function)
		}
		analysistest.Check(t, want, found(results))
	}
}

func TestCollectorDeduplicates(t *testing.T) {
	fns, _, err := analysistest.LoadOIR(testfsys, "testdata/scenarios.oir")
	require.NoError(t, err)
	collector := ownership.NewCollector(0)
	c := config.NewDefault()
	c.Traversal.PathSensitive = true
	a := ownership.NewAnalyzer(c, collector)
	_, err = a.AnalyzeProgram(fns)
	require.NoError(t, err)
	_, err = a.AnalyzeProgram(fns)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, v := range collector.Violations() {
		k := v.Function + " " + v.Location.String() + " " + v.Kind.String() + " " + string(v.Identifier)
		assert.False(t, seen[k], "duplicate %s", k)
		seen[k] = true
	}
	assert.Len(t, collector.Violations(), 11)
	assert.Equal(t, 0, collector.Dropped())
}

func TestCollectorMaxAlarms(t *testing.T) {
	collector := ownership.NewCollector(2)
	for i := 0; i < 4; i++ {
		collector.Report(ownership.Violation{Function: "f", Identifier: "x", Location: cfg.Location{Block: cfg.BlockID(i)}})
	}
	collector.Report(ownership.Violation{Function: "f", Identifier: "x", Location: cfg.Location{Block: 0}})
	assert.Len(t, collector.Violations(), 2)
	assert.Equal(t, 2, collector.Dropped())

	var zero ownership.Collector
	zero.Report(ownership.Violation{Function: "g"})
	assert.Len(t, zero.Violations(), 1)
}

func TestCollectorIgnoreBeforeMaxAlarms(t *testing.T) {
	collector := ownership.NewCollector(1)
	collector.Ignore = func(v ownership.Violation) bool { return v.Identifier == "x" }
	collector.Report(ownership.Violation{Function: "f", Identifier: "x"})
	collector.Report(ownership.Violation{Function: "f", Identifier: "x"})
	collector.Report(ownership.Violation{Function: "f", Identifier: "y"})
	require.Len(t, collector.Violations(), 1)
	assert.EqualValues(t, "y", collector.Violations()[0].Identifier)
	assert.Equal(t, 1, collector.Ignored())
	assert.Equal(t, 0, collector.Dropped())
}

func TestInvalidFunction(t *testing.T) {
	a := ownership.NewAnalyzer(nil, nil)
	_, err := a.AnalyzeFunction(&cfg.Function{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid function")

	bad := &cfg.Function{Name: "bad", Blocks: []*cfg.Block{
		{ID: 0, Terminator: cfg.Terminator{Kind: cfg.Goto, Targets: []cfg.BlockID{3}}},
	}}
	_, err = a.AnalyzeFunction(bad)
	assert.ErrorContains(t, err, "unknown block 3")
}

type panickingReporter struct{}

func (panickingReporter) Report(ownership.Violation) { panic("reporter failure") }

func TestAnalyzeProgramRecoversPanics(t *testing.T) {
	fns, _, err := analysistest.LoadOIR(testfsys, "testdata/scenarios.oir")
	require.NoError(t, err)
	c := config.NewDefault()
	c.LogLevel = int(config.ErrLevel)
	a := ownership.NewAnalyzer(c, panickingReporter{})
	a.Logger.SetAllOutput(&strings.Builder{})
	results, err := a.AnalyzeProgram(fns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Contains(t, err.Error(), "scenarios::alias_release")
	assert.NotContains(t, err.Error(), "scenarios::reassign_restores")
	require.Len(t, results, len(fns))
	assert.Equal(t, "scenarios::reassign_restores", results[1].Function)
	assert.Greater(t, results[1].Stats.Admitted, 0)
}

func TestFunctionResultShapeAndStats(t *testing.T) {
	fns, _, err := analysistest.LoadOIR(testfsys, "testdata/scenarios.oir")
	require.NoError(t, err)
	var revisit *cfg.Function
	for _, fn := range fns {
		if fn.Name == "scenarios::revisit" {
			revisit = fn
		}
	}
	require.NotNil(t, revisit)

	c := config.NewDefault()
	c.Traversal.PathSensitive = true
	res, err := ownership.NewAnalyzer(c, nil).AnalyzeFunction(revisit)
	require.NoError(t, err)
	assert.Empty(t, res.Violations)
	assert.False(t, res.Shape.Acyclic)
	assert.Equal(t, 4, res.Shape.Blocks)
	assert.Greater(t, res.Stats.SkippedDuplicate, 0)
	assert.LessOrEqual(t, res.Stats.Admitted, 4*c.Traversal.MaxVisitsPerBlock)
}
