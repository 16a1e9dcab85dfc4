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
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hooyq/taint-ana/analysis/binding"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/traversal"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"github.com/hooyq/taint-ana/internal/graphutil"
)

// Analyzer checks functions for use-after-release and double-release violations.
type Analyzer struct {
	Config *config.Config
	Logger *config.LogGroup
	// Reporter receives every violation found, if it is not nil
	Reporter Reporter
}

// NewAnalyzer returns an analyzer with the given configuration. A nil config is replaced by the default config.
func NewAnalyzer(c *config.Config, reporter Reporter) *Analyzer {
	if c == nil {
		c = config.NewDefault()
	}
	return &Analyzer{Config: c, Logger: config.NewLogGroup(c), Reporter: reporter}
}

// FunctionResult is the result of the analysis of one function
type FunctionResult struct {
	Function   string
	Stats      traversal.Stats
	Shape      graphutil.CFGShape
	Violations []Violation
	// Warnings are the recoverable errors encountered during the analysis, e.g. failed binds
	Warnings []error
	Duration time.Duration
}

// InitialBindings returns the binding manager at the entry of fn: every extern is registered with its tag.
func InitialBindings(fn *cfg.Function) *binding.Manager {
	m := binding.NewManager()
	for _, ext := range fn.Externs {
		tag := funcutil.None[binding.Source]()
		if ext.Tag != "" {
			tag = funcutil.Some(binding.Source(ext.Tag))
		}
		m.Register(binding.Identifier(ext.Name), tag)
	}
	return m
}

// AnalyzeFunction explores the paths of fn and returns the violations found. An error is returned if the function
// is malformed, or if the analysis panicked; the result then contains what was found before the failure.
func (a *Analyzer) AnalyzeFunction(fn *cfg.Function) (result FunctionResult, err error) {
	result.Function = fn.Name
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis of %s panicked: %v", fn.Name, r)
			a.Logger.Errorf("%v", err)
			a.Logger.Debugf("%s", debug.Stack())
		}
	}()

	if err := fn.Validate(); err != nil {
		return result, fmt.Errorf("invalid function: %w", err)
	}
	a.Logger.Debugf("Analyzing %s\n", fn.Name)

	result.Shape = graphutil.Shape(fn)
	a.Logger.Debugf("%s: %s\n", fn.Name, result.Shape)
	opts := traversal.OptionsFromConfig(a.Config.Traversal)
	if !opts.PathSensitive && !result.Shape.Acyclic {
		a.Logger.Debugf("%s: cyclic CFG with baseline traversal, each block is only visited once\n", fn.Name)
	}
	if n := len(result.Shape.Unreachable); n > 0 {
		a.Logger.Debugf("%s: %d blocks unreachable from entry\n", fn.Name, n)
	}

	report := func(v Violation) {
		result.Violations = append(result.Violations, v)
		if a.Reporter != nil {
			a.Reporter.Report(v)
		}
	}
	c := newClassifier(fn, a.Config, a.Logger, report)
	result.Stats = traversal.Run(fn, InitialBindings(fn), opts, func(f traversal.Frame[*binding.Manager]) {
		c.visitBlock(fn.Block(f.Block), f.State, f.Path)
	})
	result.Warnings = c.warnings

	a.Logger.Debugf("Finished %s: %d violations, %s\n", fn.Name, len(result.Violations), result.Stats)
	return result, nil
}

// AnalyzeProgram analyzes every function. The failure of a function does not prevent the analysis of the others;
// the errors of all failed functions are joined in the returned error.
func (a *Analyzer) AnalyzeProgram(fns []*cfg.Function) ([]FunctionResult, error) {
	results := make([]FunctionResult, 0, len(fns))
	var errs []error
	for _, fn := range fns {
		res, err := a.AnalyzeFunction(fn)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", fn.Name, err))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
