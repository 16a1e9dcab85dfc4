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
	"go/token"

	"github.com/hooyq/taint-ana/analysis/annotations"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/ownership"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"
)

var configFile string

// Analyzer reports the use-after-release and double-release violations in the functions of a package. The release,
// escape and source functions are read from the file given by the -config flag, or are the default ones, and are
// completed by the ownercheck annotations of the package.
var Analyzer = &analysis.Analyzer{
	Name:     "ownercheck",
	Doc:      "reports uses of released values and values released twice",
	URL:      "https://github.com/hooyq/taint-ana",
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
	Run:      run,
}

func init() {
	Analyzer.Flags.StringVar(&configFile, "config", "", "ownership config file")
}

func run(pass *analysis.Pass) (any, error) {
	c := config.NewDefault()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		c = loaded
	}
	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	logger := config.NewLogGroup(c)
	annots, err := annotations.LoadAnnotations(logger, []*ssa.Package{ssaInput.Pkg})
	if err != nil {
		return nil, err
	}
	annots.CompleteFromFiles(logger, pass.Fset, pass.Files)
	if err := annots.Apply(c); err != nil {
		return nil, err
	}
	fns, err := LowerAll(ssaInput.SrcFuncs, logger)
	if err != nil {
		logger.Warnf("%v", err)
	}
	annots.TagParameters(fns)
	collector := ownership.NewCollector(c.MaxAlarms)
	a := ownership.NewAnalyzer(c, collector)
	if _, err := a.AnalyzeProgram(fns); err != nil {
		return nil, fmt.Errorf("ownership analysis failed: %w", err)
	}
	for _, v := range collector.Violations() {
		pass.Reportf(toPos(pass, v.Pos), "%s of %s", v.Kind, v.Identifier)
	}
	return nil, nil
}

// toPos returns the position of p in the files of the pass, or NoPos when p is in none of them
func toPos(pass *analysis.Pass, p token.Position) token.Pos {
	if !p.IsValid() {
		return token.NoPos
	}
	for _, f := range pass.Files {
		tf := pass.Fset.File(f.Pos())
		if tf != nil && tf.Name() == p.Filename && p.Offset <= tf.Size() {
			return tf.Pos(p.Offset)
		}
	}
	return token.NoPos
}
