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
	"errors"
	"fmt"
	"sort"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// SourceFunctions returns the functions of prog that have a body, belong to one of pkgs and match the package
// filter of c. Synthetic functions (wrappers, thunks, instances) are not returned. The functions are sorted by
// position.
func SourceFunctions(prog *ssa.Program, pkgs []*ssa.Package, c *config.Config) []*ssa.Function {
	inPkgs := make(map[*ssa.Package]bool, len(pkgs))
	for _, p := range pkgs {
		if p != nil {
			inPkgs[p] = true
		}
	}
	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Synthetic != "" || len(fn.Blocks) == 0 || fn.Pkg == nil || !inPkgs[fn.Pkg] {
			continue
		}
		if c != nil && !c.MatchPkgFilter(fn.Pkg.Pkg.Path()) {
			continue
		}
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool {
		pi, pj := prog.Fset.Position(fns[i].Pos()), prog.Fset.Position(fns[j].Pos())
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Offset != pj.Offset {
			return pi.Offset < pj.Offset
		}
		return fns[i].String() < fns[j].String()
	})
	return fns
}

// LowerAll lowers every function. Functions that cannot be lowered are skipped and their errors are joined in the
// returned error.
func LowerAll(fns []*ssa.Function, logger *config.LogGroup) ([]*cfg.Function, error) {
	res := make([]*cfg.Function, 0, len(fns))
	var errs []error
	for _, fn := range fns {
		f, err := Lower(fn)
		if err != nil {
			errs = append(errs, fmt.Errorf("could not lower %s: %w", fn, err))
			continue
		}
		if logger != nil {
			logger.Tracef("Lowered %s: %d blocks\n", fn, len(f.Blocks))
		}
		res = append(res, f)
	}
	return res, errors.Join(errs...)
}
