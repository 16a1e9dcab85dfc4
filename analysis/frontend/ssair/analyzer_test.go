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

package ssair_test

import (
	"fmt"
	"testing"

	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/frontend/ssair"
	"github.com/hooyq/taint-ana/analysis/ownership"
	ownertest "github.com/hooyq/taint-ana/internal/analysistest"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), ssair.Analyzer, "closer")
}

func TestAnnotatedProgram(t *testing.T) {
	lp, want := ownertest.LoadGo(t, "testdata/annotated", "main.go")
	for _, pathSensitive := range []bool{false, true} {
		t.Run(fmt.Sprintf("path-sensitive=%v", pathSensitive), func(t *testing.T) {
			c := config.NewDefault()
			c.Traversal.PathSensitive = pathSensitive
			fns, err := ssair.LowerAll(ssair.SourceFunctions(lp.Program, lp.SSAPackages, c), nil)
			require.NoError(t, err)
			require.NotEmpty(t, fns)

			collector := ownership.NewCollector(0)
			_, err = ownership.NewAnalyzer(c, collector).AnalyzeProgram(fns)
			require.NoError(t, err)

			got := map[ownertest.Expectation]bool{}
			ignored := 0
			for _, v := range collector.Violations() {
				if lp.Directives.IsIgnored(v.Pos) {
					ignored++
					continue
				}
				got[ownertest.Expectation{
					Pos:  ownertest.NewLPos(v.Pos),
					Kind: ownertest.AnnotationName(v.Kind.String()),
				}] = true
			}
			ownertest.Check(t, want, got)
			require.Greater(t, ignored, 0, "the violation of ignored() should be reported and then ignored")
		})
	}
}
