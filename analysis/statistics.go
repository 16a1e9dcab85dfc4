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

package analysis

import (
	"sort"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/internal/graphutil"
)

// FunctionStatistics describes a single lowered function.
type FunctionStatistics struct {
	Name       string
	Shape      graphutil.CFGShape
	Statements int
	Calls      int
	// Releases counts the drops and the calls to release functions
	Releases int
}

// Statistics summarizes a lowered program.
type Statistics struct {
	NumberOfFunctions         uint
	NumberOfBlocks            uint
	NumberOfStatements        uint
	NumberOfCalls             uint
	NumberOfReleases          uint
	NumberOfCyclicFunctions   uint
	NumberOfUnreachableBlocks uint
	// Functions are sorted by decreasing number of blocks
	Functions []FunctionStatistics
}

// ProgramStatistics returns the statistics of the functions. The release patterns of c decide which calls are
// counted as releases.
func ProgramStatistics(fns []*cfg.Function, c *config.Config) Statistics {
	var result Statistics
	for _, fn := range fns {
		fs := FunctionStatistics{Name: fn.Name, Shape: graphutil.Shape(fn)}
		for _, b := range fn.Blocks {
			fs.Statements += len(b.Statements) + 1
			for _, s := range b.Statements {
				if s.Kind == cfg.CallStmt && s.Call != nil {
					fs.Calls++
					if c.IsRelease(s.Call.Callee) {
						fs.Releases++
					}
				}
			}
			switch b.Terminator.Kind {
			case cfg.Drop:
				fs.Releases++
			case cfg.CallTerm:
				fs.Calls++
				if b.Terminator.Call != nil && c.IsRelease(b.Terminator.Call.Callee) {
					fs.Releases++
				}
			}
		}
		result.NumberOfFunctions++
		result.NumberOfBlocks += uint(fs.Shape.Blocks)
		result.NumberOfStatements += uint(fs.Statements)
		result.NumberOfCalls += uint(fs.Calls)
		result.NumberOfReleases += uint(fs.Releases)
		result.NumberOfUnreachableBlocks += uint(len(fs.Shape.Unreachable))
		if !fs.Shape.Acyclic {
			result.NumberOfCyclicFunctions++
		}
		result.Functions = append(result.Functions, fs)
	}
	sort.SliceStable(result.Functions, func(i, j int) bool {
		return result.Functions[i].Shape.Blocks > result.Functions[j].Shape.Blocks
	})
	return result
}
