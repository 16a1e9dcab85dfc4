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

// Package statistics implements the front-end for the control-flow graph statistics.
package statistics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hooyq/taint-ana/analysis"
	"github.com/hooyq/taint-ana/cmd/ownercheck/tools"
	"github.com/hooyq/taint-ana/internal/formatutil"
)

// Usage of the statistics sub-command
const Usage = `Compute statistics about the lowered control-flow graphs of a program.

Usage:
  ownercheck statistics package...
  ownercheck statistics source.go
  ownercheck statistics -top 20 scenarios.oir

Use the -help flag to display the options.

Examples:
% ownercheck statistics hello.go
`

// Flags represents the flags for the statistics sub-tool.
type Flags struct {
	tools.CommonFlags
	outputJSON bool
	top        int
}

// NewFlags returns parsed flags for statistics.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("statistics")
	outputJSON := flags.FlagSet.Bool("json", false, "output results as JSON")
	top := flags.FlagSet.Int("top", 10, "number of largest functions to print")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, outputJSON: *outputJSON, top: *top}, nil
}

// Run computes the statistics of the program in flags' arguments.
func Run(flags Flags) error {
	c, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, formatutil.Faint("Reading sources"))
	input, err := tools.LoadInput(flags.CommonFlags, c)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, formatutil.Faint("Analyzing"))
	result := analysis.ProgramStatistics(input.Functions, c)
	if flags.outputJSON {
		buf, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Println(string(buf))
		return nil
	}
	Print(os.Stdout, result, flags.top)
	return nil
}

// Print writes the statistics and the top largest functions to w
func Print(w io.Writer, result analysis.Statistics, top int) {
	fmt.Fprintf(w, "Number of functions: %d\n", result.NumberOfFunctions)
	fmt.Fprintf(w, "Number of blocks: %d\n", result.NumberOfBlocks)
	fmt.Fprintf(w, "Number of statements: %d\n", result.NumberOfStatements)
	fmt.Fprintf(w, "Number of calls: %d\n", result.NumberOfCalls)
	fmt.Fprintf(w, "Number of releases: %d\n", result.NumberOfReleases)
	fmt.Fprintf(w, "Number of cyclic functions: %d\n", result.NumberOfCyclicFunctions)
	fmt.Fprintf(w, "Number of unreachable blocks: %d\n", result.NumberOfUnreachableBlocks)
	for i, f := range result.Functions {
		if i >= top {
			break
		}
		fmt.Fprintf(w, "  %s: %s\n", formatutil.Sanitize(f.Name), f.Shape)
	}
}
