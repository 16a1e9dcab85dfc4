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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hooyq/taint-ana/analysis"
	"github.com/hooyq/taint-ana/cmd/ownercheck/check"
	"github.com/hooyq/taint-ana/cmd/ownercheck/render"
	"github.com/hooyq/taint-ana/cmd/ownercheck/statistics"
	"github.com/hooyq/taint-ana/cmd/ownercheck/tools"
)

const usage = `ownercheck: use-after-release and double-release checker
Usage:
  ownercheck [tool] [options] <Go package path(s) | file.oir...>
Tools:
  - check: reports uses of released values and values released twice
  - render: prints the lowered functions, or writes their control-flow graphs in .dot files
  - statistics: prints statistics about the lowered control-flow graphs
Examples:
  Run the analysis: ownercheck check -config config.yaml ./...
  Run the path-sensitive analysis on textual IR: ownercheck check -path-sensitive scenarios.oir`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "check":
		flags, err := check.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := check.Run(flags); err != nil {
			if errors.Is(err, check.ErrViolations) {
				os.Exit(1)
			}
			errExit(err)
		}
	case "render":
		flags, err := render.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := render.Run(flags); err != nil {
			errExit(err)
		}
	case "statistics":
		flags, err := statistics.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := statistics.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
