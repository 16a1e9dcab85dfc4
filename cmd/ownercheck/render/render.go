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

// Package render implements a tool for rendering the control-flow graphs analyzed by ownercheck.
// -ir prints the lowered functions on the standard output.
// -dotout Given a path for a folder, writes the control-flow graph of each function in a .dot file of that folder.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/cmd/ownercheck/tools"
	"github.com/hooyq/taint-ana/internal/formatutil"
	"github.com/hooyq/taint-ana/internal/graphutil"
)

// Usage of the render sub-command
const Usage = `Render the lowered control-flow graphs of your packages.
Usage:
  ownercheck render [options] <package path(s) | file.oir...>
Examples:
Print the lowered functions
  % ownercheck render -ir package...
Write one .dot file per function in the folder cfgs
  % ownercheck render -dotout cfgs package...
`

// Flags represents the parsed render sub-command flags.
type Flags struct {
	tools.CommonFlags
	ir     bool
	dotOut string
}

// NewFlags returns the parsed render sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("render")
	ir := flags.FlagSet.Bool("ir", false, "print the lowered functions")
	dotOut := flags.FlagSet.String("dotout", "", "output folder for the .dot files (no output if not specified)")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, ir: *ir, dotOut: *dotOut}, nil
}

// Run runs the render tool with flags.
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
	if input.Warnings != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", formatutil.Yellow("[WARNING]"), input.Warnings)
	}

	if flags.ir || flags.dotOut == "" {
		for _, fn := range input.Functions {
			WriteFunction(os.Stdout, fn)
		}
	}
	if flags.dotOut != "" {
		if err := os.MkdirAll(flags.dotOut, 0o750); err != nil {
			return fmt.Errorf("could not create output folder: %v", err)
		}
		for _, fn := range input.Functions {
			b, err := graphutil.MarshalDOT(fn)
			if err != nil {
				return fmt.Errorf("could not render %s: %v", fn.Name, err)
			}
			name := filepath.Join(flags.dotOut, tools.FileName(fn.Name)+".dot")
			if err := os.WriteFile(name, b, 0o600); err != nil {
				return fmt.Errorf("could not write %s: %v", name, err)
			}
		}
		fmt.Fprintf(os.Stderr, "%d graphs written in %s\n", len(input.Functions), flags.dotOut)
	}
	return nil
}

// WriteFunction writes fn in a syntax close to the textual IR: externs first, then each block with its statements
// and its terminator.
func WriteFunction(w io.Writer, fn *cfg.Function) {
	fmt.Fprintf(w, "fn %s {\n", fn.Name)
	for _, e := range fn.Externs {
		if e.Tag != "" {
			fmt.Fprintf(w, "    ext %s %q;\n", e.Name, e.Tag)
		} else {
			fmt.Fprintf(w, "    ext %s;\n", e.Name)
		}
	}
	for _, b := range fn.Blocks {
		fmt.Fprintf(w, "    %s: {\n", b.Name())
		for i := 0; i <= len(b.Statements); i++ {
			line := fn.At(cfg.Location{Block: b.ID, Index: i})
			fmt.Fprintf(w, "        %s;\n", strings.TrimSpace(line))
		}
		fmt.Fprintln(w, "    }")
	}
	fmt.Fprintln(w, "}")
}
