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

// Package tools contains utility types and functions for the ownercheck sub-commands.
package tools

import (
	"flag"
	"fmt"
	"go/build"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/hooyq/taint-ana/analysis"
	"github.com/hooyq/taint-ana/analysis/annotations"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/frontend/ssair"
	"github.com/hooyq/taint-ana/analysis/frontend/textir"
	"golang.org/x/tools/go/buildutil"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath *string
	Verbose    *bool
	WithTest   *bool
	Exclude    *ExcludePaths
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config,
// -verbose, -with-test, -exclude and -build-tags but need other flags in addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path for analysis")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	withTest := cmd.Bool("with-test", false, "load tests during analysis")
	exclude := &ExcludePaths{}
	cmd.Var(exclude, "exclude", "files or directories to exclude from the analysis")
	cmd.Var((*buildutil.TagsFlag)(&build.Default.BuildTags), "build-tags", buildutil.TagsFlagDoc)
	return UnparsedCommonFlags{
		FlagSet:    cmd,
		ConfigPath: configPath,
		Verbose:    verbose,
		WithTest:   withTest,
		Exclude:    exclude,
	}
}

// CommonFlags represents a parsed CLI sub-command flags.
// E.g., for the command `ownercheck check ...`, "check" is the sub-command.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	Verbose    bool
	WithTest   bool
	Exclude    []string
}

// Parse parses args and returns the common flags.
func (f UnparsedCommonFlags) Parse(args []string) (CommonFlags, error) {
	if err := f.FlagSet.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %v", f.FlagSet.Name(), args, err)
	}
	return CommonFlags{
		FlagSet:    f.FlagSet,
		ConfigPath: *f.ConfigPath,
		Verbose:    *f.Verbose,
		WithTest:   *f.WithTest,
		Exclude:    *f.Exclude,
	}, nil
}

// NewCommonFlags returns a parsed flag set with a given name.
// Returns an error if args are invalid.
// Prints cmdUsage along with flag docs as the --help message.
func NewCommonFlags(name string, args []string, cmdUsage string) (CommonFlags, error) {
	flags := NewUnparsedCommonFlags(name)
	SetUsage(flags.FlagSet, cmdUsage)
	return flags.Parse(args)
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// ExcludePaths represents filepaths to exclude.
type ExcludePaths []string

func (e *ExcludePaths) String() string {
	if e == nil {
		return "[]"
	}
	return fmt.Sprintf("%v", []string(*e))
}

// Set adds value to e.
// This method satisfies the flag.Value interface.
func (e *ExcludePaths) Set(value string) error {
	*e = append(*e, value)
	return nil
}

// LoadConfig loads the config file from configPath. The default config is returned when configPath is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.NewDefault(), nil
	}
	c, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
	}
	return c, nil
}

// Input is the program to analyze, lowered to the control-flow graph model.
type Input struct {
	Functions []*cfg.Function
	// Directives are the comment directives of the Go sources; they are empty for textual IR inputs
	Directives analysis.Directives
	// Warnings are the functions that could not be lowered
	Warnings error
}

// IsTextualIR returns true when every argument is a textual IR file
func IsTextualIR(args []string) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		if filepath.Ext(a) != ".oir" {
			return false
		}
	}
	return true
}

// LoadInput parses the textual IR files in args, or loads the Go packages in args and lowers their functions. The
// annotations of the Go packages are applied to c. Functions defined in excluded files are dropped.
func LoadInput(flags CommonFlags, c *config.Config) (Input, error) {
	args := flags.FlagSet.Args()
	exclude := analysis.MakeAbsolute(flags.Exclude)
	var input Input
	if IsTextualIR(args) {
		for _, a := range args {
			fns, err := textir.ParseFile(a)
			if err != nil {
				return Input{}, err
			}
			input.Functions = append(input.Functions, fns...)
		}
	} else {
		pcfg := PackagesConfig(flags)
		pcfg.Fset = token.NewFileSet()
		lp, err := analysis.LoadProgram(pcfg, "", ssa.InstantiateGenerics, args)
		if err != nil {
			return Input{}, fmt.Errorf("could not load program: %v", err)
		}
		logger := config.NewLogGroup(c)
		annots, err := annotations.LoadAnnotations(logger, lp.SSAPackages)
		if err != nil {
			return Input{}, fmt.Errorf("could not load annotations: %v", err)
		}
		for _, pkg := range lp.Packages {
			annots.CompleteFromSyntax(logger, pkg)
		}
		if err := annots.Apply(c); err != nil {
			return Input{}, err
		}
		fns := ssair.SourceFunctions(lp.Program, lp.SSAPackages, c)
		input.Functions, input.Warnings = ssair.LowerAll(fns, logger)
		annots.TagParameters(input.Functions)
		input.Directives = lp.Directives
	}
	if len(exclude) > 0 {
		kept := input.Functions[:0]
		for _, fn := range input.Functions {
			pos := fn.Pos
			if abs, err := filepath.Abs(pos.Filename); err == nil && pos.Filename != "" {
				pos.Filename = abs
			}
			if !analysis.IsExcluded(pos, exclude) {
				kept = append(kept, fn)
			}
		}
		input.Functions = kept
	}
	return input, nil
}

// PackagesConfig returns the configuration used to load Go packages, honoring -with-test and -build-tags.
func PackagesConfig(flags CommonFlags) *packages.Config {
	pcfg := &packages.Config{
		Mode:  analysis.PkgLoadMode,
		Tests: flags.WithTest,
	}
	if len(build.Default.BuildTags) > 0 {
		pcfg.BuildFlags = []string{"-tags=" + strings.Join(build.Default.BuildTags, ",")}
	}
	return pcfg
}

// FileName returns a file name derived from the function name, usable on any platform
func FileName(fn string) string {
	r := strings.NewReplacer("/", "_", "::", ".", "*", "", "(", "", ")", "", " ", "_")
	return r.Replace(fn)
}
