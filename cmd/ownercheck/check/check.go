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

// Package check implements the front-end of the use-after-release and double-release analysis.
package check

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
	"time"

	"github.com/hooyq/taint-ana/analysis"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/analysis/ownership"
	"github.com/hooyq/taint-ana/analysis/refactor"
	"github.com/hooyq/taint-ana/cmd/ownercheck/tools"
	"github.com/hooyq/taint-ana/internal/formatutil"
)

// Usage of the check sub-command
const Usage = ` Find uses of released values and values released twice.
Usage:
  ownercheck check [options] <package path(s) | file.oir...>
Examples:
  % ownercheck check -config config.yaml ./...
  % ownercheck check -path-sensitive -k 3 scenarios.oir
  % ownercheck check -suppress ./...
`

// ErrViolations is returned by Run when violations are reported
var ErrViolations = errors.New("violations found")

// ErrAnalysisFailed is wrapped in the error returned by Run when some functions could not be analyzed
var ErrAnalysisFailed = errors.New("analysis failed")

// Flags represents the parsed flags for the check sub-command.
type Flags struct {
	tools.CommonFlags
	pathSensitive bool
	contextDepth  int
	maxVisits     int
	maxAlarms     int
	paths         bool
	stats         bool
	suppress      bool
}

// NewFlags returns the parsed flags for the check sub-command with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("check")
	pathSensitive := flags.FlagSet.Bool("path-sensitive", false, "admit a block once per context of predecessors")
	contextDepth := flags.FlagSet.Int("k", -1, "number of predecessors in the visit context (overrides config)")
	maxVisits := flags.FlagSet.Int("max-visits", -1, "maximum number of visits of a block (overrides config)")
	maxAlarms := flags.FlagSet.Int("cap", -1, "maximum number of reported violations (overrides config)")
	paths := flags.FlagSet.Bool("paths", false, "print the block path of each violation")
	stats := flags.FlagSet.Bool("stats", false, "print the traversal statistics of each function")
	suppress := flags.FlagSet.Bool("suppress", false, "insert ignore directives above the reported violations")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{
		CommonFlags:   common,
		pathSensitive: *pathSensitive,
		contextDepth:  *contextDepth,
		maxVisits:     *maxVisits,
		maxAlarms:     *maxAlarms,
		paths:         *paths,
		stats:         *stats,
		suppress:      *suppress,
	}, nil
}

// apply overrides the config parameters with the command-line parameters
func (f Flags) apply(c *config.Config) {
	if f.Verbose {
		c.LogLevel = int(config.DebugLevel)
	}
	if f.pathSensitive {
		c.Traversal.PathSensitive = true
	}
	if f.contextDepth >= 0 {
		c.Traversal.ContextDepth = f.contextDepth
	}
	if f.maxVisits > 0 {
		c.Traversal.MaxVisitsPerBlock = f.maxVisits
	}
	if f.maxAlarms >= 0 {
		c.MaxAlarms = f.maxAlarms
	}
	if f.paths {
		c.ReportPaths = true
	}
}

// Run runs the analysis with flags. It returns ErrViolations when at least one violation is reported.
func Run(flags Flags) error {
	c, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.apply(c)
	logger := config.NewLogGroup(c)

	logger.Infof("%s", formatutil.Faint("ownercheck - "+analysis.Version))
	logger.Infof("%s", formatutil.Faint("Reading sources"))
	input, err := tools.LoadInput(flags.CommonFlags, c)
	if err != nil {
		return err
	}
	if input.Warnings != nil {
		logger.Warnf("some functions are not analyzed: %v", input.Warnings)
	}

	_, err = analyze(logger, c, flags, input)
	return err
}

// analyze runs the analysis on the loaded input and reports the violations that are not ignored by a directive.
// Ignored violations do not count against max-alarms. It returns an error wrapping ErrAnalysisFailed when some
// function could not be analyzed, and ErrViolations when violations are reported. The reported violations are
// returned in every case.
func analyze(logger *config.LogGroup, c *config.Config, flags Flags, input tools.Input) ([]ownership.Violation, error) {
	collector := ownership.NewCollector(c.MaxAlarms)
	collector.Ignore = func(v ownership.Violation) bool { return input.Directives.IsIgnored(v.Pos) }
	analyzer := ownership.NewAnalyzer(c, collector)
	start := time.Now()
	results, err := analyzer.AnalyzeProgram(input.Functions)
	duration := time.Since(start)
	var failed error
	if err != nil {
		logger.Errorf("analysis failed for some functions: %v", err)
		failed = fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if flags.stats {
		for _, r := range results {
			logger.Infof("%s: %s; %s", r.Function, r.Shape, r.Stats)
		}
	}

	reported := collector.Violations()
	logger.Infof("")
	logger.Infof("%s", strings.Repeat("*", 80))
	logger.Infof("Analyzed %d functions in %3.4f s", len(input.Functions), duration.Seconds())
	if n := collector.Ignored(); n > 0 {
		logger.Infof("%d violations ignored by directives", n)
	}
	if n := collector.Dropped(); n > 0 {
		logger.Warnf("%d violations not reported (max-alarms is %d)", n, c.MaxAlarms)
	}
	if len(reported) == 0 {
		if failed != nil {
			logger.Errorf("RESULT:\n\t\t%s", formatutil.Red("No violations detected, but some functions were not analyzed")) // safe %s
			return nil, failed
		}
		logger.Infof("RESULT:\n\t\t%s", formatutil.Green("No violations detected ✓")) // safe %s
		return nil, nil
	}
	logger.Errorf("RESULT:\n\t\t%s", formatutil.Red(fmt.Sprintf("%d violations detected!", len(reported)))) // safe %s
	Report(logger, reported, c.ReportPaths)
	if flags.suppress {
		if err := suppress(logger, flags, reported); err != nil {
			return reported, err
		}
		return reported, failed
	}
	if failed != nil {
		return reported, failed
	}
	return reported, ErrViolations
}

// suppress records the reported violations as ignore directives in the source files. The violations are then
// considered handled and no error is returned.
func suppress(logger *config.LogGroup, flags Flags, violations []ownership.Violation) error {
	args := flags.FlagSet.Args()
	if tools.IsTextualIR(args) {
		return fmt.Errorf("-suppress only applies to Go packages")
	}
	positions := make([]token.Position, 0, len(violations))
	for _, v := range violations {
		positions = append(positions, v.Pos)
	}
	res, err := refactor.Suppress(tools.PackagesConfig(flags.CommonFlags), args, positions)
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		logger.Infof("Modified %s", f)
	}
	for _, pos := range res.Unmatched {
		logger.Warnf("no statement starts at %s, violation not suppressed", pos)
	}
	logger.Infof("Inserted %d ignore directives", res.Inserted)
	if len(res.Unmatched) > 0 {
		return ErrViolations
	}
	return nil
}

// Report logs the violations
func Report(logger *config.LogGroup, violations []ownership.Violation, withPaths bool) {
	for _, v := range violations {
		logger.Warnf("%s", FormatViolation(v, withPaths))
	}
}

// FormatViolation renders a violation on several lines: the kind and function, the position, the event and the
// binding group, and the path when withPaths is set.
func FormatViolation(v ownership.Violation, withPaths bool) string {
	var b strings.Builder
	title := formatutil.Red(strings.ToUpper(v.Kind.String()))
	fmt.Fprintf(&b, "[%s] %s of %s in %s\n", title, v.Kind, formatutil.Sanitize(string(v.Identifier)),
		formatutil.Sanitize(v.Function))
	if v.Pos.IsValid() {
		fmt.Fprintf(&b, "\t[POSITION] %s\n", v.Pos) // safe %s (position string)
	}
	fmt.Fprintf(&b, "\t[EVENT] %s: %s\n", v.Location, formatutil.Sanitize(v.Event))
	if len(v.Members) > 0 {
		members := make([]string, len(v.Members))
		for i, m := range v.Members {
			members[i] = string(m)
		}
		fmt.Fprintf(&b, "\t[GROUP] %s {%s}\n", formatutil.Sanitize(string(v.Root)), formatutil.JoinSanitized(members, ", "))
	}
	if v.Tag.IsSome() {
		fmt.Fprintf(&b, "\t[SOURCE] %s\n", formatutil.Sanitize(string(v.Tag.Value())))
	}
	if v.FirstRelease.IsSome() {
		fmt.Fprintf(&b, "\t[FIRST RELEASE] %s\n", v.FirstRelease.Value())
	}
	if withPaths && len(v.Path) > 0 {
		fmt.Fprintf(&b, "\t[PATH] %s\n", v.PathString())
	}
	return b.String()
}
