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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"gopkg.in/yaml.v3"
)

// Config contains the options of the tool and the name patterns that drive the ownership analysis.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it keeps the value set by NewDefault.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// Traversal controls how the control-flow graph of each function is explored
	Traversal TraversalSpec `yaml:"traversal"`

	// Ownership lists the functions with ownership semantics
	Ownership OwnershipSpec `yaml:"ownership"`
}

// Options are the general options of the tool
type Options struct {
	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// MaxAlarms sets a limit for the number of violations reported. If MaxAlarms > 0, then at most MaxAlarms will
	// be reported. Otherwise, if MaxAlarms <= 0, it is ignored.
	MaxAlarms int `yaml:"max-alarms"`

	// ReportPaths specifies whether the explored block path leading to a violation is printed with it
	ReportPaths bool `yaml:"report-paths"`

	// PkgFilter restricts the Go front end to the functions whose package matches the filter
	PkgFilter string `yaml:"pkg-filter"`
}

// TraversalSpec configures the exploration of control-flow paths
type TraversalSpec struct {
	// PathSensitive enables the visit admission keyed by a block and its last ContextDepth predecessors. When false,
	// every block is visited at most once per function.
	PathSensitive bool `yaml:"path-sensitive"`

	// ContextDepth is the number of predecessor blocks kept in the visit key in path-sensitive mode
	ContextDepth int `yaml:"context-depth"`

	// MaxVisitsPerBlock bounds the number of visits of a single block in path-sensitive mode
	MaxVisitsPerBlock int `yaml:"max-visits-per-block"`
}

// OwnershipSpec contains the code identifiers of the functions with ownership semantics
type OwnershipSpec struct {
	// ReturnPlace is the variable read by return terminators. Empty disables the check.
	ReturnPlace string `yaml:"return-place"`

	// EscapeFunctions return a value that aliases their first argument (raw pointers, views)
	EscapeFunctions []CodeIdentifier `yaml:"escape-functions"`

	// ReleaseFunctions release their first argument
	ReleaseFunctions []CodeIdentifier `yaml:"release-functions"`

	// SourceFunctions return values coming from outside the analyzed function. Their result is tagged with the
	// callee's name.
	SourceFunctions []CodeIdentifier `yaml:"source-functions"`
}

// NewDefault returns the default config. The escape and release functions are those of the standard libraries of
// languages with explicit ownership, plus the usual Go resource release methods.
func NewDefault() *Config {
	c := &Config{
		Options: Options{
			LogLevel:    int(InfoLevel),
			MaxAlarms:   0,
			ReportPaths: false,
			PkgFilter:   "",
		},
		Traversal: TraversalSpec{
			PathSensitive:     false,
			ContextDepth:      DefaultContextDepth,
			MaxVisitsPerBlock: DefaultMaxVisitsPerBlock,
		},
		Ownership: OwnershipSpec{
			ReturnPlace: DefaultReturnPlace,
			EscapeFunctions: []CodeIdentifier{
				{Method: "as_mut_ptr"},
				{Method: "as_ptr"},
				{Method: "as_ref"},
				{Method: "as_mut"},
				{Method: "from_raw_parts"},
				{Method: "into_raw"},
				{Method: "from_raw"},
				{Method: "_as_raw"},
				{Package: ".+", Method: "^deref"},
			},
			ReleaseFunctions: []CodeIdentifier{
				{Package: ".+", Method: "^drop"},
				{Receiver: ".+", Method: "^(Close|Release|Free)$"},
			},
			SourceFunctions: nil,
		},
	}
	c.compile()
	return c
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadBytes(filename, b)
}

// LoadBytes reads a configuration from the contents of a file. filename is only used to resolve relative paths.
func LoadBytes(filename string, b []byte) (*Config, error) {
	c := NewDefault()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	c.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if c.LogLevel == 0 {
		c.LogLevel = int(InfoLevel)
	}
	if c.Traversal.ContextDepth < 0 {
		return nil, fmt.Errorf("context-depth must be non-negative, got %d", c.Traversal.ContextDepth)
	}
	// Set the MaxVisitsPerBlock default if it is <= 0
	if c.Traversal.MaxVisitsPerBlock <= 0 {
		c.Traversal.MaxVisitsPerBlock = DefaultMaxVisitsPerBlock
	}
	c.compile()
	return c, nil
}

func (c *Config) compile() {
	c.pkgFilterRegex = nil
	if c.PkgFilter != "" {
		r, err := regexp.Compile(c.PkgFilter)
		if err == nil {
			c.pkgFilterRegex = r
		}
	}
	compileAll(c.Ownership.EscapeFunctions)
	compileAll(c.Ownership.ReleaseFunctions)
	compileAll(c.Ownership.SourceFunctions)
}

// SetPkgFilter changes the package filter of the config
func (c *Config) SetPkgFilter(filter string) {
	c.PkgFilter = filter
	c.compile()
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	}
	return true
}

// IsEscape returns true if the callee returns a value aliasing its first argument
func (c Config) IsEscape(callee cfg.Callee) bool {
	return matchesSome(c.Ownership.EscapeFunctions, callee)
}

// IsRelease returns true if the callee releases its first argument
func (c Config) IsRelease(callee cfg.Callee) bool {
	return matchesSome(c.Ownership.ReleaseFunctions, callee)
}

// IsSource returns true if the result of the callee comes from outside the function
func (c Config) IsSource(callee cfg.Callee) bool {
	return matchesSome(c.Ownership.SourceFunctions, callee)
}

// AddReleaseFunction adds a release function identifier to the config
func (c *Config) AddReleaseFunction(cid CodeIdentifier) {
	c.Ownership.ReleaseFunctions = append(c.Ownership.ReleaseFunctions, compileRegexes(cid))
}

// AddEscapeFunction adds an escape function identifier to the config
func (c *Config) AddEscapeFunction(cid CodeIdentifier) {
	c.Ownership.EscapeFunctions = append(c.Ownership.EscapeFunctions, compileRegexes(cid))
}

// AddSourceFunction adds a source function identifier to the config
func (c *Config) AddSourceFunction(cid CodeIdentifier) {
	c.Ownership.SourceFunctions = append(c.Ownership.SourceFunctions, compileRegexes(cid))
}

// SetOption sets the option named key, with the same name as in the yaml config file, to value.
func (c *Config) SetOption(key string, value string) error {
	var err error
	switch key {
	case "path-sensitive":
		c.Traversal.PathSensitive, err = strconv.ParseBool(value)
	case "context-depth":
		c.Traversal.ContextDepth, err = strconv.Atoi(value)
		if err == nil && c.Traversal.ContextDepth < 0 {
			err = fmt.Errorf("must be non-negative")
		}
	case "max-visits-per-block":
		c.Traversal.MaxVisitsPerBlock, err = strconv.Atoi(value)
	case "max-alarms":
		c.MaxAlarms, err = strconv.Atoi(value)
	case "report-paths":
		c.ReportPaths, err = strconv.ParseBool(value)
	case "return-place":
		c.Ownership.ReturnPlace = value
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for option %q: %v", value, key, err)
	}
	return nil
}
