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
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hooyq/taint-ana/analysis/cfg"
)

//go:embed testdata
var testfsys embed.FS

func checkEqualOnNonEmptyFields(t *testing.T, cid1 CodeIdentifier, cid2 CodeIdentifier) {
	cid2c := compileRegexes(cid2)
	if !cid1.equalOnNonEmptyFields(cid2c) {
		t.Errorf("%v should be equal modulo empty fields to %v", cid1, cid2)
	}
}

func checkNotEqualOnNonEmptyFields(t *testing.T, cid1 CodeIdentifier, cid2 CodeIdentifier) {
	cid2c := compileRegexes(cid2)
	if cid1.equalOnNonEmptyFields(cid2c) {
		t.Errorf("%v should not be equal modulo empty fields to %v", cid1, cid2)
	}
}

func TestCodeIdentifier_equalOnNonEmptyFields_selfEquals(t *testing.T) {
	cid1 := CodeIdentifier{Package: "a", Method: "b"}
	checkEqualOnNonEmptyFields(t, cid1, cid1)
}

func TestCodeIdentifier_equalOnNonEmptyFields_emptyMatchesAny(t *testing.T) {
	cid1 := CodeIdentifier{Package: "a", Receiver: "b", Method: "c"}
	cid2 := CodeIdentifier{Package: "de", Receiver: "234jbn", Method: "ef"}
	cidEmpty := CodeIdentifier{}
	checkEqualOnNonEmptyFields(t, cid1, cidEmpty)
	checkEqualOnNonEmptyFields(t, cid2, cidEmpty)
}

func TestCodeIdentifier_equalOnNonEmptyFields_oneDiff(t *testing.T) {
	cid1 := CodeIdentifier{Package: "a", Method: "b"}
	cid2 := CodeIdentifier{Package: "a"}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkNotEqualOnNonEmptyFields(t, cid2, cid1)
}

func TestCodeIdentifier_equalOnNonEmptyFields_regexes(t *testing.T) {
	cid1 := CodeIdentifier{Package: "main", Method: "b"}
	cid1bis := CodeIdentifier{Package: "command-line-arguments", Method: "b"}
	cid2 := CodeIdentifier{Package: "(main)|(command-line-arguments)$"}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkEqualOnNonEmptyFields(t, cid1bis, cid2)
}

func TestCodeIdentifier_equalOnNonEmptyFields_invalidRegexIsString(t *testing.T) {
	cid1 := CodeIdentifier{Method: "f("}
	cid2 := CodeIdentifier{Method: "f("}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkNotEqualOnNonEmptyFields(t, CodeIdentifier{Method: "f(x"}, cid2)
}

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := LoadBytes(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %v", filename, err)
	}
	return filename, config, err
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.LogLevel != int(InfoLevel) {
		t.Errorf("Default log level should be info")
	}
	if c.Traversal.PathSensitive {
		t.Errorf("Default traversal should be the baseline")
	}
	if c.Traversal.ContextDepth != DefaultContextDepth || c.Traversal.MaxVisitsPerBlock != DefaultMaxVisitsPerBlock {
		t.Errorf("Wrong default traversal bounds: %+v", c.Traversal)
	}
	if c.Ownership.ReturnPlace != "_0" {
		t.Errorf("Default return place should be _0")
	}
	if !c.MatchPkgFilter("anything") {
		t.Errorf("Default package filter should match anything")
	}
}

func TestDefaultPatterns(t *testing.T) {
	c := NewDefault()
	escapes := []cfg.Callee{
		{Package: "core::ptr", Name: "as_ptr"},
		{Package: "alloc::vec", Receiver: "Vec", Name: "as_mut_ptr"},
		{Package: "core::slice", Name: "from_raw_parts"},
		{Package: "alloc::boxed", Name: "into_raw"},
		{Package: "core::ops::Deref", Name: "deref"},
		{Name: "as_ref"},
	}
	for _, e := range escapes {
		if !c.IsEscape(e) {
			t.Errorf("%s should be an escape function", e)
		}
	}
	if c.IsEscape(cfg.Callee{Name: "deref"}) {
		t.Errorf("unqualified deref should not be an escape function")
	}
	if c.IsEscape(cfg.Callee{Package: "std::io", Name: "print"}) {
		t.Errorf("print should not be an escape function")
	}
	releases := []cfg.Callee{
		{Package: "std::mem", Name: "drop"},
		{Package: "core::ptr", Name: "drop_in_place"},
		{Package: "os", Receiver: "File", Name: "Close"},
	}
	for _, r := range releases {
		if !c.IsRelease(r) {
			t.Errorf("%s should be a release function", r)
		}
	}
	if c.IsRelease(cfg.Callee{Name: "drop"}) {
		t.Errorf("unqualified drop should not be a release function")
	}
	if c.IsRelease(cfg.Callee{Package: "os", Name: "Close"}) {
		t.Errorf("Close without receiver should not be a release function")
	}
	if c.IsSource(cfg.Callee{Package: "os", Name: "Open"}) {
		t.Errorf("no source function by default")
	}
}

func TestLoadBadFormatFileReturnsError(t *testing.T) {
	_, config, err := loadFromTestDir("bad_format.yaml")
	if config != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load a badly formatted file.")
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	if c != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load non existent file.")
	}
}

func TestLoadNegativeDepthReturnsError(t *testing.T) {
	_, config, err := loadFromTestDir("bad_depth.yaml")
	if config != nil || err == nil || !strings.Contains(err.Error(), "context-depth") {
		t.Errorf("Expected context-depth error, got %v", err)
	}
}

//gocyclo:ignore
func TestLoadFullConfig(t *testing.T) {
	fileName, config, err := loadFromTestDir("full-config.yaml")
	if config == nil || err != nil {
		t.Fatalf("Could not load %s: %v", fileName, err)
	}
	if config.LogLevel != int(TraceLevel) {
		t.Error("full config should have set trace")
	}
	if config.MaxAlarms != 16 {
		t.Error("full config should set MaxAlarms to 16")
	}
	if !config.ReportPaths {
		t.Error("full config should have set reportpaths")
	}
	if !config.MatchPkgFilter("example.com/app/internal") || config.MatchPkgFilter("example.com/lib") {
		t.Error("full config pkg-filter should only match the app")
	}
	if !config.Traversal.PathSensitive || config.Traversal.ContextDepth != 3 ||
		config.Traversal.MaxVisitsPerBlock != 12 {
		t.Errorf("wrong traversal spec %+v", config.Traversal)
	}
	if config.Ownership.ReturnPlace != "ret" {
		t.Errorf("full config should set the return place")
	}
	if len(config.Ownership.EscapeFunctions) != 1 || len(config.Ownership.ReleaseFunctions) != 2 {
		t.Errorf("lists in the config file should replace the defaults")
	}
	if !config.IsRelease(cfg.Callee{Package: "std::mem", Name: "drop"}) {
		t.Error("full config should release with std::mem::drop")
	}
	if config.IsRelease(cfg.Callee{Package: "core::ptr", Name: "drop_in_place"}) {
		t.Error("full config should not release with drop_in_place")
	}
	if !config.IsRelease(cfg.Callee{Package: "sync", Receiver: "Pool", Name: "Put"}) {
		t.Error("full config should release with Pool.Put")
	}
	if !config.IsSource(cfg.Callee{Package: "os", Name: "Open"}) {
		t.Error("full config should have os.Open as source")
	}
	if config.IsEscape(cfg.Callee{Name: "as_mut_ptr"}) {
		t.Error("full config escape functions are anchored")
	}
	if config.RelPath("x.oir") != filepath.Join("testdata", "x.oir") {
		t.Errorf("RelPath should be relative to the config file, got %s", config.RelPath("x.oir"))
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	_, config, err := loadFromTestDir("partial-config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !config.Traversal.PathSensitive {
		t.Error("partial config should enable path sensitivity")
	}
	if config.Traversal.ContextDepth != DefaultContextDepth {
		t.Error("partial config should keep the default context depth")
	}
	if config.Ownership.ReturnPlace != "" {
		t.Error("partial config should disable the return place")
	}
	if !config.IsRelease(cfg.Callee{Package: "std::mem", Name: "drop"}) {
		t.Error("partial config should keep the default release functions")
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(WarnLevel)
	l := NewLogGroup(c)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)
	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)
	if buf.String() != "[WARN] shown 3\n[ERROR] shown 4\n" {
		t.Errorf("unexpected log output %q", buf.String())
	}
	if l.LogsLevel(DebugLevel) || !l.LogsLevel(WarnLevel) {
		t.Errorf("wrong LogsLevel")
	}
	l.SetLevel(TraceLevel)
	buf.Reset()
	l.Tracef("t")
	if buf.String() != "[TRACE] t\n" {
		t.Errorf("unexpected trace output %q", buf.String())
	}
}

func TestAddFunctions(t *testing.T) {
	c := NewDefault()
	shutdown := cfg.Callee{Package: "example.com/conn", Name: "shutdown"}
	if c.IsRelease(shutdown) {
		t.Fatal("shutdown should not be a default release function")
	}
	c.AddReleaseFunction(CodeIdentifier{Package: "^example\\.com/conn$", Receiver: "^$", Method: "^shutdown$"})
	if !c.IsRelease(shutdown) {
		t.Error("shutdown should be a release function")
	}
	if c.IsRelease(cfg.Callee{Package: "example.com/conn", Receiver: "Conn", Name: "shutdown"}) {
		t.Error("the method shutdown should not match a plain function identifier")
	}
	c.AddEscapeFunction(CodeIdentifier{Method: "^view$"})
	if !c.IsEscape(cfg.Callee{Package: "p", Name: "view"}) {
		t.Error("view should be an escape function")
	}
	c.AddSourceFunction(CodeIdentifier{Method: "^input$"})
	if !c.IsSource(cfg.Callee{Package: "p", Name: "input"}) {
		t.Error("input should be a source function")
	}
}

func TestSetOption(t *testing.T) {
	c := NewDefault()
	for key, value := range map[string]string{
		"path-sensitive":       "true",
		"context-depth":        "4",
		"max-visits-per-block": "7",
		"max-alarms":           "3",
		"report-paths":         "true",
		"return-place":         "",
	} {
		if err := c.SetOption(key, value); err != nil {
			t.Errorf("SetOption(%q, %q) failed: %v", key, value, err)
		}
	}
	if !c.Traversal.PathSensitive || c.Traversal.ContextDepth != 4 || c.Traversal.MaxVisitsPerBlock != 7 {
		t.Errorf("traversal options not set: %+v", c.Traversal)
	}
	if c.MaxAlarms != 3 || !c.ReportPaths || c.Ownership.ReturnPlace != "" {
		t.Errorf("options not set: %+v", c.Options)
	}
	if err := c.SetOption("context-depth", "-1"); err == nil {
		t.Error("negative context depth should be rejected")
	}
	if err := c.SetOption("path-sensitive", "maybe"); err == nil {
		t.Error("invalid boolean should be rejected")
	}
	if err := c.SetOption("colour", "red"); err == nil {
		t.Error("unknown option should be rejected")
	}
}
