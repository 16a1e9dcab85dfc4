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

// Package analysistest reads the expected violations of test programs. A test program marks every line where a
// violation is expected with a comment containing @UseAfterRelease or @DoubleRelease, for example:
//
//	x = copy b; // @UseAfterRelease
//
// The same markers are used in textual IR files and in Go files.
package analysistest

import (
	"bufio"
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/hooyq/taint-ana/analysis"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/frontend/textir"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

// Annotation kinds, named as they appear in the test programs
const (
	UseAfterRelease = "UseAfterRelease"
	DoubleRelease   = "DoubleRelease"
)

// AnnotationRegex matches a comment with an "@UseAfterRelease" or "@DoubleRelease" marker
var AnnotationRegex = regexp.MustCompile(`//.*@(UseAfterRelease|DoubleRelease)\b`)

// LPos is a position without column. Only the base name of the file is kept, so that positions reported for files
// loaded from different directories can be compared.
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// NewLPos drops the column and the directory of the position
func NewLPos(pos token.Position) LPos {
	return LPos{Filename: filepath.Base(pos.Filename), Line: pos.Line}
}

// Expectation is a violation of some kind at some line
type Expectation struct {
	Pos  LPos
	Kind string
}

func (e Expectation) String() string {
	return e.Kind + " at " + e.Pos.String()
}

// ReadExpectations scans the file name in fsys for annotation comments
func ReadExpectations(fsys fs.FS, name string) (map[Expectation]bool, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res := map[Expectation]bool{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		for _, m := range AnnotationRegex.FindAllStringSubmatch(scanner.Text(), -1) {
			res[Expectation{Pos: LPos{Filename: path.Base(name), Line: line}, Kind: m[1]}] = true
		}
	}
	return res, scanner.Err()
}

// LoadOIR parses the textual IR file name in fsys and returns its functions with the expected violations
func LoadOIR(fsys fs.FS, name string) ([]*cfg.Function, map[Expectation]bool, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, nil, err
	}
	fns, err := textir.ParseString(name, string(b))
	if err != nil {
		return nil, nil, fmt.Errorf("%s", textir.FormatError(string(b), err))
	}
	want, err := ReadExpectations(fsys, name)
	return fns, want, err
}

// LoadGo loads the Go files in dir and returns the loaded program with the expected violations of all the files.
func LoadGo(t *testing.T, dir string, files ...string) (analysis.LoadedProgram, map[Expectation]bool) {
	t.Helper()
	args := funcutil.Map(files, func(f string) string { return filepath.Join(dir, f) })
	lp, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, args)
	if err != nil {
		t.Fatalf("error loading %s: %v", dir, err)
	}
	want := map[Expectation]bool{}
	fsys := os.DirFS(dir)
	for _, f := range files {
		w, err := ReadExpectations(fsys, f)
		if err != nil {
			t.Fatalf("error reading annotations of %s: %v", f, err)
		}
		for e := range w {
			want[e] = true
		}
	}
	return lp, want
}

// Check reports every expected violation that was not found, and every violation found that was not expected.
func Check(t *testing.T, want map[Expectation]bool, got map[Expectation]bool) {
	t.Helper()
	for _, e := range sorted(want) {
		if !got[e] {
			t.Errorf("expected %s, not found", e)
		}
	}
	for _, e := range sorted(got) {
		if !want[e] {
			t.Errorf("unexpected %s", e)
		}
	}
}

func sorted(m map[Expectation]bool) []Expectation {
	res := make([]Expectation, 0, len(m))
	for e := range m {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].String() < res[j].String()
	})
	return res
}

// AnnotationName returns the annotation of a violation kind rendered as "use-after-release" or "double-release"
func AnnotationName(kind string) string {
	var b strings.Builder
	for _, part := range strings.Split(kind, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}
