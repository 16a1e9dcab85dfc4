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
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/packages"
)

// DirectivePrefix starts every directive comment
const DirectivePrefix = "ownercheck:"

// DirectiveKind represents the kind of directive.
type DirectiveKind string

// DirectiveIgnore silences the violations reported on its line and on the line below.
const DirectiveIgnore DirectiveKind = "ignore"

// A Directive is a comment of the form `//ownercheck:kind [reason]` in the analyzed source.
type Directive struct {
	Kind   DirectiveKind
	Reason string
	Pos    token.Position
}

// DirectivePos is the line of a directive.
type DirectivePos struct {
	Filename string
	Line     int
}

// Directives indexes directives by line.
type Directives map[DirectivePos]Directive

// ParseDirective parses the text of a comment. It returns false if the comment is not a known directive.
func ParseDirective(text string) (Directive, bool) {
	body, found := strings.CutPrefix(strings.TrimSpace(strings.TrimPrefix(text, "//")), DirectivePrefix)
	if !found {
		return Directive{}, false
	}
	kind, reason, _ := strings.Cut(strings.TrimSpace(body), " ")
	if DirectiveKind(kind) != DirectiveIgnore {
		return Directive{}, false
	}
	return Directive{Kind: DirectiveIgnore, Reason: strings.TrimSpace(reason)}, true
}

// Add records the directive at its position.
func (d Directives) Add(dir Directive) {
	d[DirectivePos{Filename: dir.Pos.Filename, Line: dir.Pos.Line}] = dir
}

// IsIgnored returns true if an ignore directive is on the line of pos, or on the line just above it.
func (d Directives) IsIgnored(pos token.Position) bool {
	if !pos.IsValid() {
		return false
	}
	for _, line := range []int{pos.Line, pos.Line - 1} {
		if dir, ok := d[DirectivePos{Filename: pos.Filename, Line: line}]; ok && dir.Kind == DirectiveIgnore {
			return true
		}
	}
	return false
}

// FileDirectives collects the directives in the comments of file.
func FileDirectives(fset *token.FileSet, file *ast.File, into Directives) {
	for _, group := range file.Comments {
		for _, c := range group.List {
			dir, ok := ParseDirective(c.Text)
			if !ok {
				continue
			}
			if dir.Pos = fset.Position(c.Pos()); dir.Pos.IsValid() {
				into.Add(dir)
			}
		}
	}
}

func findDirectives(pkgs []*packages.Package, fset *token.FileSet) Directives {
	res := make(Directives)
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			FileDirectives(fset, file, res)
		}
	}
	return res
}
