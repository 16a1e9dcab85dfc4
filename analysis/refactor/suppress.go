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

// Package refactor rewrites analyzed source files. It inserts ownercheck:ignore directives above the statements
// where violations were reported, so that a baseline of known violations can be recorded in the code itself.
package refactor

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"sort"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"
	"github.com/hooyq/taint-ana/analysis"
	"golang.org/x/tools/go/packages"
)

// IgnoreComment is the comment inserted above a suppressed statement.
const IgnoreComment = "//" + analysis.DirectivePrefix + string(analysis.DirectiveIgnore)

// Result summarizes a suppression pass.
type Result struct {
	// Inserted is the number of directives inserted
	Inserted int
	// Files are the names of the files that were modified, sorted
	Files []string
	// Unmatched are the positions for which no statement starts on the same line
	Unmatched []token.Position
}

type lineKey struct {
	file string
	line int
}

// InsertIgnoreDirectives decorates every statement that starts on the line of one of the positions with an ignore
// directive. Only the outermost statement starting on a line is decorated, and a line is decorated at most once.
// Statements already preceded by the directive are left unchanged.
func InsertIgnoreDirectives(pkgs []*decorator.Package, positions []token.Position) Result {
	pending := map[lineKey]token.Position{}
	for _, pos := range positions {
		if pos.IsValid() {
			pending[lineKey{absolute(pos.Filename), pos.Line}] = pos
		}
	}
	modified := map[string]bool{}
	res := Result{}
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			filename := absolute(pkg.Decorator.Filenames[file])
			dstutil.Apply(file, func(c *dstutil.Cursor) bool {
				stmt, ok := c.Node().(dst.Stmt)
				if !ok {
					return true
				}
				if _, isBlock := stmt.(*dst.BlockStmt); isBlock {
					return true
				}
				astNode, ok := pkg.Decorator.Map.Ast.Nodes[stmt]
				if !ok {
					return true
				}
				key := lineKey{filename, pkg.Fset.Position(astNode.Pos()).Line}
				if _, found := pending[key]; !found {
					return true
				}
				delete(pending, key)
				if !hasIgnore(stmt.Decorations().Start) {
					decs := stmt.Decorations()
					decs.Start.Append(IgnoreComment)
					if decs.Before == dst.None {
						decs.Before = dst.NewLine
					}
					res.Inserted++
					modified[filename] = true
				}
				return true
			}, nil)
		}
	}
	for name := range modified {
		res.Files = append(res.Files, name)
	}
	sort.Strings(res.Files)
	for _, pos := range pending {
		res.Unmatched = append(res.Unmatched, pos)
	}
	sort.Slice(res.Unmatched, func(i, j int) bool {
		a, b := res.Unmatched[i], res.Unmatched[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Line < b.Line
	})
	return res
}

func absolute(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	if real, err := filepath.EvalSymlinks(name); err == nil {
		return real
	}
	return name
}

func hasIgnore(decs dst.Decorations) bool {
	for _, d := range decs.All() {
		if d == IgnoreComment {
			return true
		}
	}
	return false
}

// Print renders the file of the package back to source.
func Print(pkg *decorator.Package, file *dst.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := decorator.NewRestorer().Fprint(&buf, file); err != nil {
		return nil, fmt.Errorf("could not print %s: %w", pkg.Decorator.Filenames[file], err)
	}
	return buf.Bytes(), nil
}

// Save writes back the files of the packages whose name is in files.
func Save(pkgs []*decorator.Package, files []string) error {
	keep := map[string]bool{}
	for _, f := range files {
		keep[f] = true
	}
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			name := absolute(pkg.Decorator.Filenames[file])
			if !keep[name] {
				continue
			}
			content, err := Print(pkg, file)
			if err != nil {
				return err
			}
			if err := os.WriteFile(name, content, 0o644); err != nil {
				return fmt.Errorf("could not write %s: %w", name, err)
			}
		}
	}
	return nil
}

// Suppress loads the packages matching patterns, inserts ignore directives at positions and saves the modified
// files.
func Suppress(config *packages.Config, patterns []string, positions []token.Position) (Result, error) {
	if config == nil {
		config = &packages.Config{Mode: analysis.PkgLoadMode}
	}
	pkgs, err := decorator.Load(config, patterns...)
	if err != nil {
		return Result{}, fmt.Errorf("could not load packages: %w", err)
	}
	res := InsertIgnoreDirectives(pkgs, positions)
	if err := Save(pkgs, res.Files); err != nil {
		return res, err
	}
	return res, nil
}
