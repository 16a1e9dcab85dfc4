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

package textir

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/pkg/errors"
)

var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(3),
)

// Error is an error in a well-formed file, e.g. a jump to an undefined label. It implements participle.Error so
// that parse errors and lowering errors can be reported the same way.
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Message returns the error message without the position
func (e *Error) Message() string { return e.Msg }

// Position returns the position of the error
func (e *Error) Position() lexer.Position { return e.Pos }

func errorAt(pos lexer.Position, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ParseString parses the functions in src. The filename is only used in positions.
func ParseString(filename string, src string) ([]*cfg.Function, error) {
	file, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", filename)
	}
	fns := make([]*cfg.Function, 0, len(file.Functions))
	for _, f := range file.Functions {
		fn, err := lowerFunction(f)
		if err != nil {
			return nil, errors.Wrapf(err, "in function %s", strings.Join(f.Name.Parts, "::"))
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// ParseFile reads and parses the file at path
func ParseFile(path string) ([]*cfg.Function, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return ParseString(path, string(source))
}

// FormatError renders err with the line of src where it happened and a caret under the column. Errors without a
// position are rendered as is.
func FormatError(src string, err error) string {
	red := color.New(color.FgRed).SprintfFunc()
	var pe participle.Error
	if !errors.As(err, &pe) {
		return red("error: %s", err)
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		return red("error: %s", err)
	}
	col := pos.Column
	if col < 1 {
		col = 1
	}
	var b strings.Builder
	b.WriteString(red("error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column))
	b.WriteString("\n")
	b.WriteString(lines[pos.Line-1])
	b.WriteString("\n")
	b.WriteString(color.New(color.FgHiRed).Sprint(strings.Repeat(" ", col-1) + "^"))
	b.WriteString("\n")
	b.WriteString("-> " + pe.Message())
	return b.String()
}
