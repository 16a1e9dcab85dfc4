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
	"github.com/alecthomas/participle/v2/lexer"
)

// The keywords fn, ext, nop, goto, switch, return, drop, assert, call, unreachable, resume, copy, move, const,
// raw and mut cannot be used as variable names.

type File struct {
	Functions []*Function `@@*`
}

type Function struct {
	Pos     lexer.Position
	Name    *Path     `"fn" @@ "{"`
	Externs []*Extern `@@*`
	Blocks  []*Block  `@@* "}"`
}

type Path struct {
	Parts []string `@Ident ( "::" @Ident )*`
}

type Extern struct {
	Pos  lexer.Position
	Name string  `"ext" @Ident`
	Tag  *string `@String? ";"`
}

type Block struct {
	Pos   lexer.Position
	Label string  `@Ident ":" "{"`
	Items []*Item `@@* "}"`
}

// Item is a statement or a terminator. Only the last item of a block may be a terminator.
type Item struct {
	Pos         lexer.Position
	Nop         bool      `(  @"nop"`
	Unreachable bool      ` | @"unreachable"`
	Resume      bool      ` | @"resume"`
	Goto        *Goto     ` | @@`
	Switch      *Switch   ` | @@`
	Return      *Return   ` | @@`
	Drop        *Drop     ` | @@`
	Assert      *Assert   ` | @@`
	Call        *CallItem ` | @@`
	Assign      *Assign   ` | @@ ) ";"`
}

type Goto struct {
	Target string `"goto" "->"? @Ident`
}

type Switch struct {
	Discr   *Operand `"switch" @@ "->"`
	Targets []string `"[" @Ident ( "," @Ident )* "]"`
}

type Return struct {
	Keyword bool       `@"return"`
	Values  []*Operand `( @@ ( "," @@ )* )?`
}

type Drop struct {
	Place   *Place   `"drop" @@ "->"`
	Targets []string `@Ident ( "," @Ident )*`
}

type Assert struct {
	Cond    *Operand `"assert" @@ "->"`
	Targets []string `@Ident ( "," @Ident )*`
}

// CallItem is a call statement when it has no targets, and a call terminator otherwise.
type CallItem struct {
	Dest    *Place     `"call" ( @@ "=" )?`
	Callee  *Path      `@@`
	Args    []*Operand `"(" ( @@ ( "," @@ )* )? ")"`
	Targets []string   `( "->" @Ident ( "," @Ident )* )?`
}

type Assign struct {
	Target *Place  `@@ "="`
	Value  *Rvalue `@@`
}

type Rvalue struct {
	AddressOf *Place     `  "&" "raw" @@`
	Ref       *RefValue  `| @@`
	Operand   *Operand   `| @@`
	Aggregate *Aggregate `| @@`
	Apply     *Apply     `| @@`
}

type RefValue struct {
	Mut   bool   `"&" @"mut"?`
	Place *Place `@@`
}

type Aggregate struct {
	Open  bool       `@"["`
	Elems []*Operand `( @@ ( "," @@ )* )? "]"`
}

// Apply is a named operation: discriminant, deref_copy, cast, repeat, use, or any unary, binary or nullary
// operator.
type Apply struct {
	Op   string `@Ident "("`
	Args []*Arg `( @@ ( "," @@ )* )? ")"`
}

type Arg struct {
	Operand *Operand `  @@`
	Place   *Place   `| @@`
}

type Operand struct {
	Pos   lexer.Position
	Copy  *Place  `  "copy" @@`
	Move  *Place  `| "move" @@`
	Const *string `| "const" @( "-"? Int | String | Ident )`
}

type Place struct {
	Pos  lexer.Position
	Base string        `@Ident`
	Proj []*Projection `@@*`
}

type Projection struct {
	Deref   bool     `  "." ( @"*"`
	Opaque  bool     `      | @"opaque"`
	Field   *int     `      | @Int )`
	Variant *int     `| "@" @Int`
	Bracket *Bracket `| "[" @@ "]"`
}

type Bracket struct {
	From  *int   `  @Int ( ".."`
	To    *int   `  @Int )?`
	Local string `| @Ident`
}
