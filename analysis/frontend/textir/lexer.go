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

// Lexer tokenizes the textual IR. Order matters: multi-character punctuation must come before Punct.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Arrow", `->`, nil},
		{"PathSep", `::`, nil},
		{"Range", `\.\.`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `[0-9]+`, nil},
		{"Punct", `[{}\[\]()=;:,.&@*-]`, nil},
	},
})
