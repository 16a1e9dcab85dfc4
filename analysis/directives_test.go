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
	"go/parser"
	"go/token"
	"testing"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		text   string
		ok     bool
		reason string
	}{
		{"//ownercheck:ignore", true, ""},
		{"// ownercheck:ignore ", true, ""},
		{"//ownercheck:ignore closed by the caller", true, "closed by the caller"},
		{"//ownercheck:ignored", false, ""},
		{"//ownercheck:unknown", false, ""},
		{"// see ownercheck:ignore", false, ""},
		{"// nothing to see", false, ""},
	}
	for _, test := range tests {
		d, ok := ParseDirective(test.text)
		if ok != test.ok {
			t.Errorf("ParseDirective(%q) = %v, want %v", test.text, ok, test.ok)
			continue
		}
		if ok && (d.Kind != DirectiveIgnore || d.Reason != test.reason) {
			t.Errorf("ParseDirective(%q) = %+v", test.text, d)
		}
	}
}

func TestDirectivesIsIgnored(t *testing.T) {
	d := Directives{}
	d.Add(Directive{Kind: DirectiveIgnore, Pos: token.Position{Filename: "a.go", Line: 10}})
	tests := []struct {
		pos  token.Position
		want bool
	}{
		{token.Position{Filename: "a.go", Line: 10}, true},
		{token.Position{Filename: "a.go", Line: 11}, true},
		{token.Position{Filename: "a.go", Line: 12}, false},
		{token.Position{Filename: "b.go", Line: 10}, false},
		{token.Position{}, false},
	}
	for _, test := range tests {
		if got := d.IsIgnored(test.pos); got != test.want {
			t.Errorf("IsIgnored(%v) = %v, want %v", test.pos, got, test.want)
		}
	}
}

func TestFileDirectives(t *testing.T) {
	src := `package p

func f() {
	//ownercheck:ignore known leak
	g()
	// ownercheck:other
	g()
}

func g() {}
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	d := Directives{}
	FileDirectives(fset, file, d)
	if len(d) != 1 {
		t.Fatalf("expected one directive, got %v", d)
	}
	dir, ok := d[DirectivePos{Filename: "p.go", Line: 4}]
	if !ok || dir.Reason != "known leak" {
		t.Errorf("unexpected directives %v", d)
	}
	if !d.IsIgnored(token.Position{Filename: "p.go", Line: 5, Column: 2}) {
		t.Errorf("call below the directive should be ignored")
	}
}
