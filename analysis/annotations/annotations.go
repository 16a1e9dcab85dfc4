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

// Package annotations reads the ownership annotations written in the comments of the analyzed Go program, and
// applies them to the configuration and to the lowered functions.
//
// Function annotations are in the doc comment of a function or method:
//
//	//ownercheck:function Release
//	func shutdown(c *Conn) { ... }
//
// Parameter annotations tag the value of a parameter at the entry of the function:
//
//	//ownercheck:param r Source(network)
//	func handle(r *Request) { ... }
//
// Config annotations can be anywhere in a file and set options of the analysis:
//
//	//ownercheck:config SetOptions(path-sensitive=true, context-depth=3)
package annotations

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/analysis/config"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"github.com/hooyq/taint-ana/internal/typesutil"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

const annotationPrefix = "//ownercheck:"

// AnnotationKind characterizes the kind of annotations that can be used in the program.
type AnnotationKind = int

const (
	// Release is the kind of Release annotations: the function releases its first argument.
	Release AnnotationKind = iota
	// Escape is the kind of Escape annotations: the result of the function aliases its first argument.
	Escape
	// Source is the kind of Source(...) annotations
	Source
	// SetOptions is the kind of SetOptions(...) annotations
	SetOptions
)

// TargetSpecifier is the type of target specifiers in the annotations: an annotation is of the shape
// "//ownercheck:<target specifier> <target specifier arguments>* <annotations>
type TargetSpecifier = string

const (
	// ParamTarget is the specifier for function parameter targets
	ParamTarget TargetSpecifier = "param"
	// FunctionTarget is the specifier for function targets
	FunctionTarget TargetSpecifier = "function"
	// ConfigTarget is the specifier for config targets
	ConfigTarget TargetSpecifier = "config"
	// IgnoreTarget is the specifier of the ignore directive, which is not an annotation
	IgnoreTarget TargetSpecifier = "ignore"
)

// releaseRegex matches an annotation of the form Release
var releaseRegex = regexp.MustCompile(`(?:^|\s)Release\b`)

// escapeRegex matches an annotation of the form Escape
var escapeRegex = regexp.MustCompile(`(?:^|\s)Escape\b`)

// sourceRegex matches an annotation of the form Source or Source(tag)
var sourceRegex = regexp.MustCompile(`(?:^|\s)Source(?:\(\s*([\w\-:.]+)\s*\))?`)

// setOptionsRegex matches annotations of the form SetOptions(name1=value1, name2=value2)
var setOptionsRegex = regexp.MustCompile(`SetOptions\(((?:\s*[\w\-]+=[\w\-.]*\s*,?)+)\)`)

var annotationKindParsers = []struct {
	kind   AnnotationKind
	regexp *regexp.Regexp
}{
	{Release, releaseRegex},
	{Escape, escapeRegex},
	{Source, sourceRegex},
}

// Annotation contains the parsed content from an annotation component: the kind of the annotation and its arguments
type Annotation struct {
	// Kind of the annotation
	Kind AnnotationKind
	// Tags of the annotation; a Source annotation has at most one
	Tags []string
}

// IsMatchingAnnotation returns true when the annotation has the kind provided and, if tag is not empty, that tag.
func (a Annotation) IsMatchingAnnotation(kind AnnotationKind, tag string) bool {
	return a.Kind == kind && (tag == "" || slices.Contains(a.Tags, tag))
}

// LinePos is a simple line-file position indicator.
type LinePos struct {
	Line int
	File string
}

// NewLinePos returns a LinePos from a token position. The column and offset are abstracted away.
func NewLinePos(pos token.Position) LinePos {
	return LinePos{
		Line: pos.Line,
		File: pos.Filename,
	}
}

func (l LinePos) String() string {
	return l.File + ":" + strconv.Itoa(l.Line)
}

// A FunctionAnnotation groups the annotations relative to a function into main annotations for the entire function
// and parameter annotations for each parameter
type FunctionAnnotation struct {
	mains  []Annotation
	params map[*ssa.Parameter][]Annotation
}

// Mains returns the main annotations of the function
func (fa FunctionAnnotation) Mains() []Annotation {
	return fa.mains
}

// Params returns the map of parameters to annotations in the function
func (fa FunctionAnnotation) Params() map[*ssa.Parameter][]Annotation {
	return fa.params
}

func (fa FunctionAnnotation) isEmpty() bool {
	return len(fa.mains) == 0 && len(fa.params) == 0
}

// ProgramAnnotations groups all the program annotations together.
type ProgramAnnotations struct {
	// Configs maps option names to the values set by config annotations
	Configs map[string]string
	// ConfigPos is the position of the annotation that set each option
	ConfigPos map[string]LinePos
	// Funcs is the map of function annotations
	Funcs map[*ssa.Function]FunctionAnnotation
}

// Count returns the total number of annotations in the program
func (pa ProgramAnnotations) Count() int {
	c := len(pa.Configs)
	for _, f := range pa.Funcs {
		c += len(f.mains)
		for _, p := range f.params {
			c += len(p)
		}
	}
	return c
}

// LoadAnnotations loads annotations from a list of packages by inspecting the syntax of the functions and methods
// of each package. If syntax is not provided, no annotation will be loaded (you should build the program with the
// syntax for the annotations to work).
// Returns an error when some annotation could not be loaded (instead of silently skipping). Those errors should
// be surfaced to the user, since it is the only way they can correct their annotations. The loading function
// will also print warnings when some syntactic components of the comments look like they should be an annotation.
func LoadAnnotations(logger *config.LogGroup, packages []*ssa.Package) (ProgramAnnotations, error) {
	annotations := ProgramAnnotations{
		Configs:   map[string]string{},
		ConfigPos: map[string]LinePos{},
		Funcs:     map[*ssa.Function]FunctionAnnotation{},
	}
	for _, pkg := range packages {
		if pkg == nil {
			continue
		}
		for _, function := range packageFunctions(pkg) {
			functionAnnotation, err := parseFunctionAnnotations(logger, function)
			if err != nil {
				return annotations, err
			}
			if !functionAnnotation.isEmpty() {
				annotations.Funcs[function] = functionAnnotation
			}
		}
	}
	return annotations, nil
}

// packageFunctions returns the functions and the concrete methods declared in pkg
func packageFunctions(pkg *ssa.Package) []*ssa.Function {
	var res []*ssa.Function
	seen := map[*ssa.Function]bool{}
	add := func(f *ssa.Function) {
		if f != nil && !seen[f] && f.Synthetic == "" && f.Pkg == pkg {
			seen[f] = true
			res = append(res, f)
		}
	}
	for _, m := range pkg.Members {
		switch member := m.(type) {
		case *ssa.Function:
			add(member)
		case *ssa.Type:
			for _, t := range []types.Type{member.Type(), types.NewPointer(member.Type())} {
				mset := pkg.Prog.MethodSets.MethodSet(t)
				for i := 0; i < mset.Len(); i++ {
					add(pkg.Prog.MethodValue(mset.At(i)))
				}
			}
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Pos() < res[j].Pos() })
	return res
}

// CompleteFromSyntax adds the config annotations found in the files of pkg
func (pa ProgramAnnotations) CompleteFromSyntax(logger *config.LogGroup, pkg *packages.Package) {
	pa.CompleteFromFiles(logger, pkg.Fset, pkg.Syntax)
}

// CompleteFromFiles adds the config annotations found in files
func (pa ProgramAnnotations) CompleteFromFiles(logger *config.LogGroup, fset *token.FileSet, files []*ast.File) {
	for _, astFile := range files {
		for _, comments := range astFile.Comments {
			for _, comment := range comments.List {
				if annotationContents := extractAnnotation(comment); annotationContents != nil {
					pa.loadFileAnnotations(logger, annotationContents, fset.Position(comment.Pos()))
				}
			}
		}
	}
}

func extractAnnotation(comment *ast.Comment) []string {
	if strings.HasPrefix(comment.Text, annotationPrefix) {
		return strings.Fields(strings.TrimPrefix(comment.Text, annotationPrefix))
	}
	return nil
}

func parseFunctionAnnotations(logger *config.LogGroup, function *ssa.Function) (FunctionAnnotation, error) {
	var doc *ast.CommentGroup
	declSyntax, isDeclSyntax := function.Syntax().(*ast.FuncDecl)
	if isDeclSyntax {
		doc = declSyntax.Doc
	}

	if doc == nil {
		return FunctionAnnotation{}, nil
	}

	annotations := FunctionAnnotation{
		mains:  []Annotation{},
		params: map[*ssa.Parameter][]Annotation{},
	}
	for _, comment := range doc.List {
		if annotationContent := extractAnnotation(comment); annotationContent != nil {
			if len(annotationContent) <= 1 {
				continue
			}
			switch annotationContent[0] {
			case ParamTarget:
				err := parseParamAnnotation(function, annotationContent, &annotations, comment)
				if err != nil {
					return annotations, err
				}
			case FunctionTarget:
				annotations.mains = append(annotations.mains, parseAnnotationContent(annotationContent[1:])...)
			}
		} else if strings.Contains(comment.Text, "ownercheck") {
			logger.Warnf("possible annotation mistake: %s has \"ownercheck\" but doesn't start with %s",
				comment.Text, annotationPrefix)
		}
	}
	return annotations, nil
}

// loadFileAnnotations loads the annotation that are not tied to a specific ssa node, i.e. config annotations
func (pa ProgramAnnotations) loadFileAnnotations(logger *config.LogGroup, annotationContents []string, position token.Position) {
	switch annotationContents[0] {
	case ConfigTarget:
		if len(annotationContents) <= 1 {
			logger.Warnf("ignoring ownercheck:config annotation with no arguments at %s", position)
			return
		}
		pa.loadConfigTargetAnnotation(logger, annotationContents, position)
	case ParamTarget, FunctionTarget, IgnoreTarget:
		// function annotations are read from the function docs, ignore directives when the program is loaded
	default:
		logger.Warnf("unknown ownercheck annotation %q at %s", annotationContents[0], position)
	}
}

// loadConfigTargetAnnotation loads a config annotation. Config annotations look like
// "//ownercheck:config SetOptions(option-name-1=value1,option-name-2=value2)".
func (pa ProgramAnnotations) loadConfigTargetAnnotation(logger *config.LogGroup, annotationContents []string, position token.Position) {
	idents := setOptionsRegex.FindStringSubmatch(strings.Join(annotationContents[1:], " "))
	if len(idents) <= 1 {
		logger.Warnf("ownercheck:config annotation encountered without matching SetOptions at %s", position)
		return
	}
	for _, arg := range parseAnnotationArgs(idents) {
		// split something that should be option-name=option-value
		name, value, found := strings.Cut(arg, "=")
		if !found {
			logger.Warnf(
				"ownercheck:config comment ignored because SetOptions argument is not option-name=value at %s",
				position)
			return
		}
		if prevValue, isSet := pa.Configs[name]; isSet {
			logger.Warnf("ownercheck:config option %q already set to %q, ignoring annotation at %s",
				name, prevValue, position)
		} else {
			pa.Configs[name] = value
			pa.ConfigPos[name] = NewLinePos(position)
			logger.Debugf("set option %q to %q (annotation at %s)", name, value, position)
		}
	}
}

func parseParamAnnotation(function *ssa.Function, annotationContent []string,
	annotations *FunctionAnnotation, comment *ast.Comment) error {
	if len(annotationContent) < 3 {
		return fmt.Errorf("parameter annotation %q of %q has no content", comment.Text, function.String())
	}
	paramName := annotationContent[1]
	for _, param := range function.Params {
		if param.Name() == paramName {
			annotations.params[param] = append(annotations.params[param], parseAnnotationContent(annotationContent[2:])...)
			return nil
		}
	}
	// If the parameter hasn't been found, that's a mistake and the used should know
	return fmt.Errorf("could not find parameter %q in function %q for annotation %q",
		paramName, function.String(), comment.Text)
}

func parseAnnotationContent(annotationContent []string) []Annotation {
	var parsedAnnotations []Annotation
	contents := strings.Join(annotationContent, " ")
	for _, parser := range annotationKindParsers {
		idents := parser.regexp.FindStringSubmatch(contents)
		if idents == nil {
			continue
		}
		a := Annotation{Kind: parser.kind}
		if len(idents) > 1 && idents[1] != "" {
			a.Tags = parseAnnotationArgs(idents)
		}
		parsedAnnotations = append(parsedAnnotations, a)
	}
	return parsedAnnotations
}

func parseAnnotationArgs(a []string) []string {
	if len(a) < 2 {
		return []string{}
	}
	return funcutil.Map(strings.Split(a[1], ","), func(s string) string { return strings.TrimSpace(s) })
}

// codeIdentifier returns an identifier that matches exactly the calls to function
func codeIdentifier(function *ssa.Function) config.CodeIdentifier {
	cid := config.CodeIdentifier{Receiver: "^$", Method: "^" + regexp.QuoteMeta(function.Name()) + "$"}
	if function.Pkg != nil {
		cid.Package = "^" + regexp.QuoteMeta(function.Pkg.Pkg.Path()) + "$"
	}
	if recv := function.Signature.Recv(); recv != nil {
		t := recv.Type()
		if p, ok := t.(*types.Pointer); ok {
			t = p.Elem()
		}
		if named, ok := typesutil.Unalias(t).(*types.Named); ok {
			cid.Receiver = "^" + regexp.QuoteMeta(named.Obj().Name()) + "$"
		}
	}
	return cid
}

// Apply adds the annotated functions to the release, escape and source functions of c, and sets the options of
// the config annotations. An error is returned for the first option that cannot be set.
func (pa ProgramAnnotations) Apply(c *config.Config) error {
	functions := make([]*ssa.Function, 0, len(pa.Funcs))
	for f := range pa.Funcs {
		functions = append(functions, f)
	}
	sort.Slice(functions, func(i, j int) bool { return functions[i].String() < functions[j].String() })
	for _, f := range functions {
		for _, a := range pa.Funcs[f].mains {
			switch a.Kind {
			case Release:
				c.AddReleaseFunction(codeIdentifier(f))
			case Escape:
				c.AddEscapeFunction(codeIdentifier(f))
			case Source:
				c.AddSourceFunction(codeIdentifier(f))
			}
		}
	}
	for _, name := range funcutil.SortedKeys(pa.Configs) {
		if err := c.SetOption(name, pa.Configs[name]); err != nil {
			return fmt.Errorf("config annotation at %s: %v", pa.ConfigPos[name], err)
		}
	}
	return nil
}

// TagParameters sets the tag of the externs of the lowered functions whose parameter has a Source annotation. The
// lowered functions are matched by name.
func (pa ProgramAnnotations) TagParameters(fns []*cfg.Function) int {
	byName := make(map[string]*cfg.Function, len(fns))
	for _, fn := range fns {
		byName[fn.Name] = fn
	}
	n := 0
	for f, fa := range pa.Funcs {
		fn, ok := byName[f.String()]
		if !ok {
			continue
		}
		for param, annots := range fa.params {
			for _, a := range annots {
				if a.Kind != Source {
					continue
				}
				tag := "param:" + param.Name()
				if len(a.Tags) > 0 {
					tag = a.Tags[0]
				}
				for i := range fn.Externs {
					if fn.Externs[i].Name == param.Name() {
						fn.Externs[i].Tag = tag
						n++
					}
				}
			}
		}
	}
	return n
}
