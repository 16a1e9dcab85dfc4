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
	"regexp"

	"github.com/hooyq/taint-ana/analysis/cfg"
)

// CodeIdentifier identifies a function. Each non-empty field is a regex if it compiles to one, otherwise a plain
// string that must be matched exactly.
type CodeIdentifier struct {
	Package  string
	Receiver string
	Method   string
	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	packageRegex  *regexp.Regexp
	receiverRegex *regexp.Regexp
	methodRegex   *regexp.Regexp
}

func (cid CodeIdentifier) String() string {
	return fmt.Sprintf("{package: %q, receiver: %q, method: %q}", cid.Package, cid.Receiver, cid.Method)
}

// compileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func compileRegexes(cid CodeIdentifier) CodeIdentifier {
	packageRegex, err := regexp.Compile(cid.Package)
	if err != nil {
		return cid
	}
	receiverRegex, err := regexp.Compile(cid.Receiver)
	if err != nil {
		return cid
	}
	methodRegex, err := regexp.Compile(cid.Method)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{
		packageRegex:  packageRegex,
		receiverRegex: receiverRegex,
		methodRegex:   methodRegex,
	}
	return cid
}

// compileAll compiles the regexes of every code identifier in the slice, in place.
func compileAll(cids []CodeIdentifier) {
	for i := range cids {
		cids[i] = compileRegexes(cids[i])
	}
}

// calleeIdentifier returns the code identifier that represents the callee
func calleeIdentifier(c cfg.Callee) CodeIdentifier {
	return CodeIdentifier{Package: c.Package, Receiver: c.Receiver, Method: c.Name}
}

// equalOnNonEmptyFields returns true if each of the receiver's fields are either equal to the corresponding
// argument's field, or the argument's field is empty
func (cid CodeIdentifier) equalOnNonEmptyFields(cidRef CodeIdentifier) bool {
	if cidRef.computedRegexs != nil {
		return (cidRef.Package == "" || cidRef.computedRegexs.packageRegex.MatchString(cid.Package)) &&
			(cidRef.Receiver == "" || cidRef.computedRegexs.receiverRegex.MatchString(cid.Receiver)) &&
			(cidRef.Method == "" || cidRef.computedRegexs.methodRegex.MatchString(cid.Method))
	}
	return (cidRef.Package == "" || cid.Package == cidRef.Package) &&
		(cidRef.Receiver == "" || cid.Receiver == cidRef.Receiver) &&
		(cidRef.Method == "" || cid.Method == cidRef.Method)
}

// matchesSome returns true if the callee matches some code identifier in cids.
func matchesSome(cids []CodeIdentifier, c cfg.Callee) bool {
	id := calleeIdentifier(c)
	for _, x := range cids {
		if id.equalOnNonEmptyFields(x) {
			return true
		}
	}
	return false
}
