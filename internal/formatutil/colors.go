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

// Package formatutil manipulates string colors and other formatting operations for the reports.
package formatutil

import (
	"fmt"
	"strings"

	"golang.org/x/term"
)

var (
	Bold    = Color("\033[1m%s\033[0m")
	Faint   = Color("\033[2m%s\033[0m")
	Red     = Color("\033[1;31m%s\033[0m")
	Green   = Color("\033[1;32m%s\033[0m")
	Yellow  = Color("\033[1;33m%s\033[0m")
	Magenta = Color("\033[1;35m%s\033[0m")
	Cyan    = Color("\033[1;36m%s\033[0m")
)

// colorMode is nil when colors follow whether stdout is a terminal
var colorMode *bool

// SetColors forces colors on or off, regardless of whether stdout is a terminal.
func SetColors(enabled bool) {
	colorMode = &enabled
}

// ColorsEnabled returns true when the color functions emit escape sequences.
func ColorsEnabled() bool {
	if colorMode != nil {
		return *colorMode
	}
	return term.IsTerminal(1)
}

// Color returns a function that formats its arguments like fmt.Sprint, wrapped in the escape sequence colorString
// when colors are enabled.
func Color(colorString string) func(...interface{}) string {
	return func(args ...interface{}) string {
		if ColorsEnabled() {
			return fmt.Sprintf(colorString, fmt.Sprint(args...))
		}
		return fmt.Sprint(args...)
	}
}

// Sanitize is a simple sanitizer that removes all escape sequences
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	return r[1 : len(r)-1]
}

// JoinSanitized sanitizes each string and joins them with sep.
func JoinSanitized(elems []string, sep string) string {
	s := make([]string, len(elems))
	for i, e := range elems {
		s[i] = Sanitize(e)
	}
	return strings.Join(s, sep)
}
