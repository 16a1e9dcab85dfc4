//go:build !go1.22

// Package typesutil provides go/types helpers that work across Go versions.
package typesutil

import "go/types"

// Unalias returns t unchanged: go/types has no alias types before Go 1.22.
func Unalias(t types.Type) types.Type { return t }
