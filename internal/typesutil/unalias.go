//go:build go1.22

// Package typesutil provides go/types helpers that work across Go versions.
package typesutil

import "go/types"

// Unalias returns t with all alias types removed.
func Unalias(t types.Type) types.Type { return types.Unalias(t) }
