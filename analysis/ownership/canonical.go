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

package ownership

import (
	"strconv"
	"strings"

	"github.com/hooyq/taint-ana/analysis/binding"
	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/internal/funcutil"
)

// Canonicalize returns the identifier of the storage denoted by place, at field precision. The access chain is
// read left to right: fields are kept, a variant downcast followed by a field is kept as one step, opaque casts are
// skipped, and the first other access (dereference, index, sub-slice, lone downcast) ends the identifier.
// It returns none when the place has no base variable.
func Canonicalize(place cfg.Place) funcutil.Optional[binding.Identifier] {
	if !place.IsValid() {
		return funcutil.None[binding.Identifier]()
	}
	var b strings.Builder
	b.WriteString(place.Base)
	proj := place.Projection
loop:
	for i := 0; i < len(proj); i++ {
		switch proj[i].Kind {
		case cfg.Field:
			b.WriteByte('.')
			b.WriteString(strconv.Itoa(proj[i].Index))
		case cfg.Downcast:
			if i+1 >= len(proj) || proj[i+1].Kind != cfg.Field {
				break loop
			}
			b.WriteString("(as ")
			b.WriteString(strconv.Itoa(proj[i].Index))
			b.WriteString(").")
			b.WriteString(strconv.Itoa(proj[i+1].Index))
			i++
		case cfg.OpaqueCast:
		default:
			break loop
		}
	}
	return funcutil.Some(binding.Identifier(b.String()))
}

// BaseOnly returns the identifier of the base variable of place, or none when the place has no base variable.
func BaseOnly(place cfg.Place) funcutil.Optional[binding.Identifier] {
	if !place.IsValid() {
		return funcutil.None[binding.Identifier]()
	}
	return funcutil.Some(binding.Identifier(place.Base))
}

// operandPlace returns the place read by the operand; constants read no place
func operandPlace(op cfg.Operand) cfg.Place {
	if op.Kind == cfg.Constant {
		return cfg.Place{}
	}
	return op.Place
}
