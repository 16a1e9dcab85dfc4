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

package binding

import (
	"errors"
	"fmt"
)

// ErrUnregistered is returned when an operation refers to an identifier that has not been registered in the manager
var ErrUnregistered = errors.New("identifier not registered")

// A BindError is returned by Bind when one of the identifiers is not registered. The union is skipped.
type BindError struct {
	ID1     Identifier
	ID2     Identifier
	Missing Identifier
}

func (e *BindError) Error() string {
	return fmt.Sprintf("cannot bind %s to %s: %s: %v", e.ID2, e.ID1, e.Missing, ErrUnregistered)
}

// Unwrap returns ErrUnregistered
func (e *BindError) Unwrap() error {
	return ErrUnregistered
}

func unregistered(id Identifier) error {
	return fmt.Errorf("%s: %w", id, ErrUnregistered)
}
