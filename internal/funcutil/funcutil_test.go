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

package funcutil

import (
	"reflect"
	"testing"
)

func TestOptional(t *testing.T) {
	var zero Optional[int]
	if zero.IsSome() || !zero.IsNone() {
		t.Errorf("zero optional should be none")
	}
	if zero.ValueOr(3) != 3 {
		t.Errorf("ValueOr on none should return the default")
	}
	x := Some(5)
	if !x.IsSome() || x.Value() != 5 || x.ValueOr(3) != 5 {
		t.Errorf("Some(5) does not hold 5")
	}
	if !SomeEquals(x, 5) || SomeEquals(x, 4) || SomeEquals(None[int](), 0) {
		t.Errorf("SomeEquals is wrong")
	}
	if MaybeOr(zero, x).Value() != 5 || MaybeOr(Some(1), x).Value() != 1 {
		t.Errorf("MaybeOr picks the wrong optional")
	}
	if x.String() != "5" || zero.String() != "none" {
		t.Errorf("wrong strings %q %q", x.String(), zero.String())
	}
}

func TestValuePanicsOnNone(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Value on none should panic")
		}
	}()
	None[string]().Value()
}

func TestCollections(t *testing.T) {
	if got := Map([]int{1, 2}, func(i int) int { return i * 2 }); !reflect.DeepEqual(got, []int{2, 4}) {
		t.Errorf("Map: %v", got)
	}
	if got := SortedKeys(map[string]bool{"c": true, "a": false, "b": true}); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedKeys: %v", got)
	}
	a := []int{1, 2, 3}
	Reverse(a)
	if !reflect.DeepEqual(a, []int{3, 2, 1}) {
		t.Errorf("Reverse: %v", a)
	}
}
