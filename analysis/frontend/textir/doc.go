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

/*
Package textir parses the textual intermediate representation of functions into the [cfg] model.

A file contains functions. A function declares its externs, then its blocks; the first block is the entry:

	fn demo::main {
	    ext a "stdin";
	    bb0: {
	        b = move a;
	        r = &b.0;
	        switch copy r -> [bb1, bb2];
	    }
	    bb1: { drop b -> bb2; }
	    bb2: { return; }
	}

Places are written as a base variable followed by projections: .N (field), @N (variant), .* (dereference),
[i] (index by a variable), [N] (constant index), [N..M] (subslice) and .opaque (opaque cast). The last item of a
block is its terminator. A call with targets (call dest = f(args) -> bb1) terminates its block; a call without
targets is a statement.
*/
package textir
