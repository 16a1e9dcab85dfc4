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
Package ownership implements the detection of use-after-release and double-release violations.

The [Analyzer] explores the control-flow graph of each function with the traversal package. On each admitted block
visit, a classifier turns the statements and the terminator of the block into binding events on the
[binding.Manager] of the current path:

  - reads check that the group of the read identifier is not released,
  - moves and borrows bind the target into the group of the source,
  - drops and calls to release functions release the group of their operand,
  - writing a whole variable (directly or through one dereference) starts a new lifetime for its group.

Operands are turned into identifiers by [Canonicalize], which keeps static field accesses, or by [BaseOnly] when
only the liveness of the base variable matters.

Releasing an identifier is a [DoubleRelease] only if the same identifier was already released at another location
in the same lifetime of its group.
*/
package ownership
