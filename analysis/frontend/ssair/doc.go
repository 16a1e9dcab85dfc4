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
Package ssair lowers Go functions in SSA form to the program model of package cfg.

Every SSA block becomes a block with the same index. Values are named by their SSA register; values whose type may
refer to other storage (pointers, interfaces, slices, maps, channels, functions, structs) are moved, so the result
joins the binding group of its operand, while values of basic types are copied. Field and index addresses become
mutable references to the projected place, and loads become reads through a dereference.

Calls keep their callee as a package path, a receiver type name and a function name, which is what the release,
escape and source patterns of the configuration match. At a RunDefers instruction, the deferred calls that ran on
every path reaching it (earlier in its block, or in a dominating block) are replayed last deferred first, with the
position of their defer statement.

[Analyzer] wraps the lowering and the ownership analysis in a go/analysis analyzer.
*/
package ssair
