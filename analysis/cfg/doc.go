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
Package cfg defines the normalized program model consumed by the ownership analysis.

A [Function] is a control-flow graph of [Block]s. Each block holds an ordered list of [Statement]s and exactly one
[Terminator]. Operands refer to storage through a [Place]: a base variable followed by a chain of [Projection]s
(field, variant downcast, dereference, index, ...).

Front ends (see analysis/frontend/textir and analysis/frontend/ssair) produce this model; the analysis never looks
at the original program representation. Visitors implement [EventOp] and are driven by [StatementSwitch],
[TerminatorSwitch] and [VisitBlock].
*/
package cfg
