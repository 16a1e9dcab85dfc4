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
Package binding tracks which identifiers denote the same owned resource, and whether that resource has been released.

A [Manager] is a union-find structure over canonical identifiers. Identifiers are unioned into binding groups by
[Manager.Bind] when a value is moved or borrowed; the release status belongs to the group and is stored on the group
root. Union is by rank, and every lookup compresses the path it walked.

Managers are scoped to one function and are forked (deep-copied) by the traversal at each branch, so that the
branches of a conditional never observe each other's releases.
*/
package binding
