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

package config

const (
	// DefaultContextDepth is the number of predecessor blocks that distinguish two visits of a block in
	// path-sensitive mode.
	DefaultContextDepth = 2
	// DefaultMaxVisitsPerBlock bounds the number of times a block is visited in path-sensitive mode, whatever the
	// number of distinct histories reaching it.
	DefaultMaxVisitsPerBlock = 8
	// DefaultReturnPlace is the variable holding the return value of a function. Return terminators read it.
	DefaultReturnPlace = "_0"
)
