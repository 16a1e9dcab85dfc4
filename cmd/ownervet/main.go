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

// ownervet runs the ownership analyzer as a standalone vet tool:
//
//	ownervet [-config config.yaml] ./...
//
// or through go vet:
//
//	go vet -vettool=$(which ownervet) ./...
package main

import (
	"github.com/hooyq/taint-ana/analysis/frontend/ssair"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(ssair.Analyzer)
}
