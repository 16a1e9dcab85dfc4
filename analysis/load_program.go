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

package analysis

import (
	"fmt"
	"go/token"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// PkgLoadMode is the default loading mode in the analyses. We load all possible information.
const PkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedExportFile |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

// LoadedProgram represents a loaded program.
type LoadedProgram struct {
	// Program is the SSA version of the program.
	Program *ssa.Program
	// Packages is the list of packages matched by the arguments of LoadProgram.
	Packages []*packages.Package
	// SSAPackages are the SSA packages of Packages, in the same order.
	SSAPackages []*ssa.Package
	// Directives are the ownercheck directives found in the comments of Packages.
	Directives Directives
}

// LoadProgram loads a program on platform "platform" using the buildmode provided and the args.
// To understand how to specify the args, look at the documentation of packages.Load.
func LoadProgram(config *packages.Config,
	platform string,
	buildmode ssa.BuilderMode,
	args []string) (LoadedProgram, error) {

	if config == nil {
		config = &packages.Config{Mode: PkgLoadMode, Fset: token.NewFileSet()}
	}

	if platform != "" {
		config.Env = append(os.Environ(), fmt.Sprintf("GOOS=%s", platform))
	}

	pkgs, err := packages.Load(config, args...)
	if err != nil {
		return LoadedProgram{}, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return LoadedProgram{}, fmt.Errorf("no packages match %s", strings.Join(args, " "))
	}
	if err := packageErrors(pkgs); err != nil {
		return LoadedProgram{}, err
	}

	program, ssaPackages := ssautil.AllPackages(pkgs, buildmode)
	for i, p := range ssaPackages {
		if p == nil {
			return LoadedProgram{}, fmt.Errorf("cannot build SSA for package %s", pkgs[i])
		}
	}
	program.Build()

	return LoadedProgram{
		Program:     program,
		Packages:    pkgs,
		SSAPackages: ssaPackages,
		Directives:  findDirectives(pkgs, program.Fset),
	}, nil
}

// maxPackageErrors is the number of loading errors kept in the error returned by LoadProgram
const maxPackageErrors = 5

// packageErrors returns an error summarizing the errors of pkgs and their dependencies, or nil.
func packageErrors(pkgs []*packages.Package) error {
	var msgs []string
	total := 0
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			total++
			if len(msgs) < maxPackageErrors {
				msgs = append(msgs, e.Error())
			}
		}
	})
	if total == 0 {
		return nil
	}
	if total > len(msgs) {
		msgs = append(msgs, fmt.Sprintf("and %d more", total-len(msgs)))
	}
	return fmt.Errorf("errors while loading packages:\n\t%s", strings.Join(msgs, "\n\t"))
}
