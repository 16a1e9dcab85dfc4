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

package refactor_test

import (
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hooyq/taint-ana/analysis"
	"github.com/hooyq/taint-ana/analysis/refactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

const source = `package sup

import "os"

func closeTwice(f *os.File) {
	f.Close()
	// closed again
	f.Close()
	if err := f.Close(); err != nil {
		return
	}
}
`

func writeModule(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/sup\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sup.go"), []byte(source), 0o644))
	return dir
}

func TestSuppress(t *testing.T) {
	dir := writeModule(t)
	file := filepath.Join(dir, "sup.go")
	positions := []token.Position{
		{Filename: file, Line: 8, Column: 9},
		{Filename: file, Line: 9, Column: 14},
		{Filename: file, Line: 9, Column: 20},
		{Filename: file, Line: 3, Column: 1},
	}
	cfg := &packages.Config{Dir: dir, Mode: analysis.PkgLoadMode}
	res, err := refactor.Suppress(cfg, []string{"./..."}, positions)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Len(t, res.Files, 1)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, 3, res.Unmatched[0].Line)

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "// closed again\n\t"+refactor.IgnoreComment+"\n\tf.Close()")
	assert.Contains(t, text, refactor.IgnoreComment+"\n\tif err := f.Close(); err != nil {")
	assert.Equal(t, 2, strings.Count(text, refactor.IgnoreComment))

	// a second pass leaves the file unchanged
	again, err := refactor.Suppress(cfg, []string{"./..."}, positions[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Empty(t, again.Files)
}
