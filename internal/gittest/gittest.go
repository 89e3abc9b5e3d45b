/*
Copyright (c) 2023 Purple Clay

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package gittest builds throwaway local bare repository pairs for
// integration tests, standing in for the "source" and "dest" remotes
// a real run would replicate between.
package gittest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clayforge/reposync/internal/gitexec"
)

const (
	// DefaultAuthorName is the commit identity used to seed fixture
	// commits in a source bare repository.
	DefaultAuthorName = "mirror-fixture"

	// DefaultAuthorEmail pairs with DefaultAuthorName.
	DefaultAuthorEmail = "mirror-fixture@example.com"
)

// Pair is a source/dest bare repository pair plus a scratch clone
// used to seed the source with commits.
type Pair struct {
	T          *testing.T
	Driver     *gitexec.Driver
	SourceBare string
	DestBare   string
	seed       string
}

// NewPair creates empty bare repositories named source.git and
// dest.git under a fresh temporary directory, along with a scratch
// clone of source.git used by Seed to author fixture commits.
func NewPair(t *testing.T) *Pair {
	t.Helper()

	root := t.TempDir()
	d, err := gitexec.NewDriver(false)
	require.NoError(t, err)

	sourceBare := filepath.Join(root, "source.git")
	destBare := filepath.Join(root, "dest.git")
	seed := filepath.Join(root, "seed")

	ctx := context.Background()
	require.NoError(t, d.Run(ctx, "", "git init --bare --initial-branch=main -- "+sourceBare))
	require.NoError(t, d.Run(ctx, "", "git init --bare --initial-branch=main -- "+destBare))
	require.NoError(t, d.Clone(ctx, sourceBare, seed))
	require.NoError(t, d.SetIdentity(ctx, seed, DefaultAuthorName, DefaultAuthorEmail))

	return &Pair{T: t, Driver: d, SourceBare: sourceBare, DestBare: destBare, seed: seed}
}

// Seed writes the given files (path to content) into the source
// clone's working tree on branch, commits them, and pushes the
// branch back to source.git.
func (p *Pair) Seed(branch, message string, files map[string]string) string {
	p.T.Helper()
	ctx := context.Background()

	current, err := p.Driver.Capture(ctx, p.seed, "git symbolic-ref --short HEAD")
	if err != nil || current != branch {
		require.NoError(p.T, p.Driver.Checkout(ctx, p.seed, branch))
	}

	var paths []string
	for path, content := range files {
		full := filepath.Join(p.seed, path)
		require.NoError(p.T, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(p.T, os.WriteFile(full, []byte(content), 0o644))
		paths = append(paths, path)
	}

	require.NoError(p.T, p.Driver.Stage(ctx, p.seed, paths...))
	require.NoError(p.T, p.Driver.Commit(ctx, p.seed, message))
	require.NoError(p.T, p.Driver.Push(ctx, p.seed, "origin", branch))

	hash, err := p.Driver.Capture(ctx, p.seed, "git rev-parse HEAD")
	require.NoError(p.T, err)
	return hash
}

// RevParse resolves ref inside the given bare (or any) repository
// path, failing the test on error.
func (p *Pair) RevParse(dir, ref string) string {
	p.T.Helper()
	out, err := p.Driver.Capture(context.Background(), dir, "git rev-parse "+ref)
	require.NoError(p.T, err)
	return out
}
