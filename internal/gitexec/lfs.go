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

package gitexec

import (
	"context"
	"fmt"
	"strings"
)

// LFSInstall registers the LFS smudge/clean filters for dir's
// repository-local git config, equivalent to `git lfs install
// --local`.
func (d *Driver) LFSInstall(ctx context.Context, dir string) error {
	return d.Run(ctx, dir, "git lfs install --local")
}

// LFSTrack adds a pattern to .gitattributes marking matching paths as
// LFS-tracked. The caller is still responsible for staging
// .gitattributes itself.
func (d *Driver) LFSTrack(ctx context.Context, dir, pattern string) error {
	return d.Run(ctx, dir, fmt.Sprintf("git lfs track %q", pattern))
}

// IsLFSTracked reports whether path would be captured by the current
// .gitattributes LFS filter rules.
func (d *Driver) IsLFSTracked(ctx context.Context, dir, path string) (bool, error) {
	out, err := d.Capture(ctx, dir, fmt.Sprintf("git check-attr filter -- %q", path))
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "filter: lfs"), nil
}
