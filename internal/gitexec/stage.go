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
	"strings"
)

// Stage adds the given pathspecs to the index. With no pathspecs,
// every tracked and untracked change in the working tree is staged.
func (d *Driver) Stage(ctx context.Context, dir string, pathspecs ...string) error {
	var buf strings.Builder
	buf.WriteString("git add")

	if len(pathspecs) > 0 {
		buf.WriteString(" --")
		for _, p := range pathspecs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			buf.WriteString(" ")
			buf.WriteString(p)
		}
	} else {
		buf.WriteString(" --all")
	}

	return d.Run(ctx, dir, buf.String())
}

// DiffNameOnly returns the paths of every file that differs between
// two refs, used to size a prospective change before deciding whether
// it must be staged through Large File Storage.
func (d *Driver) DiffNameOnly(ctx context.Context, dir, fromRef, toRef string) ([]string, error) {
	out, err := d.Capture(ctx, dir, "git diff --name-only "+fromRef+" "+toRef)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// BlobSize returns the size in bytes of a blob recorded at ref for
// the given path, via `git cat-file -s`.
func (d *Driver) BlobSize(ctx context.Context, dir, ref, path string) (int64, error) {
	out, err := d.Capture(ctx, dir, "git cat-file -s "+ref+":"+quotePath(path))
	if err != nil {
		return 0, err
	}
	return parseInt64(out)
}

func quotePath(p string) string {
	return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
}
