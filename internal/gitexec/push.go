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

// PushOption customizes a Push invocation.
type PushOption func(*pushOptions)

type pushOptions struct {
	Force bool
}

// WithPushForce allows a non-fast-forward update, required by the
// clean-rebuild mode where the destination branch is replaced with a
// freshly built orphan history.
func WithPushForce() PushOption {
	return func(o *pushOptions) { o.Force = true }
}

// Push the named local branch to the named remote.
func (d *Driver) Push(ctx context.Context, dir, remote, branch string, opts ...PushOption) error {
	options := &pushOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var buf strings.Builder
	buf.WriteString("git push")

	if options.Force {
		buf.WriteString(" --force")
	}

	buf.WriteString(" ")
	buf.WriteString(remote)
	buf.WriteString(" ")
	buf.WriteString(fmt.Sprintf("%s:%s", branch, branch))

	return d.Run(ctx, dir, buf.String())
}

// PushTags pushes every local tag reference to the named remote in a
// single bulk operation.
func (d *Driver) PushTags(ctx context.Context, dir, remote string) error {
	return d.Run(ctx, dir, fmt.Sprintf("git push %s --tags", remote))
}
