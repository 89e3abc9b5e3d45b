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

// FetchOption customizes how changes are pulled down from a remote
// without merging them into the current working tree.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	Prune bool
	Tags  bool
}

// WithFetchPrune removes remote-tracking references that no longer
// exist on the remote, keeping branch enumeration free of stale refs.
func WithFetchPrune() FetchOption {
	return func(o *fetchOptions) { o.Prune = true }
}

// WithFetchTags fetches all tags from the remote regardless of
// whether the tagged commit is reachable from a fetched branch.
func WithFetchTags() FetchOption {
	return func(o *fetchOptions) { o.Tags = true }
}

// Fetch the latest changes from the named remote into the repository
// rooted at dir.
func (d *Driver) Fetch(ctx context.Context, dir, remote string, opts ...FetchOption) error {
	options := &fetchOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var buf strings.Builder
	buf.WriteString("git fetch")

	if options.Prune {
		buf.WriteString(" --prune")
	}
	if options.Tags {
		buf.WriteString(" --tags")
	}

	buf.WriteString(" ")
	buf.WriteString(remote)

	return d.Run(ctx, dir, buf.String())
}

// AddRemote registers a new remote under name pointing at url. A
// remote that already exists under that name is left untouched by the
// caller instead: this mirrors the `git remote add` failure mode of
// refusing to overwrite an existing remote.
func (d *Driver) AddRemote(ctx context.Context, dir, name, url string) error {
	return d.Run(ctx, dir, fmt.Sprintf("git remote add %s %q", name, url))
}

// SetRemoteURL rewrites the URL of an already configured remote.
func (d *Driver) SetRemoteURL(ctx context.Context, dir, name, url string) error {
	return d.Run(ctx, dir, fmt.Sprintf("git remote set-url %s %q", name, url))
}

// RemoteURL returns the configured URL for the named remote, or an
// error if no such remote exists.
func (d *Driver) RemoteURL(ctx context.Context, dir, name string) (string, error) {
	return d.Capture(ctx, dir, fmt.Sprintf("git remote get-url %s", name))
}
