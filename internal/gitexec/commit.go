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

// CommitOption customizes a Commit invocation.
type CommitOption func(*commitOptions)

type commitOptions struct {
	AllowEmpty bool
	Author     string
	Date       string
}

// WithCommitAllowEmpty permits a commit with an identical tree to its
// parent, used for preserving empty commits during a faithful replay.
func WithCommitAllowEmpty() CommitOption {
	return func(o *commitOptions) { o.AllowEmpty = true }
}

// WithCommitAuthor overrides the commit author, formatted as
// "Name <email>", so replayed commits preserve the original author
// rather than attributing everything to the local git identity.
func WithCommitAuthor(author string) CommitOption {
	return func(o *commitOptions) { o.Author = author }
}

// WithCommitDate overrides both the author and committer dates with
// an RFC 2822 or ISO 8601 timestamp, preserving original commit
// chronology across a replay.
func WithCommitDate(date string) CommitOption {
	return func(o *commitOptions) { o.Date = date }
}

// Commit the currently staged changes with the given message.
func (d *Driver) Commit(ctx context.Context, dir, msg string, opts ...CommitOption) error {
	options := &commitOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var buf strings.Builder
	buf.WriteString("git commit")

	if options.AllowEmpty {
		buf.WriteString(" --allow-empty")
	}
	if options.Author != "" {
		buf.WriteString(fmt.Sprintf(" --author=%q", options.Author))
	}
	if options.Date != "" {
		buf.WriteString(fmt.Sprintf(" --date=%q", options.Date))
	}

	// single-quoted so newlines, quotes and $ reach git verbatim
	buf.WriteString(" -m " + quotePath(msg))

	env := ""
	if options.Date != "" {
		env = fmt.Sprintf("GIT_COMMITTER_DATE=%q ", options.Date)
	}

	return d.Run(ctx, dir, env+buf.String())
}

// SetIdentity configures the commit author identity used for any
// commit created in dir, scoped to the local repository config only.
func (d *Driver) SetIdentity(ctx context.Context, dir, name, email string) error {
	if err := d.Run(ctx, dir, fmt.Sprintf("git config user.name %q", name)); err != nil {
		return err
	}
	return d.Run(ctx, dir, fmt.Sprintf("git config user.email %q", email))
}
