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

// Branches lists the remote-tracking branches of the named remote in
// dir, with the "<remote>/" prefix stripped. Local branches and the
// branches of other remotes are not listed.
func (d *Driver) Branches(ctx context.Context, dir, remote string) ([]string, error) {
	out, err := d.Capture(ctx, dir, "git branch -r --format='%(refname:short)'")
	if err != nil {
		return nil, err
	}

	if out == "" {
		return nil, nil
	}

	seen := map[string]bool{}
	var branches []string
	prefix := remote + "/"

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, prefix) {
			continue
		}

		name := strings.TrimPrefix(line, prefix)
		if name == "HEAD" || strings.Contains(name, "HEAD ->") {
			continue
		}

		if !seen[name] {
			seen[name] = true
			branches = append(branches, name)
		}
	}

	return branches, nil
}

// Checkout switches to branch, creating it from the current HEAD if
// it does not already exist locally or on the remote.
func (d *Driver) Checkout(ctx context.Context, dir, branch string) error {
	out, err := d.Capture(ctx, dir, "git branch --all --format='%(refname:short)'")
	if err != nil {
		return err
	}

	for _, ref := range strings.Split(out, "\n") {
		if strings.HasSuffix(strings.TrimSpace(ref), "/"+branch) || strings.TrimSpace(ref) == branch {
			return d.Run(ctx, dir, fmt.Sprintf("git checkout %s", branch))
		}
	}

	return d.Run(ctx, dir, fmt.Sprintf("git checkout -b %s", branch))
}

// CheckoutOrphan creates and switches to a brand new branch with no
// parent commit and no inherited working tree, the starting point of
// a clean-rebuild replication.
func (d *Driver) CheckoutOrphan(ctx context.Context, dir, branch string) error {
	if err := d.Run(ctx, dir, fmt.Sprintf("git checkout --orphan %s", branch)); err != nil {
		return err
	}
	return d.Run(ctx, dir, "git rm -rf --ignore-unmatch .")
}

// ResetHard discards all working tree and index changes, resetting
// HEAD to ref.
func (d *Driver) ResetHard(ctx context.Context, dir, ref string) error {
	return d.Run(ctx, dir, fmt.Sprintf("git reset --hard %s", ref))
}

// CherryPick replays a single commit onto the current branch without
// committing automatically, so the caller can amend metadata first.
func (d *Driver) CherryPick(ctx context.Context, dir, commit string) error {
	return d.Run(ctx, dir, fmt.Sprintf("git cherry-pick --no-commit --allow-empty %s", commit))
}

// IsEmptyRepository reports whether HEAD in dir does not resolve to a
// commit, as in a fresh clone of an empty repository. Other branches
// are not inspected.
func (d *Driver) IsEmptyRepository(ctx context.Context, dir string) (bool, error) {
	_, err := d.Capture(ctx, dir, "git rev-parse --verify HEAD")
	if err != nil {
		return true, nil
	}
	return false, nil
}
