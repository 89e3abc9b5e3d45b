// Package workspace manages the single persistent "unified work
// directory" per repository: a clone of the destination with an
// additional source remote, reused across runs and recovered from
// drift when the destination's identity no longer matches.
package workspace

import (
	"context"
	"fmt"
	"os"

	"github.com/clayforge/reposync/internal/gitexec"
	"github.com/clayforge/reposync/internal/urlresolve"
)

const (
	originRemote = "origin"
	sourceRemote = "source"

	// maxRecoveryDepth bounds the delete-and-reclone recursion to a
	// single retry: a drifted workspace that drifts again right after
	// a fresh clone indicates a configuration problem, not something
	// retrying further would fix.
	maxRecoveryDepth = 1
)

// ErrOriginMismatch is raised when an existing workspace's origin
// remote does not normalize to the configured destination URL.
type ErrOriginMismatch struct {
	Dir      string
	Expected string
	Actual   string
}

func (e ErrOriginMismatch) Error() string {
	return fmt.Sprintf("workspace %s has origin %q, expected equivalent of %q", e.Dir, e.Actual, e.Expected)
}

// Workspace is the unified work directory for a single repository.
type Workspace struct {
	driver *gitexec.Driver
	dir    string
}

// Setup ensures dir contains a clone of destURL with source and
// origin remotes correctly configured, recovering once from drift
// before giving up.
func Setup(ctx context.Context, d *gitexec.Driver, dir, sourceURL, destURL, commitName, commitEmail string) (*Workspace, error) {
	return setup(ctx, d, dir, sourceURL, destURL, commitName, commitEmail, maxRecoveryDepth)
}

func setup(ctx context.Context, d *gitexec.Driver, dir, sourceURL, destURL, commitName, commitEmail string, retriesLeft int) (*Workspace, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := d.Clone(ctx, destURL, dir); err != nil {
			return nil, fmt.Errorf("cloning destination: %w", err)
		}
		if err := d.AddRemote(ctx, dir, sourceRemote, sourceURL); err != nil {
			return nil, fmt.Errorf("adding source remote: %w", err)
		}
	} else {
		current, err := d.RemoteURL(ctx, dir, originRemote)
		if err != nil {
			return nil, fmt.Errorf("reading origin remote: %w", err)
		}

		if !urlresolve.Equivalent(current, destURL) {
			if retriesLeft <= 0 {
				return nil, ErrOriginMismatch{Dir: dir, Expected: destURL, Actual: current}
			}

			if err := os.RemoveAll(dir); err != nil {
				return nil, fmt.Errorf("removing drifted workspace: %w", err)
			}
			return setup(ctx, d, dir, sourceURL, destURL, commitName, commitEmail, retriesLeft-1)
		}

		if err := d.SetRemoteURL(ctx, dir, originRemote, destURL); err != nil {
			return nil, fmt.Errorf("refreshing origin credentials: %w", err)
		}

		if _, err := d.RemoteURL(ctx, dir, sourceRemote); err != nil {
			if err := d.AddRemote(ctx, dir, sourceRemote, sourceURL); err != nil {
				return nil, fmt.Errorf("adding source remote: %w", err)
			}
		} else if err := d.SetRemoteURL(ctx, dir, sourceRemote, sourceURL); err != nil {
			return nil, fmt.Errorf("refreshing source remote: %w", err)
		}
	}

	if err := d.SetIdentity(ctx, dir, commitName, commitEmail); err != nil {
		return nil, fmt.Errorf("setting commit identity: %w", err)
	}

	return &Workspace{driver: d, dir: dir}, nil
}

// Dir is the absolute path to the workspace's sync_work directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Fetch refreshes both remotes per the orchestrator's fetch policy:
// prune origin, prune source, and pull down source's tags.
func (w *Workspace) Fetch(ctx context.Context) error {
	if err := w.driver.Fetch(ctx, w.dir, originRemote, gitexec.WithFetchPrune()); err != nil {
		return fmt.Errorf("fetching origin: %w", err)
	}
	if err := w.driver.Fetch(ctx, w.dir, sourceRemote, gitexec.WithFetchPrune()); err != nil {
		return fmt.Errorf("fetching source: %w", err)
	}
	if err := w.driver.Fetch(ctx, w.dir, sourceRemote, gitexec.WithFetchTags()); err != nil {
		return fmt.Errorf("fetching source tags: %w", err)
	}
	return nil
}

// CleanBranchPrep resets and cleans the working tree before any
// branch operation, tolerating a crash mid cherry-pick from a prior,
// signal-interrupted run.
func (w *Workspace) CleanBranchPrep(ctx context.Context) error {
	_ = w.driver.Run(ctx, w.dir, "git cherry-pick --abort")

	if empty, _ := w.driver.IsEmptyRepository(ctx, w.dir); !empty {
		if err := w.driver.ResetHard(ctx, w.dir, "HEAD"); err != nil {
			return fmt.Errorf("resetting working tree: %w", err)
		}
	}

	return w.driver.Run(ctx, w.dir, "git clean -fdx")
}
