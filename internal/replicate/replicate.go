package replicate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clayforge/reposync/internal/gitexec"
	"github.com/clayforge/reposync/internal/gitlog"
	"github.com/clayforge/reposync/internal/lfs"
	"github.com/clayforge/reposync/internal/syncstate"
)

// Outcome is the value-typed result of replicating one branch. The
// three possible outcomes are values, not exceptions: the orchestrator
// aggregates them rather than catching anything.
type Outcome string

const (
	Synced  Outcome = "synced"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// BranchError wraps a failure encountered while replicating a single
// branch, carrying enough context for the orchestrator's report.
type BranchError struct {
	Branch string
	Mode   Mode
	Err    error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("branch %s (%s): %s", e.Branch, e.Mode, e.Err)
}

func (e *BranchError) Unwrap() error { return e.Err }

// Result captures what happened when replicating one branch.
type Result struct {
	SourceBranch string
	DestBranch   string
	Mode         Mode
	Outcome      Outcome
	LFSTriggered bool
	NewCommit    string
	Err          error
}

// Replicator carries out the branch state machine against one
// workspace, on behalf of one repository.
type Replicator struct {
	driver              *gitexec.Driver
	dir                 string
	detector            lfs.Detector
	lfsFileThresholdMB  int
	lfsTotalThresholdMB int
}

// New returns a Replicator bound to the given workspace directory.
func New(d *gitexec.Driver, dir string, detector lfs.Detector, lfsFileThresholdMB, lfsTotalThresholdMB int) *Replicator {
	return &Replicator{
		driver:              d,
		dir:                 dir,
		detector:            detector,
		lfsFileThresholdMB:  lfsFileThresholdMB,
		lfsTotalThresholdMB: lfsTotalThresholdMB,
	}
}

// Branch replicates source branch src to destination branch dst,
// consulting and (via the returned Result) informing the sync-state
// store, exactly as the spec's transition table describes.
func (r *Replicator) Branch(ctx context.Context, cleanHistory, forceFull bool, state syncstate.State, src, dst string) Result {
	key := syncstate.StateKey(src, dst)
	mode := SelectMode(cleanHistory, forceFull, state, key, src, dst)

	res := Result{SourceBranch: src, DestBranch: dst, Mode: mode}

	sourceTip, err := r.driver.Capture(ctx, r.dir, "git rev-parse source/"+src)
	if err != nil {
		res.Outcome = Failed
		res.Err = fmt.Errorf("resolving source tip: %w", err)
		return res
	}

	// The skip check only applies to an incremental replay: full-replay
	// and clean-rebuild modes always proceed, mirroring how the prior
	// synced commit is only consulted when neither force_full nor
	// clean_history short-circuits the mode decision.
	if mode == Incremental {
		if last, ok := state.LastCommits[key]; ok && last == sourceTip {
			res.Outcome = Skipped
			return res
		}
	}

	var runErr error
	switch mode {
	case CleanRebuild:
		runErr = r.cleanRebuild(ctx, &res, src, dst, sourceTip)
	case FullReplay:
		runErr = r.fullReplay(ctx, &res, src, dst, sourceTip, state, key)
	case Incremental:
		runErr = r.incremental(ctx, &res, src, dst, sourceTip, state, key)
	}

	if runErr != nil {
		res.Outcome = Failed
		res.Err = &BranchError{Branch: src, Mode: mode, Err: runErr}
		return res
	}

	res.Outcome = Synced
	res.NewCommit = sourceTip
	return res
}

func (r *Replicator) cleanRebuild(ctx context.Context, res *Result, src, dst, sourceTip string) error {
	if err := r.driver.CheckoutOrphan(ctx, r.dir, dst+"-sync-tmp"); err != nil {
		return fmt.Errorf("creating orphan branch: %w", err)
	}

	if err := r.driver.Run(ctx, r.dir, "git checkout source/"+src+" -- ."); err != nil {
		return fmt.Errorf("checking out source tree: %w", err)
	}

	if err := r.driver.Stage(ctx, r.dir); err != nil {
		return fmt.Errorf("staging tree: %w", err)
	}

	triggered, err := r.detector.ScanTree(ctx, r.dir, r.lfsFileThresholdMB)
	if err != nil {
		return fmt.Errorf("scanning tree for large files: %w", err)
	}
	res.LFSTriggered = triggered

	subject, err := r.commitSubject(ctx, "source/"+src)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("[SYNC] %s\n\nOriginal SHA: %s", subject, sourceTip)
	if err := r.driver.Commit(ctx, r.dir, msg, gitexec.WithCommitAllowEmpty()); err != nil {
		return fmt.Errorf("committing orphan tree: %w", err)
	}

	if err := r.driver.Run(ctx, r.dir, fmt.Sprintf("git branch -M %s-sync-tmp %s", dst, dst)); err != nil {
		return fmt.Errorf("renaming orphan branch over %s: %w", dst, err)
	}

	if err := r.driver.Push(ctx, r.dir, "origin", dst, gitexec.WithPushForce()); err != nil {
		return fmt.Errorf("force-pushing %s: %w", dst, err)
	}

	return nil
}

func (r *Replicator) fullReplay(ctx context.Context, res *Result, src, dst, sourceTip string, state syncstate.State, key string) error {
	// -B (re)creates dst at source/src's tip regardless of whether dst
	// already exists, is unborn, or has diverged, discarding any local
	// history it had.
	if err := r.driver.Run(ctx, r.dir, fmt.Sprintf("git checkout -B %s source/%s", dst, src)); err != nil {
		return fmt.Errorf("recreating %s from source/%s: %w", dst, src, err)
	}

	addHash := r.preflightAddOriginalHash(ctx, dst, state, key)

	triggered, err := r.detector.ScanTree(ctx, r.dir, r.lfsFileThresholdMB)
	if err != nil {
		return fmt.Errorf("scanning tree for large files: %w", err)
	}
	if triggered {
		addHash = true
		if err := r.amendWithOriginalHash(ctx, sourceTip); err != nil {
			return err
		}
	}
	res.LFSTriggered = res.LFSTriggered || triggered

	totalSize, err := r.treeChangeSize(ctx, sourceTip)
	if err != nil {
		return err
	}

	if totalSize > int64(r.lfsTotalThresholdMB)*lfs.BytesPerMB {
		if err := r.stepByStep(ctx, res, src, dst, "", sourceTip, addHash); err != nil {
			return err
		}
	}

	return r.driver.Push(ctx, r.dir, "origin", dst, gitexec.WithPushForce())
}

func (r *Replicator) incremental(ctx context.Context, res *Result, src, dst, sourceTip string, state syncstate.State, key string) error {
	if err := r.driver.Run(ctx, r.dir, fmt.Sprintf("git checkout %s", dst)); err != nil {
		return fmt.Errorf("checking out %s: %w", dst, err)
	}

	if err := r.driver.ResetHard(ctx, r.dir, "origin/"+dst); err != nil {
		return fmt.Errorf("resetting %s to origin: %w", dst, err)
	}

	base := state.LastCommits[key]
	addHash := r.preflightAddOriginalHash(ctx, dst, state, key)

	totalSize, err := r.changeSize(ctx, base, sourceTip)
	if err != nil {
		return err
	}

	if totalSize > int64(r.lfsTotalThresholdMB)*lfs.BytesPerMB {
		if err := r.stepByStep(ctx, res, src, dst, base, sourceTip, addHash); err != nil {
			return err
		}
		return r.driver.Push(ctx, r.dir, "origin", dst)
	}

	if err := r.driver.Run(ctx, r.dir, fmt.Sprintf("git cherry-pick --ff --allow-empty %s..%s", base, sourceTip)); err != nil {
		_ = r.driver.Run(ctx, r.dir, "git cherry-pick --abort")
		return fmt.Errorf("cherry-picking range: %w", err)
	}

	triggered, err := r.detector.ScanChangeSet(ctx, r.dir, base, sourceTip, r.lfsFileThresholdMB)
	if err != nil {
		return fmt.Errorf("scanning change set for large files: %w", err)
	}
	if triggered {
		if err := r.amendWithOriginalHash(ctx, sourceTip); err != nil {
			return err
		}
	}
	res.LFSTriggered = res.LFSTriggered || triggered

	return r.driver.Push(ctx, r.dir, "origin", dst)
}

// stepByStep iterates commits between base and target one at a time,
// in topological (oldest-first) order, cherry-picking, re-running the
// LFS detector against just that commit's change set, and pushing
// before advancing to the next commit.
func (r *Replicator) stepByStep(ctx context.Context, res *Result, src, dst, base, target string, addHash bool) error {
	var commits []gitlog.Commit
	var err error

	if base == "" {
		commits, err = gitlog.Walk(ctx, r.driver, r.dir, target)
	} else {
		commits, err = gitlog.Since(ctx, r.driver, r.dir, base, target)
	}
	if err != nil {
		return fmt.Errorf("walking commit range: %w", err)
	}

	if base == "" && len(commits) > 0 {
		if err := r.driver.ResetHard(ctx, r.dir, commits[0].Hash); err != nil {
			return fmt.Errorf("resetting to base commit: %w", err)
		}
		base = commits[0].Hash
		commits = commits[1:]
	}

	prev := base
	if prev == "" && len(commits) == 0 {
		prev = target
	}

	for _, commit := range commits {
		if err := r.driver.CherryPick(ctx, r.dir, commit.Hash); err != nil {
			_ = r.driver.Run(ctx, r.dir, "git cherry-pick --abort")
			return fmt.Errorf("cherry-picking %s: %w", commit.Hash, err)
		}

		triggered, err := r.detector.ScanChangeSet(ctx, r.dir, prev, commit.Hash, r.lfsFileThresholdMB)
		if err != nil {
			return fmt.Errorf("scanning commit %s for large files: %w", commit.Hash, err)
		}
		if triggered {
			addHash = true
		}
		res.LFSTriggered = res.LFSTriggered || triggered

		msg := commit.Message
		if addHash {
			msg = fmt.Sprintf("[SYNC] %s\n\nOriginal SHA: %s", firstLine(commit.Message), commit.Hash)
		}

		opts := []gitexec.CommitOption{
			gitexec.WithCommitAllowEmpty(),
			gitexec.WithCommitAuthor(commit.Author()),
			gitexec.WithCommitDate(commit.AuthorDate.Format(time.RFC3339)),
		}
		if err := r.driver.Commit(ctx, r.dir, msg, opts...); err != nil {
			return fmt.Errorf("committing replayed commit %s: %w", commit.Hash, err)
		}

		if err := r.driver.Push(ctx, r.dir, "origin", dst); err != nil {
			return fmt.Errorf("pushing after commit %s: %w", commit.Hash, err)
		}

		prev = commit.Hash
	}

	return nil
}

// preflightAddOriginalHash computes, once per branch, whether every
// replayed commit must be amended with its original SHA: either the
// destination diverged from the last known commit, or (checked later,
// folded back in by the caller) the LFS detector changes the tree.
// The result is applied only by commit-by-commit replay; a bulk
// cherry-pick of the range keeps the original messages, and a bulk
// replay amends only its final commit, and only when the detector
// triggered.
func (r *Replicator) preflightAddOriginalHash(ctx context.Context, dst string, state syncstate.State, key string) bool {
	last, ok := state.LastCommits[key]
	if !ok {
		return false
	}

	head, err := r.driver.Capture(ctx, r.dir, "git rev-parse origin/"+dst)
	if err != nil {
		return false
	}

	return head != last
}

func (r *Replicator) amendWithOriginalHash(ctx context.Context, sourceTip string) error {
	subject, err := r.commitSubject(ctx, "HEAD")
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("[SYNC] %s\n\nOriginal SHA: %s", subject, sourceTip)
	quoted := "'" + strings.ReplaceAll(msg, "'", `'\''`) + "'"
	return r.driver.Run(ctx, r.dir, "git commit --amend -m "+quoted)
}

func (r *Replicator) commitSubject(ctx context.Context, ref string) (string, error) {
	out, err := r.driver.Capture(ctx, r.dir, "git log -1 --format=%s "+ref)
	if err != nil {
		return "", fmt.Errorf("reading commit subject: %w", err)
	}
	return out, nil
}

func (r *Replicator) treeChangeSize(ctx context.Context, ref string) (int64, error) {
	out, err := r.driver.Capture(ctx, r.dir, "git ls-tree -r --format='%(objectsize)' "+ref)
	if err != nil {
		return 0, fmt.Errorf("sizing tree: %w", err)
	}
	return sumSizes(out), nil
}

func (r *Replicator) changeSize(ctx context.Context, fromRef, toRef string) (int64, error) {
	paths, err := r.driver.DiffNameOnly(ctx, r.dir, fromRef, toRef)
	if err != nil {
		return 0, fmt.Errorf("diffing change set: %w", err)
	}

	var total int64
	for _, p := range paths {
		size, err := r.driver.BlobSize(ctx, r.dir, toRef, p)
		if err != nil {
			continue
		}
		total += size
	}
	return total, nil
}

func sumSizes(out string) int64 {
	var total int64
	for _, line := range strings.Split(out, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "'")
		if line == "" {
			continue
		}
		if n, err := strconv.ParseInt(line, 10, 64); err == nil {
			total += n
		}
	}
	return total
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
