// Package orchestrator drives one repository's replication from setup
// through reporting: wiring together the workspace, sync-state store,
// large-file detector, and branch replicator in the sequence the spec
// lays out, one repository at a time.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clayforge/reposync/internal/config"
	"github.com/clayforge/reposync/internal/gitexec"
	"github.com/clayforge/reposync/internal/lfs"
	"github.com/clayforge/reposync/internal/replicate"
	"github.com/clayforge/reposync/internal/report"
	"github.com/clayforge/reposync/internal/syncstate"
	"github.com/clayforge/reposync/internal/urlresolve"
	"github.com/clayforge/reposync/internal/workspace"
)

// sourceRemote names the remote the workspace manager configures for
// the upstream repository; orchestrator reads from it rather than
// reaching into workspace internals.
const sourceRemote = "source"

// Run replicates every configured repository, sequentially, and
// returns the aggregated report. A repository-level failure is
// recorded in the report rather than aborting the remaining
// repositories.
func Run(ctx context.Context, d *gitexec.Driver, logger *zap.Logger, global *config.Global, repos []config.Repository, forceFull bool) *report.Report {
	rep := &report.Report{}

	for _, repo := range repos {
		select {
		case <-ctx.Done():
			rep.Add(report.RepositoryReport{
				Repository: repo.Name,
				Status:     report.StatusFailed,
				Err:        ctx.Err(),
			})
			continue
		default:
		}

		rep.Add(runRepository(ctx, d, logger, global, repo, forceFull))
	}

	return rep
}

func runRepository(ctx context.Context, d *gitexec.Driver, logger *zap.Logger, global *config.Global, repo config.Repository, forceFull bool) report.RepositoryReport {
	start := time.Now()
	rr := report.RepositoryReport{Repository: repo.Name, StartTime: start}
	log := logger.With(zap.String("repository", repo.Name))

	sourceURL, destURL, err := resolveRemotes(global, repo)
	if err != nil {
		return failRepository(rr, start, err)
	}

	ws, err := workspace.Setup(ctx, d, repo.WorkspacePath, sourceURL, destURL, global.CommitUserName, global.CommitUserEmail)
	if err != nil {
		return failRepository(rr, start, fmt.Errorf("setting up workspace: %w", err))
	}

	if err := ws.Fetch(ctx); err != nil {
		return failRepository(rr, start, fmt.Errorf("fetching: %w", err))
	}

	store := syncstate.NewStore(d, ws.Dir())
	state, err := store.Read(ctx)
	if err != nil {
		return failRepository(rr, start, fmt.Errorf("reading sync state: %w", err))
	}

	repoFullSync := forceFull || state.LastSync == nil
	if repoFullSync {
		rr.Mode = "full"
	} else {
		rr.Mode = "incremental"
	}

	branches, err := d.Branches(ctx, ws.Dir(), sourceRemote)
	if err != nil {
		return failRepository(rr, start, fmt.Errorf("enumerating branches: %w", err))
	}

	ignorePatterns, err := compileIgnorePatterns(repo.IgnoreBranches)
	if err != nil {
		return failRepository(rr, start, err)
	}

	var toSync []string
	for _, b := range orderBranches(branches) {
		if b == syncstate.BranchName {
			continue
		}
		if isIgnored(b, ignorePatterns) {
			rr.IgnoredBranches = append(rr.IgnoredBranches, b)
			continue
		}
		toSync = append(toSync, b)
	}

	var detector lfs.Detector = lfs.NoopDetector{}
	if repo.EnableLFS {
		detector = lfs.NewGitDetector(d)
	}
	replicator := replicate.New(d, ws.Dir(), detector, repo.LFSFileThresholdMB, repo.LFSTotalThresholdMB)

	syncedCount := 0
	for _, src := range toSync {
		dst := src
		if mapped, ok := repo.BranchMap[src]; ok {
			dst = mapped
		}

		if err := ws.CleanBranchPrep(ctx); err != nil {
			log.Warn("failed to prepare working tree for branch", zap.String("branch", src), zap.Error(err))
		}

		res := replicator.Branch(ctx, repo.CleanHistory, repoFullSync, state, src, dst)
		switch res.Outcome {
		case replicate.Synced:
			rr.Synced++
			syncedCount++
			if _, existed := state.SyncedBranches[src]; !existed {
				rr.New++
			}
			key := syncstate.StateKey(src, dst)
			state.LastCommits[key] = res.NewCommit
			state.SyncedBranches[src] = dst
			if res.LFSTriggered {
				rr.LFSTriggered = true
			}
			log.Info("synced branch", zap.String("source", src), zap.String("dest", dst), zap.String("mode", res.Mode.String()))
		case replicate.Skipped:
			rr.Skipped++
			log.Debug("branch already up to date", zap.String("source", src))
		case replicate.Failed:
			rr.Failed++
			log.Error("branch sync failed", zap.String("source", src), zap.Error(res.Err))
		}
	}

	if err := d.PushTags(ctx, ws.Dir(), "origin"); err != nil {
		log.Warn("failed to push tags", zap.Error(err))
	}

	if syncedCount > 0 {
		if err := store.Write(ctx, state); err != nil {
			log.Warn("failed to persist sync state", zap.Error(err))
		}
	}

	rr.EndTime = time.Now()
	switch {
	case rr.Failed > 0 && rr.Synced > 0:
		rr.Status = report.StatusPartialSuccess
	case rr.Failed > 0:
		rr.Status = report.StatusFailed
	default:
		rr.Status = report.StatusSuccess
	}

	return rr
}

func resolveRemotes(global *config.Global, repo config.Repository) (sourceURL, destURL string, err error) {
	sourceURL, err = urlresolve.Resolve(repo.SourceURL, global.SourceBaseURL)
	if err != nil {
		return "", "", fmt.Errorf("resolving source URL: %w", err)
	}
	destURL, err = urlresolve.Resolve(repo.DestURL, global.DestBaseURL)
	if err != nil {
		return "", "", fmt.Errorf("resolving destination URL: %w", err)
	}

	creds := urlresolve.Credentials{
		Type:          urlresolve.AuthType(repo.Credentials.Type),
		SSHPrivateKey: repo.Credentials.SSHPrivateKey,
		Username:      repo.Credentials.Username,
		Password:      repo.Credentials.Password,
	}

	sourceURL, err = urlresolve.WithCredentials(sourceURL, creds)
	if err != nil {
		return "", "", fmt.Errorf("injecting source credentials: %w", err)
	}
	destURL, err = urlresolve.WithCredentials(destURL, creds)
	if err != nil {
		return "", "", fmt.Errorf("injecting destination credentials: %w", err)
	}

	return sourceURL, destURL, nil
}

func failRepository(rr report.RepositoryReport, start time.Time, err error) report.RepositoryReport {
	rr.StartTime = start
	rr.EndTime = time.Now()
	rr.Status = report.StatusFailed
	rr.Err = err
	return rr
}
