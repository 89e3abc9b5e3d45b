package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clayforge/reposync/internal/config"
	"github.com/clayforge/reposync/internal/gittest"
	"github.com/clayforge/reposync/internal/report"
)

func newRepository(t *testing.T, pair *gittest.Pair, ignoreBranches []string) config.Repository {
	t.Helper()
	return config.Repository{
		Name:                "fixture",
		SourceURL:           pair.SourceBare,
		DestURL:             pair.DestBare,
		WorkspacePath:       filepath.Join(t.TempDir(), "work"),
		LFSFileThresholdMB:  100,
		LFSTotalThresholdMB: 500,
		IgnoreBranches:      ignoreBranches,
	}
}

func newGlobal() *config.Global {
	return &config.Global{
		CommitUserName:  gittest.DefaultAuthorName,
		CommitUserEmail: gittest.DefaultAuthorEmail,
	}
}

func TestRunFirstTimeSyncReplicatesAllBranches(t *testing.T) {
	pair := gittest.NewPair(t)
	mainHash := pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})
	devHash := pair.Seed("dev", "dev work", map[string]string{"dev.md": "wip"})

	repo := newRepository(t, pair, nil)
	rep := Run(context.Background(), pair.Driver, zap.NewNop(), newGlobal(), []config.Repository{repo}, false)

	require.Len(t, rep.Repositories, 1)
	rr := rep.Repositories[0]
	assert.Equal(t, report.StatusSuccess, rr.Status)
	assert.Equal(t, "full", rr.Mode)
	assert.Equal(t, 2, rr.Synced)
	assert.Equal(t, 2, rr.New)
	assert.Equal(t, 0, rr.Failed)

	assert.Equal(t, mainHash, pair.RevParse(pair.DestBare, "main"))
	assert.Equal(t, devHash, pair.RevParse(pair.DestBare, "dev"))
}

func TestRunIgnoresBranchMatchingPattern(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})
	pair.Seed("tmp/hotfix", "scratch work", map[string]string{"scratch.md": "wip"})

	repo := newRepository(t, pair, []string{"tmp/*"})
	rep := Run(context.Background(), pair.Driver, zap.NewNop(), newGlobal(), []config.Repository{repo}, false)

	require.Len(t, rep.Repositories, 1)
	rr := rep.Repositories[0]
	assert.Equal(t, 1, rr.Synced)
	assert.Equal(t, []string{"tmp/hotfix"}, rr.IgnoredBranches)

	_, err := pair.Driver.Capture(context.Background(), pair.DestBare, "git rev-parse --verify refs/heads/tmp/hotfix")
	assert.Error(t, err)
}

func TestRunSecondPassIsIncrementalAndSkipsUnchanged(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})

	repo := newRepository(t, pair, nil)
	global := newGlobal()

	first := Run(context.Background(), pair.Driver, zap.NewNop(), global, []config.Repository{repo}, false)
	require.Equal(t, report.StatusSuccess, first.Repositories[0].Status)

	second := Run(context.Background(), pair.Driver, zap.NewNop(), global, []config.Repository{repo}, false)
	require.Len(t, second.Repositories, 1)
	rr := second.Repositories[0]
	assert.Equal(t, "incremental", rr.Mode)
	assert.Equal(t, 0, rr.Synced)
	assert.Equal(t, 1, rr.Skipped)
	assert.Equal(t, report.StatusSuccess, rr.Status)
}
