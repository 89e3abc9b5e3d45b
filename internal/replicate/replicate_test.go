package replicate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayforge/reposync/internal/gittest"
	"github.com/clayforge/reposync/internal/syncstate"
)

// noopDetector never flags a candidate, letting tests exercise the
// replication state machine without requiring a real git-lfs binary.
type noopDetector struct{}

func (noopDetector) ScanTree(ctx context.Context, dir string, thresholdMB int) (bool, error) {
	return false, nil
}

func (noopDetector) ScanChangeSet(ctx context.Context, dir, fromRef, toRef string, thresholdMB int) (bool, error) {
	return false, nil
}

func newWorkspace(t *testing.T, pair *gittest.Pair) string {
	t.Helper()
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "work")
	require.NoError(t, pair.Driver.Clone(ctx, pair.DestBare, dir))
	require.NoError(t, pair.Driver.AddRemote(ctx, dir, "source", pair.SourceBare))
	require.NoError(t, pair.Driver.SetIdentity(ctx, dir, gittest.DefaultAuthorName, gittest.DefaultAuthorEmail))
	require.NoError(t, pair.Driver.Fetch(ctx, dir, "source"))
	require.NoError(t, pair.Driver.Fetch(ctx, dir, "origin"))

	return dir
}

func TestBranchFirstTimeSyncFullReplay(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})

	dir := newWorkspace(t, pair)
	r := New(pair.Driver, dir, noopDetector{}, 100, 500)

	res := r.Branch(context.Background(), false, false, syncstate.Empty(), "main", "main")

	require.NoError(t, res.Err)
	assert.Equal(t, Synced, res.Outcome)
	assert.Equal(t, FullReplay, res.Mode)
	assert.NotEmpty(t, res.NewCommit)
}

func TestBranchSkipsWhenUpToDate(t *testing.T) {
	pair := gittest.NewPair(t)
	hash := pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})

	dir := newWorkspace(t, pair)
	r := New(pair.Driver, dir, noopDetector{}, 100, 500)

	state := syncstate.Empty()
	state.LastCommits["main"] = hash
	state.SyncedBranches["main"] = "main"

	res := r.Branch(context.Background(), false, false, state, "main", "main")

	require.NoError(t, res.Err)
	assert.Equal(t, Skipped, res.Outcome)
}

func TestBranchIncrementalReplaysOnlyNewCommit(t *testing.T) {
	pair := gittest.NewPair(t)
	firstHash := pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})

	dir := newWorkspace(t, pair)
	r := New(pair.Driver, dir, noopDetector{}, 100, 500)

	first := r.Branch(context.Background(), false, false, syncstate.Empty(), "main", "main")
	require.NoError(t, first.Err)
	require.Equal(t, Synced, first.Outcome)
	require.Equal(t, firstHash, first.NewCommit)

	secondHash := pair.Seed("main", "second commit", map[string]string{"more.md": "more content"})
	require.NoError(t, pair.Driver.Fetch(context.Background(), dir, "source"))

	state := syncstate.Empty()
	state.LastCommits["main"] = firstHash
	state.SyncedBranches["main"] = "main"

	second := r.Branch(context.Background(), false, false, state, "main", "main")
	require.NoError(t, second.Err)
	assert.Equal(t, Synced, second.Outcome)
	assert.Equal(t, Incremental, second.Mode)
	assert.Equal(t, secondHash, second.NewCommit)

	head := pair.RevParse(pair.DestBare, "main")
	assert.Equal(t, secondHash, head)
}

func TestBranchCleanRebuildPublishesOrphanCommit(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "initial commit", map[string]string{"README.md": "hello"})

	dir := newWorkspace(t, pair)
	r := New(pair.Driver, dir, noopDetector{}, 100, 500)

	res := r.Branch(context.Background(), true, false, syncstate.Empty(), "main", "main")

	require.NoError(t, res.Err)
	assert.Equal(t, Synced, res.Outcome)
	assert.Equal(t, CleanRebuild, res.Mode)
}
