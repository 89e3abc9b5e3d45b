package syncstate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayforge/reposync/internal/gittest"
)

func TestReadEmptyWhenNoSyncStateBranch(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "seed commit", map[string]string{"README.md": "hello"})

	clone := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, pair.Driver.Clone(context.Background(), pair.DestBare, clone))

	store := NewStore(pair.Driver, clone)
	state, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.LastCommits)
	assert.Nil(t, state.LastSync)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "seed commit", map[string]string{"README.md": "hello"})

	clone := filepath.Join(t.TempDir(), "dest")
	ctx := context.Background()
	require.NoError(t, pair.Driver.Clone(ctx, pair.DestBare, clone))
	require.NoError(t, pair.Driver.SetIdentity(ctx, clone, gittest.DefaultAuthorName, gittest.DefaultAuthorEmail))

	store := NewStore(pair.Driver, clone)

	state := Empty()
	state.LastCommits["main"] = "abc123"
	state.SyncedBranches["main"] = "main"

	require.NoError(t, store.Write(ctx, state))

	store2 := NewStore(pair.Driver, clone)
	got, err := store2.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.LastCommits["main"])
	assert.NotNil(t, got.LastSync)
}

func TestWriteAdvancesHeadWhenCommitsChange(t *testing.T) {
	pair := gittest.NewPair(t)
	pair.Seed("main", "seed commit", map[string]string{"README.md": "hello"})

	clone := filepath.Join(t.TempDir(), "dest")
	ctx := context.Background()
	require.NoError(t, pair.Driver.Clone(ctx, pair.DestBare, clone))
	require.NoError(t, pair.Driver.SetIdentity(ctx, clone, gittest.DefaultAuthorName, gittest.DefaultAuthorEmail))

	store := NewStore(pair.Driver, clone)
	state := Empty()
	state.LastCommits["main"] = "abc123"
	require.NoError(t, store.Write(ctx, state))
	firstHead := pair.RevParse(pair.DestBare, BranchName)

	state.LastCommits["main"] = "def456"
	require.NoError(t, store.Write(ctx, state))
	secondHead := pair.RevParse(pair.DestBare, BranchName)

	assert.NotEqual(t, firstHead, secondHead, "a write with changed commits must advance sync_state")
}

func TestStateKey(t *testing.T) {
	assert.Equal(t, "main", StateKey("main", "main"))
	assert.Equal(t, "dev->develop", StateKey("dev", "develop"))
}
