package replicate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clayforge/reposync/internal/syncstate"
)

func TestSelectModeCleanHistoryWins(t *testing.T) {
	state := syncstate.Empty()
	mode := SelectMode(true, true, state, "main", "main", "main")
	assert.Equal(t, CleanRebuild, mode)
}

func TestSelectModeForceFull(t *testing.T) {
	state := syncstate.Empty()
	state.LastCommits["main"] = "abc"
	state.SyncedBranches["main"] = "main"
	mode := SelectMode(false, true, state, "main", "main", "main")
	assert.Equal(t, FullReplay, mode)
}

func TestSelectModeFirstTimeSync(t *testing.T) {
	state := syncstate.Empty()
	mode := SelectMode(false, false, state, "main", "main", "main")
	assert.Equal(t, FullReplay, mode)
}

func TestSelectModeMappingChanged(t *testing.T) {
	state := syncstate.Empty()
	state.LastCommits["dev->develop"] = "abc"
	state.SyncedBranches["dev"] = "old-develop"
	mode := SelectMode(false, false, state, "dev->develop", "dev", "develop")
	assert.Equal(t, FullReplay, mode)
}

func TestSelectModeIncremental(t *testing.T) {
	state := syncstate.Empty()
	state.LastCommits["main"] = "abc"
	state.SyncedBranches["main"] = "main"
	mode := SelectMode(false, false, state, "main", "main", "main")
	assert.Equal(t, Incremental, mode)
}
