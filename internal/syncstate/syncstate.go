// Package syncstate reads and writes the JSON progress journal that
// is persisted on the distinguished sync_state branch of every
// destination repository.
package syncstate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clayforge/reposync/internal/gitexec"
)

// BranchName is the reserved branch on the destination that carries
// only sync_state.json. It is always excluded from source branch
// enumeration.
const BranchName = "sync_state"

const fileName = "sync_state.json"

// State is the durable per-repository progress journal.
type State struct {
	LastSync       *time.Time        `json:"last_sync"`
	SyncedBranches map[string]string `json:"synced_branches"`
	LastCommits    map[string]string `json:"last_commits"`
}

// Empty returns the zero-value state returned when no sync_state
// branch exists yet, or the file is absent within it.
func Empty() State {
	return State{
		SyncedBranches: map[string]string{},
		LastCommits:    map[string]string{},
	}
}

// StateKey is the string identifying a sync direction: "src->dst" if
// renamed, else just "src".
func StateKey(src, dst string) string {
	if src == dst {
		return src
	}
	return src + "->" + dst
}

// Store reads and writes State against a workspace's sync_state
// branch.
type Store struct {
	driver *gitexec.Driver
	dir    string
}

// NewStore returns a Store bound to the given workspace directory.
func NewStore(d *gitexec.Driver, dir string) *Store {
	return &Store{driver: d, dir: dir}
}

// Read loads the current state from origin/sync_state, returning the
// empty state if the branch or file does not exist.
func (s *Store) Read(ctx context.Context) (State, error) {
	_, err := s.driver.Capture(ctx, s.dir, "git rev-parse --verify refs/remotes/origin/"+BranchName)
	if err != nil {
		return Empty(), nil
	}

	if err := s.driver.Run(ctx, s.dir, "git checkout "+BranchName); err != nil {
		if err := s.driver.Run(ctx, s.dir, "git checkout -b "+BranchName+" origin/"+BranchName); err != nil {
			return Empty(), fmt.Errorf("checking out %s: %w", BranchName, err)
		}
	} else if err := s.driver.ResetHard(ctx, s.dir, "origin/"+BranchName); err != nil {
		return Empty(), fmt.Errorf("resetting %s: %w", BranchName, err)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), fmt.Errorf("reading %s: %w", fileName, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Empty(), fmt.Errorf("parsing %s: %w", fileName, err)
	}

	if state.SyncedBranches == nil {
		state.SyncedBranches = map[string]string{}
	}
	if state.LastCommits == nil {
		state.LastCommits = map[string]string{}
	}

	return state, nil
}

// Write persists state to the sync_state branch, committing only if
// the serialized content differs from the branch's last commit, and
// pushing the result to origin. Write failures are returned to the
// caller to log; the in-memory state remains valid for this run even
// if the push fails.
func (s *Store) Write(ctx context.Context, state State) error {
	now := time.Now().UTC()
	state.LastSync = &now

	if err := s.checkoutOrCreate(ctx); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", fileName, err)
	}
	data = append(data, '\n')

	path := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}

	if err := s.driver.Stage(ctx, s.dir, fileName); err != nil {
		return fmt.Errorf("staging %s: %w", fileName, err)
	}

	diff, err := s.driver.Capture(ctx, s.dir, "git diff --cached --name-only")
	if err != nil {
		return fmt.Errorf("checking staged diff: %w", err)
	}
	if diff == "" {
		return nil
	}

	msg := fmt.Sprintf("Update sync state - %s", now.Format("2006-01-02 15:04:05"))
	if err := s.driver.Commit(ctx, s.dir, msg); err != nil {
		return fmt.Errorf("committing sync state: %w", err)
	}

	if err := s.driver.Push(ctx, s.dir, "origin", BranchName); err != nil {
		return fmt.Errorf("pushing sync state: %w", err)
	}

	return nil
}

func (s *Store) checkoutOrCreate(ctx context.Context) error {
	_, err := s.driver.Capture(ctx, s.dir, "git rev-parse --verify refs/remotes/origin/"+BranchName)
	if err != nil {
		return s.driver.CheckoutOrphan(ctx, s.dir, BranchName)
	}

	if err := s.driver.Run(ctx, s.dir, "git checkout "+BranchName); err != nil {
		return s.driver.Run(ctx, s.dir, "git checkout -b "+BranchName+" origin/"+BranchName)
	}

	return s.driver.ResetHard(ctx, s.dir, "origin/"+BranchName)
}
