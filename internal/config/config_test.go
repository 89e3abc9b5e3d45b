package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reposync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesInheritanceAndDefaults(t *testing.T) {
	workspace := t.TempDir()
	path := writeConfig(t, `
global:
  source_base_url: https://git.example.com/internal
  dest_base_url: https://git.example.com/public
  commit_user_name: mirror-bot
  commit_user_email: mirror-bot@example.com
  workspace: `+workspace+`
repositories:
  - name: widget
    source_repo: widget.git
    dest_repo: widget-public.git
    branch_map:
      main: main
`)

	global, repos, err := Load(path)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	assert.Equal(t, defaultLFSFileThresholdMB, global.LFSFileThresholdMB)
	assert.Equal(t, defaultLFSTotalThresholdMB, global.LFSTotalThresholdMB)

	repo := repos[0]
	assert.Equal(t, "widget", repo.Name)
	assert.Equal(t, defaultLFSFileThresholdMB, repo.LFSFileThresholdMB)
	assert.Equal(t, defaultLFSTotalThresholdMB, repo.LFSTotalThresholdMB)
	assert.True(t, filepath.IsAbs(repo.WorkspacePath))
}

func TestLoadRepositoryOverridesGlobal(t *testing.T) {
	workspace := t.TempDir()
	path := writeConfig(t, `
global:
  workspace: `+workspace+`
  lfs_file_threshold_mb: 100
repositories:
  - name: widget
    source_repo: widget.git
    dest_repo: widget-public.git
    lfs_file_threshold_mb: 250
`)

	_, repos, err := Load(path)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, 250, repos[0].LFSFileThresholdMB)
}

func TestLoadRejectsIllegalBranchMapping(t *testing.T) {
	workspace := t.TempDir()
	path := writeConfig(t, `
global:
  workspace: `+workspace+`
repositories:
  - name: widget
    source_repo: widget.git
    dest_repo: widget-public.git
    branch_map:
      main: sync_state
`)

	_, _, err := Load(path)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Violations)
}

func TestLoadRejectsMissingWorkspace(t *testing.T) {
	path := writeConfig(t, `
repositories:
  - name: widget
    source_repo: widget.git
    dest_repo: widget-public.git
`)

	_, _, err := Load(path)
	require.Error(t, err)
}
