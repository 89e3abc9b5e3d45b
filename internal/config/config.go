// Package config loads and validates the YAML document describing
// which repositories to replicate, applying the global-to-repository
// inheritance rule. Source and destination URLs are kept as written;
// the orchestrator resolves them against the base URLs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultLFSFileThresholdMB  = 100
	defaultLFSTotalThresholdMB = 500
)

// AuthType identifies how credentials are supplied for a repository
// remote.
type AuthType string

const (
	AuthNone AuthType = ""
	AuthSSH  AuthType = "ssh"
	AuthHTTP AuthType = "http"
)

// Auth carries the raw credential fields as read from YAML, before
// resolution into a urlresolve.Credentials bundle.
type Auth struct {
	Type          AuthType `yaml:"type"`
	SSHPrivateKey string   `yaml:"ssh_private_key"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
}

// Global holds the defaults shared by every repository unless
// overridden.
type Global struct {
	SourceBaseURL       string `yaml:"source_base_url"`
	DestBaseURL         string `yaml:"dest_base_url"`
	CommitUserName      string `yaml:"commit_user_name"`
	CommitUserEmail     string `yaml:"commit_user_email"`
	LFSFileThresholdMB  int    `yaml:"lfs_file_threshold_mb"`
	LFSTotalThresholdMB int    `yaml:"lfs_total_threshold_mb"`
	Workspace           string `yaml:"workspace"`
	Auth                Auth   `yaml:"auth"`
}

// RawRepository is the as-parsed shape of one repositories[] entry,
// prior to inheritance and URL resolution.
type RawRepository struct {
	Name                string            `yaml:"name"`
	SourceRepo          string            `yaml:"source_repo"`
	DestRepo            string            `yaml:"dest_repo"`
	CleanHistory        bool              `yaml:"clean_history"`
	Workspace           string            `yaml:"workspace"`
	EnableLFS           bool              `yaml:"enable_lfs"`
	LFSFileThresholdMB  int               `yaml:"lfs_file_threshold_mb"`
	LFSTotalThresholdMB int               `yaml:"lfs_total_threshold_mb"`
	Auth                Auth              `yaml:"auth"`
	BranchMap           map[string]string `yaml:"branch_map"`
	IgnoreBranches      []string          `yaml:"ignore_branches"`
}

// Document is the root shape of the YAML configuration file.
type Document struct {
	Global       Global          `yaml:"global"`
	Repositories []RawRepository `yaml:"repositories"`
}

// Credentials is the resolved, type-discriminated credential bundle
// attached to a Repository, shared by the URL resolver and the
// workspace manager instead of four loose strings.
type Credentials struct {
	Type          AuthType
	SSHPrivateKey string
	Username      string
	Password      string
}

// Repository is a validated repository ready to be handed to the
// orchestrator, with inheritance applied and an absolute workspace
// path. SourceURL and DestURL hold source_repo and dest_repo as
// written. Every field here is immutable for the duration of a run.
type Repository struct {
	Name                string
	SourceURL           string
	DestURL             string
	WorkspacePath       string
	CleanHistory        bool
	EnableLFS           bool
	LFSFileThresholdMB  int
	LFSTotalThresholdMB int
	Credentials         Credentials
	BranchMap           map[string]string
	IgnoreBranches      []string
}

// ValidationError aggregates every violation found while validating a
// Document, so an operator sees the whole list of problems in one
// pass instead of fixing them one at a time.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	msg := "invalid configuration:"
	for _, v := range e.Violations {
		msg += "\n  - " + v
	}
	return msg
}

func (e *ValidationError) add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

func (e *ValidationError) errOrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// Load reads and parses the YAML document at path, applies
// inheritance, makes every repository's workspace path absolute, and
// validates the result. Repository URLs are not resolved here.
func Load(path string) (*Global, []Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyGlobalDefaults(&doc.Global)

	verr := &ValidationError{}
	repos := make([]Repository, 0, len(doc.Repositories))
	for _, raw := range doc.Repositories {
		repo, err := resolveRepository(doc.Global, raw)
		if err != nil {
			verr.add("repository %q: %s", raw.Name, err)
			continue
		}
		repos = append(repos, repo)
	}

	if len(doc.Repositories) == 0 {
		verr.add("no repositories configured")
	}

	for i, repo := range repos {
		validateRepository(verr, i, repo)
	}

	if err := verr.errOrNil(); err != nil {
		return nil, nil, err
	}

	return &doc.Global, repos, nil
}

func applyGlobalDefaults(g *Global) {
	if g.LFSFileThresholdMB == 0 {
		g.LFSFileThresholdMB = defaultLFSFileThresholdMB
	}
	if g.LFSTotalThresholdMB == 0 {
		g.LFSTotalThresholdMB = defaultLFSTotalThresholdMB
	}
}

// resolveRepository applies the inheritance rule (per-repo value wins
// if truthy, else global) field by field, then joins the workspace
// path to an absolute location. URL resolution against the base URLs
// is performed later by the orchestrator, via urlresolve.
func resolveRepository(g Global, raw RawRepository) (Repository, error) {
	if raw.Name == "" {
		return Repository{}, fmt.Errorf("missing name")
	}
	if raw.SourceRepo == "" {
		return Repository{}, fmt.Errorf("missing source_repo")
	}
	if raw.DestRepo == "" {
		return Repository{}, fmt.Errorf("missing dest_repo")
	}

	workspace := raw.Workspace
	if workspace == "" {
		workspace = g.Workspace
	}
	if workspace == "" {
		return Repository{}, fmt.Errorf("missing workspace (no repository or global default)")
	}

	abs, err := filepath.Abs(workspace)
	if err != nil {
		return Repository{}, fmt.Errorf("resolving workspace path: %w", err)
	}

	auth := raw.Auth
	if auth.Type == "" {
		auth = g.Auth
	}

	fileThreshold := raw.LFSFileThresholdMB
	if fileThreshold == 0 {
		fileThreshold = g.LFSFileThresholdMB
	}

	totalThreshold := raw.LFSTotalThresholdMB
	if totalThreshold == 0 {
		totalThreshold = g.LFSTotalThresholdMB
	}

	return Repository{
		Name:                raw.Name,
		SourceURL:           raw.SourceRepo,
		DestURL:             raw.DestRepo,
		WorkspacePath:       filepath.Join(abs, raw.Name, "sync_work"),
		CleanHistory:        raw.CleanHistory,
		EnableLFS:           raw.EnableLFS,
		LFSFileThresholdMB:  fileThreshold,
		LFSTotalThresholdMB: totalThreshold,
		Credentials: Credentials{
			Type:          auth.Type,
			SSHPrivateKey: auth.SSHPrivateKey,
			Username:      auth.Username,
			Password:      auth.Password,
		},
		BranchMap:      raw.BranchMap,
		IgnoreBranches: raw.IgnoreBranches,
	}, nil
}

func validateRepository(verr *ValidationError, idx int, repo Repository) {
	if repo.SourceURL == "" {
		verr.add("repositories[%d] (%s): source URL is empty", idx, repo.Name)
	}
	if repo.DestURL == "" {
		verr.add("repositories[%d] (%s): destination URL is empty", idx, repo.Name)
	}
	if !filepath.IsAbs(repo.WorkspacePath) {
		verr.add("repositories[%d] (%s): workspace path %q is not absolute", idx, repo.Name, repo.WorkspacePath)
	}
	if repo.LFSFileThresholdMB <= 0 {
		verr.add("repositories[%d] (%s): lfs_file_threshold_mb must be > 0", idx, repo.Name)
	}
	if repo.LFSTotalThresholdMB <= 0 {
		verr.add("repositories[%d] (%s): lfs_total_threshold_mb must be > 0", idx, repo.Name)
	}
	for src, dst := range repo.BranchMap {
		if !isLegalBranchName(dst) {
			verr.add("repositories[%d] (%s): branch_map[%q] = %q is not a legal branch name", idx, repo.Name, src, dst)
		}
	}
}

func isLegalBranchName(name string) bool {
	if name == "" || name == "sync_state" {
		return false
	}
	for _, r := range name {
		switch r {
		case ' ', '~', '^', ':', '?', '*', '[', '\\':
			return false
		}
	}
	if name[0] == '/' || name[len(name)-1] == '/' || name[len(name)-1] == '.' {
		return false
	}
	return true
}
