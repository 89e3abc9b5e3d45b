// Package lfs inspects candidate files against size thresholds and
// enables Git LFS tracking on a workspace when a large binary crosses
// the configured limit.
package lfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/clayforge/reposync/internal/gitexec"
)

// BytesPerMB is 1 MiB, used consistently for both full-scan
// on-disk sizing and incremental blob-size queries.
const BytesPerMB = 1024 * 1024

// binaryExtensions is the fixed set of extensions the detector
// considers: accidentally committed large binaries, not general
// source files.
var binaryExtensions = map[string]bool{
	".tar": true,
	".gz":  true,
	".zip": true,
	".jar": true,
	".dll": true,
	".so":  true,
	".lib": true,
	".exe": true,
}

// Detector inspects a work directory's changed or full set of files
// against size thresholds and configures LFS tracking as needed. It
// is an interface so branch-replicator tests can stub it, leaving the
// git driver as the sole seam that needs a real double.
type Detector interface {
	// ScanTree inspects every file in the working tree (clean-history
	// and full-replay bulk mode) and returns whether tracking changed.
	ScanTree(ctx context.Context, dir string, thresholdMB int) (bool, error)

	// ScanChangeSet inspects the files that differ between fromRef and
	// toRef (incremental and commit-by-commit mode) and returns
	// whether tracking changed.
	ScanChangeSet(ctx context.Context, dir, fromRef, toRef string, thresholdMB int) (bool, error)
}

// NoopDetector never flags a candidate or touches the working tree.
// It is wired in for repositories configured with enable_lfs: false,
// so the replicator's call sites stay unconditional.
type NoopDetector struct{}

func (NoopDetector) ScanTree(ctx context.Context, dir string, thresholdMB int) (bool, error) {
	return false, nil
}

func (NoopDetector) ScanChangeSet(ctx context.Context, dir, fromRef, toRef string, thresholdMB int) (bool, error) {
	return false, nil
}

// GitDetector is the real Detector, backed by an installed git and
// git-lfs client.
type GitDetector struct {
	driver      *gitexec.Driver
	initialized map[string]bool
}

// NewGitDetector returns a Detector backed by d. LFS is initialized
// lazily, at most once per working directory, on the first candidate
// file that exceeds the threshold.
func NewGitDetector(d *gitexec.Driver) *GitDetector {
	return &GitDetector{driver: d, initialized: map[string]bool{}}
}

func isBinaryCandidate(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanTree walks every regular file under dir and tracks any whose
// extension is in the binary set and whose on-disk size exceeds the
// threshold.
func (g *GitDetector) ScanTree(ctx context.Context, dir string, thresholdMB int) (bool, error) {
	var candidates []string
	thresholdBytes := int64(thresholdMB) * BytesPerMB

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isBinaryCandidate(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > thresholdBytes {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			candidates = append(candidates, rel)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return g.track(ctx, dir, candidates)
}

// ScanChangeSet queries the blob size of every file that differs
// between fromRef and toRef, without touching the working tree, and
// tracks any binary-extension file exceeding the threshold.
func (g *GitDetector) ScanChangeSet(ctx context.Context, dir, fromRef, toRef string, thresholdMB int) (bool, error) {
	paths, err := g.driver.DiffNameOnly(ctx, dir, fromRef, toRef)
	if err != nil {
		return false, err
	}

	thresholdBytes := int64(thresholdMB) * BytesPerMB

	var candidates []string
	for _, path := range paths {
		if !isBinaryCandidate(path) {
			continue
		}

		size, err := g.driver.BlobSize(ctx, dir, toRef, path)
		if err != nil {
			// deleted at toRef; nothing to size
			continue
		}
		if size > thresholdBytes {
			candidates = append(candidates, path)
		}
	}

	return g.track(ctx, dir, candidates)
}

func (g *GitDetector) track(ctx context.Context, dir string, candidates []string) (bool, error) {
	if len(candidates) == 0 {
		return false, nil
	}

	justInitialized := false
	if !g.initialized[dir] {
		if err := g.driver.LFSInstall(ctx, dir); err != nil {
			// LFS unavailable: downgrade to "not enabled", large files
			// flow through as regular blobs.
			return false, nil
		}
		g.initialized[dir] = true
		justInitialized = true
	}

	changed := false
	for _, path := range candidates {
		tracked, err := g.driver.IsLFSTracked(ctx, dir, path)
		if err != nil {
			return changed || justInitialized, err
		}
		if tracked {
			continue
		}

		if err := g.driver.LFSTrack(ctx, dir, path); err != nil {
			return changed || justInitialized, err
		}
		changed = true
	}

	if changed {
		if err := g.driver.Stage(ctx, dir, ".gitattributes"); err != nil {
			return changed || justInitialized, err
		}
	}

	return changed || justInitialized, nil
}
