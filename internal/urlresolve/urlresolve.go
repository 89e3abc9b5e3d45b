// Package urlresolve combines relative or absolute repository
// locations with base URLs, attaches credentials for cloning and
// fetching, and normalizes URLs for equality comparison.
package urlresolve

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// AuthType mirrors config.AuthType without importing the config
// package, keeping urlresolve usable independently of the YAML
// document shape.
type AuthType string

const (
	AuthNone AuthType = ""
	AuthSSH  AuthType = "ssh"
	AuthHTTP AuthType = "http"
)

// Credentials carries the resolved auth bundle for one remote.
type Credentials struct {
	Type          AuthType
	SSHPrivateKey string
	Username      string
	Password      string
}

func isAbsoluteRemote(s string) bool {
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "ssh://"):
		return true
	case strings.Contains(s, "@") && strings.Contains(s, ":"):
		// scp-like syntax, e.g. git@host:org/repo.git
		return true
	}
	return false
}

func isFilesystemPath(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || filepath.IsAbs(s)
}

// Resolve turns repo (as written in the config document) into a final
// URL, joining it to base when repo is neither an absolute remote URL
// nor a filesystem path.
func Resolve(repo, base string) (string, error) {
	switch {
	case isAbsoluteRemote(repo):
		return repo, nil
	case isFilesystemPath(repo):
		abs, err := filepath.Abs(repo)
		if err != nil {
			return "", fmt.Errorf("resolving filesystem path %q: %w", repo, err)
		}
		return abs, nil
	case base == "":
		return "", fmt.Errorf("%q is a relative reference but no base URL is configured", repo)
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(repo, "/"), nil
	}
}

// WithCredentials injects the given credentials into an http(s) URL.
// Non-http(s) URLs (ssh, scp-like, filesystem paths) are returned
// unchanged, since credential injection is only meaningful for
// http(s) remotes (§4.2).
func WithCredentials(rawURL string, creds Credentials) (string, error) {
	if creds.Type != AuthHTTP || creds.Username == "" {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return rawURL, nil
	}

	u.User = url.UserPassword(creds.Username, creds.Password)
	return u.String(), nil
}

// Normalize strips embedded credentials, a trailing slash, and a
// trailing ".git" suffix, and case-folds the result, producing a form
// suitable for equality comparison between two URLs that might differ
// only in those cosmetic ways.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return normalizePlain(rawURL)
	}

	u.User = nil
	normalized := u.String()
	return normalizePlain(normalized)
}

func normalizePlain(s string) string {
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	return strings.ToLower(s)
}

// Equivalent reports whether two URLs normalize to the same value.
func Equivalent(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
