package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
)

// compileIgnorePatterns converts shell-style glob patterns (where a
// lone `*` matches any run of characters, "/" included) into regular
// expressions anchored at both ends, so "tmp/*" matches "tmp/hotfix"
// and any other name starting with "tmp/", but never
// "other/tmp/hotfix".
func compileIgnorePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^" + globToRegex(p) + "$")
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func globToRegex(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		if r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

func isIgnored(branch string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(branch) {
			return true
		}
	}
	return false
}

// orderBranches promotes "master" to the front if present, else
// "main", leaving every other branch (including whichever of the two
// was not promoted) in the order it was enumerated.
func orderBranches(branches []string) []string {
	promote := ""
	for _, b := range branches {
		if b == "master" {
			promote = "master"
			break
		}
	}
	if promote == "" {
		for _, b := range branches {
			if b == "main" {
				promote = "main"
				break
			}
		}
	}
	if promote == "" {
		return branches
	}

	ordered := make([]string, 0, len(branches))
	ordered = append(ordered, promote)
	for _, b := range branches {
		if b == promote {
			continue
		}
		ordered = append(ordered, b)
	}
	return ordered
}
