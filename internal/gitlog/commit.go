package gitlog

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/purpleclay/chomp"
)

// logFormat emits one recordMarker-delimited record per commit, with
// fieldSep-delimited metadata fields followed by the raw commit
// message (which may itself contain newlines).
const logFormat = `--format=%x01%H%x02%P%x02%an%x02%ae%x02%aI%x02%cn%x02%ce%x02%cI%x02%B`

// Commit describes a single commit as replayed from a source
// repository's history, carrying enough metadata to recreate it
// faithfully against a destination repository.
type Commit struct {
	Hash           string
	ParentHashes   []string
	AuthorName     string
	AuthorEmail    string
	AuthorDate     time.Time
	CommitterName  string
	CommitterEmail string
	CommitterDate  time.Time
	Message        string
}

// Author formats the commit author as "Name <email>", the form
// accepted by `git commit --author`.
func (c Commit) Author() string {
	return fmt.Sprintf("%s <%s>", c.AuthorName, c.AuthorEmail)
}

// capturer is the subset of *gitexec.Driver this package depends on,
// kept narrow so the replicator's tests can stub it without pulling
// in the real subprocess driver.
type capturer interface {
	Capture(ctx context.Context, dir, cmd string) (string, error)
}

// Walk returns every commit reachable from ref, oldest first, ready
// for sequential replay onto a destination branch.
func Walk(ctx context.Context, d capturer, dir, ref string) ([]Commit, error) {
	cmd := fmt.Sprintf("git log --reverse %s %s", logFormat, ref)
	out, err := d.Capture(ctx, dir, cmd)
	if err != nil {
		return nil, err
	}

	return parseLog(out)
}

// Since returns every commit reachable from ref but not from baseRef,
// oldest first, used for incremental replay of new commits only.
func Since(ctx context.Context, d capturer, dir, baseRef, ref string) ([]Commit, error) {
	cmd := fmt.Sprintf("git log --reverse %s %s..%s", logFormat, baseRef, ref)
	out, err := d.Capture(ctx, dir, cmd)
	if err != nil {
		return nil, err
	}

	return parseLog(out)
}

func parseLog(out string) ([]Commit, error) {
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(out + "\n\x01"))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	scanner.Split(records(recordMarker))

	var commits []Commit
	for scanner.Scan() {
		record := scanner.Text()
		if record == "" {
			continue
		}

		commit, err := parseRecord(record)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return commits, nil
}

func parseRecord(record string) (Commit, error) {
	// H, P, an, ae, aI, cn, ce, cI, then the free-form message
	fields, err := splitFields(record, 8)
	if err != nil {
		return Commit{}, err
	}

	authorDate, err := time.Parse(time.RFC3339, fields[4])
	if err != nil {
		authorDate = time.Time{}
	}

	committerDate, err := time.Parse(time.RFC3339, fields[7])
	if err != nil {
		committerDate = time.Time{}
	}

	var parents []string
	if fields[1] != "" {
		parents = strings.Split(fields[1], " ")
	}

	return Commit{
		Hash:           fields[0],
		ParentHashes:   parents,
		AuthorName:     fields[2],
		AuthorEmail:    fields[3],
		AuthorDate:     authorDate,
		CommitterName:  fields[5],
		CommitterEmail: fields[6],
		CommitterDate:  committerDate,
		Message:        strings.TrimRight(fields[8], "\n"),
	}, nil
}

// splitFields consumes exactly n fieldSep-delimited fields from the
// front of a record using chomp, leaving whatever remains (the
// free-form commit message, which may itself contain fieldSep-like
// bytes only in pathological input) as the final element.
func splitFields(record string, n int) ([]string, error) {
	out := make([]string, 0, n+1)
	rem := record

	sep := string(fieldSep)
	for i := 0; i < n; i++ {
		next, field, err := chomp.Until(sep)(rem)
		if err != nil {
			return nil, fmt.Errorf("malformed commit record, missing field %d: %w", i, err)
		}

		rem, _, err = chomp.Tag(sep)(next)
		if err != nil {
			return nil, fmt.Errorf("malformed commit record, missing separator after field %d: %w", i, err)
		}

		out = append(out, field)
	}

	out = append(out, rem)
	return out, nil
}
