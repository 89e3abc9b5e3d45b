// Package report aggregates the per-repository outcome of a run and
// renders the final summary table printed to the operator.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Status summarizes how a single repository's run went.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailed         Status = "failed"
)

// RepositoryReport is one row of the final summary table.
type RepositoryReport struct {
	Repository      string
	Mode            string
	Synced          int
	Skipped         int
	New             int
	Failed          int
	IgnoredBranches []string
	LFSTriggered    bool
	StartTime       time.Time
	EndTime         time.Time
	Status          Status
	Err             error
}

// Report collects one RepositoryReport per configured repository, in
// the order they were processed.
type Report struct {
	Repositories []RepositoryReport
}

// Add appends rr to the report.
func (r *Report) Add(rr RepositoryReport) {
	r.Repositories = append(r.Repositories, rr)
}

// AnyFailed reports whether any repository ended in a non-success
// status, the signal the CLI uses to choose its exit code.
func (r *Report) AnyFailed() bool {
	for _, rr := range r.Repositories {
		if rr.Status != StatusSuccess {
			return true
		}
	}
	return false
}

// WriteTable renders the fixed-width summary table used in the
// operator-facing run summary.
func (r *Report) WriteTable(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Repository\tMode\tSynced\tSkipped\tNew\tFailed\tIgnored\tLFS\tStatus")
	for _, rr := range r.Repositories {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			rr.Repository, rr.Mode, rr.Synced, rr.Skipped, rr.New, rr.Failed,
			len(rr.IgnoredBranches), boolStr(rr.LFSTriggered), rr.Status)
	}
	tw.Flush()
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
