/*
Copyright (c) 2023 Purple Clay

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package gitexec wraps an installed git client, handing off every
// operation to a real git binary resolved from PATH. It normalizes
// output encoding and scrubs credentials from anything that could end
// up in an error message or a log line.
package gitexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrGitMissing is raised when no git client was identified within the
// PATH environment variable on the current OS.
type ErrGitMissing struct {
	PathEnv string
}

func (e ErrGitMissing) Error() string {
	return fmt.Sprintf("git is not installed under the PATH environment variable. PATH resolves to %s", e.PathEnv)
}

// ErrLFSMissing describes git-lfs being absent from PATH. No driver
// method returns it: a failing LFSInstall surfaces as an ExecError,
// which the lfs package treats as "LFS not enabled", letting large
// files flow through as regular blobs.
type ErrLFSMissing struct{}

func (e ErrLFSMissing) Error() string {
	return "git-lfs is not installed under the PATH environment variable"
}

// ExecError is raised when a git command fails to execute. Cmd is
// always scrubbed of embedded credentials before being stored.
type ExecError struct {
	Cmd string
	Out string
}

func (e ExecError) Error() string {
	return fmt.Sprintf("failed to execute git command: %s\n\n%s", e.Cmd, e.Out)
}

// Driver executes git subcommands against a working directory. Every
// operation is handed off to an installed git client; the driver's
// job is to make the raw output machine (and human) consumable.
type Driver struct {
	verbose    bool
	gitVersion string
}

// NewDriver returns a driver after confirming git is reachable on
// PATH. The returned driver defaults to quiet mode: subprocess stdout
// is suppressed unless verbose is true, but stderr is always
// surfaced on failure.
func NewDriver(verbose bool) (*Driver, error) {
	d := &Driver{verbose: verbose}

	version, err := d.Capture(context.Background(), "", "git --version")
	if err != nil {
		return nil, ErrGitMissing{PathEnv: os.Getenv("PATH")}
	}

	d.gitVersion = version
	return d, nil
}

// Run executes a command. In quiet mode (the default) subprocess
// stdout is suppressed; in verbose mode it is echoed to the process's
// own stdout as it streams. Stderr is always captured and surfaced on
// failure, scrubbed of credentials.
func (d *Driver) Run(ctx context.Context, dir, cmd string) error {
	_, err := d.run(ctx, dir, cmd, d.verbose)
	return err
}

// Capture executes a command and returns its decoded stdout,
// regardless of verbosity. Decoding falls back from UTF-8 to GBK to
// UTF-8-with-replacement and never fails on encoding alone.
func (d *Driver) Capture(ctx context.Context, dir, cmd string) (string, error) {
	return d.run(ctx, dir, cmd, false)
}

func (d *Driver) run(ctx context.Context, dir, cmd string, echo bool) (string, error) {
	p, perr := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if perr != nil {
		return "", ExecError{Cmd: scrub(cmd), Out: perr.Error()}
	}

	var captured, stderr bytes.Buffer
	stdout := io.Writer(&captured)
	if echo {
		stdout = io.MultiWriter(&captured, os.Stdout)
	}

	opts := []interp.RunnerOption{interp.StdIO(os.Stdin, stdout, &stderr)}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}

	r, rerr := interp.New(opts...)
	if rerr != nil {
		return "", ExecError{Cmd: scrub(cmd), Out: rerr.Error()}
	}

	if err := r.Run(ctx, p); err != nil {
		merged := append(captured.Bytes(), stderr.Bytes()...)
		return "", ExecError{Cmd: scrub(cmd), Out: scrub(decode(merged))}
	}

	return strings.TrimSuffix(decode(captured.Bytes()), "\n"), nil
}
