// Package executor runs shell commands with a bounded timeout and captures
// their output. Command strings are opaque: no parsing, no sanitization. The
// confirmation step in the interaction loop is the only safety gate.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds command execution when the caller passes no timeout.
const DefaultTimeout = 300 * time.Second

// Result captures the outcome of one command execution. ExitCode is -1 for
// timeouts and launch failures.
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Output joins non-empty stdout and stderr for display and for feeding back
// into the conversation. Storage keeps them separate.
func (r Result) Output() string {
	parts := make([]string, 0, 2)
	if r.Stdout != "" {
		parts = append(parts, r.Stdout)
	}
	if r.Stderr != "" {
		parts = append(parts, r.Stderr)
	}
	return strings.Join(parts, "\n")
}

// Executor runs commands under a configured shell and working directory.
type Executor struct {
	shell      string
	workingDir string
}

func New(shell, workingDir string) *Executor {
	if shell == "" {
		shell = "/bin/bash"
	}
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}
	return &Executor{shell: shell, workingDir: workingDir}
}

// Execute runs command as a single shell invocation. It always returns a
// Result and never an error: timeouts and launch failures are reported
// through ExitCode -1 and a stderr message.
func (e *Executor) Execute(ctx context.Context, command string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.shell, "-c", command)
	cmd.Dir = e.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := Result{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.Stdout = ""
		result.Stderr = fmt.Sprintf("Command timed out after %d seconds", int(timeout.Seconds()))
	case err == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Launch failure: shell missing, bad working dir, etc.
			result.ExitCode = -1
			result.Stderr = fmt.Sprintf("Execution error: %v", err)
		}
	}

	return result
}

// UpdateWorkingDir changes the working directory for subsequent executions.
// Best-effort: anything that is not a directory is silently ignored.
func (e *Executor) UpdateWorkingDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	e.workingDir = path
}

func (e *Executor) WorkingDir() string {
	return e.workingDir
}

func (e *Executor) Shell() string {
	return e.shell
}
