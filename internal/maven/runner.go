// Package maven runs short read-only Maven queries (help:active-profiles,
// help:effective-pom) and hands their output back to the caller.
package maven

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes a query and returns its standard output.
type Runner interface {
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// QueryError reports a failed query together with the tail of its output.
type QueryError struct {
	Args   []string
	Output string
	Err    error
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("maven query %q failed: %v", strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ExecRunner runs queries as child processes.
type ExecRunner struct {
	// Env overrides the child environment. Nil means os.Environ().
	Env []string
}

func (r ExecRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if r.Env != nil {
		cmd.Env = r.Env
	} else {
		cmd.Env = os.Environ()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &QueryError{
			Args:   append([]string{name}, args...),
			Output: tail(stderr.String()+stdout.String(), 20),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// tail keeps the last n non-empty lines of s.
func tail(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Func adapts a function to the Runner interface.
type Func func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

func (f Func) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	return f(ctx, dir, name, args...)
}
