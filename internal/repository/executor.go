package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Command is a process invocation on an Executor.
type Command struct {
	// Dir is the working directory; empty means the executor's default.
	Dir  string
	Name string
	Args []string
	// Stdout and Stderr, when set, receive the output as it is produced.
	// The output is captured in the Result either way.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Succeeded reports whether the command exited with status zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Executor runs commands on a machine, either the local one or a remote host.
// A non-zero exit status is reported in the Result, not as an error; errors are
// reserved for commands that could not be run at all.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	Exists(ctx context.Context, path string) (bool, error)
	Close() error
}

// ShellError is returned when a command that must succeed exits with non-zero status.
type ShellError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ShellError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}
