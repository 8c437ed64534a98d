package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/afero"
)

// localExecutor runs commands as child processes of the current one.
type localExecutor struct {
	fs afero.Fs
}

// NewLocalExecutor creates an Executor for the local machine.
func NewLocalExecutor(fs FileSystemRepository) Executor {
	return &localExecutor{fs: fs}
}

// Run executes the command and waits for it to finish.
func (e *localExecutor) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = teeWriter(&stdout, c.Stdout)
	cmd.Stderr = teeWriter(&stderr, c.Stderr)
	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s: %w", c.String(), err)
	}
	return result, nil
}

// Exists reports whether the path exists on the local filesystem.
func (e *localExecutor) Exists(_ context.Context, path string) (bool, error) {
	return afero.Exists(e.fs, path)
}

// Close is a no-op for the local machine.
func (e *localExecutor) Close() error {
	return nil
}

func teeWriter(capture *bytes.Buffer, stream io.Writer) io.Writer {
	if stream == nil {
		return capture
	}
	return io.MultiWriter(capture, stream)
}
