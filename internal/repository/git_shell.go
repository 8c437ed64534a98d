package repository

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// RunOptions controls how a git invocation is treated.
type RunOptions struct {
	// Probe reports a non-zero exit in the Result instead of failing.
	Probe bool
	// Capture keeps stdout out of the console; it is returned in the Result.
	Capture bool
}

// GitShell runs git subcommands against one target: a working tree, the detached
// releases repository, or a checkout on a remote host. It holds no state besides
// where and how to run git.
type GitShell struct {
	exec   Executor
	dir    string
	prefix []string
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// GitShellOption configures a GitShell.
type GitShellOption func(*GitShell)

// WithOutput streams the output of non-captured commands to the given writers.
func WithOutput(stdout, stderr io.Writer) GitShellOption {
	return func(g *GitShell) {
		g.stdout = stdout
		g.stderr = stderr
	}
}

// WithLogger logs every git invocation at debug level.
func WithLogger(logger *zap.Logger) GitShellOption {
	return func(g *GitShell) {
		g.logger = logger
	}
}

func newGitShell(exec Executor, dir string, prefix []string, opts ...GitShellOption) *GitShell {
	g := &GitShell{exec: exec, dir: dir, prefix: prefix, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewWorkTreeGit targets the working tree at dir on the executor's machine.
func NewWorkTreeGit(exec Executor, dir string, opts ...GitShellOption) *GitShell {
	return newGitShell(exec, dir, nil, opts...)
}

// NewReleaseRepoGit targets the releases repository gitDir, using dir as its work tree.
func NewReleaseRepoGit(exec Executor, dir, gitDir string, opts ...GitShellOption) *GitShell {
	return newGitShell(exec, dir, []string{"--work-tree=.", "--git-dir=" + gitDir}, opts...)
}

// NewCheckoutGit targets an installed checkout, usually on a remote host.
func NewCheckoutGit(exec Executor, installDir string, opts ...GitShellOption) *GitShell {
	return newGitShell(exec, installDir, nil, opts...)
}

// At returns a copy of the shell running in another directory.
func (g *GitShell) At(dir string) *GitShell {
	c := *g
	c.dir = dir
	return &c
}

// Exec runs git with the given arguments.
// Unless opts.Probe is set, a non-zero exit is returned as a *ShellError.
func (g *GitShell) Exec(ctx context.Context, opts RunOptions, args ...string) (Result, error) {
	cmd := Command{
		Dir:  g.dir,
		Name: "git",
		Args: append(append([]string{}, g.prefix...), args...),
	}
	if !opts.Capture {
		cmd.Stdout = g.stdout
		cmd.Stderr = g.stderr
	}
	g.logger.Debug("running git",
		zap.String("cmd", cmd.String()),
		zap.String("dir", g.dir),
		zap.Bool("probe", opts.Probe),
	)
	res, err := g.exec.Run(ctx, cmd)
	if err != nil {
		return res, err
	}
	if !res.Succeeded() {
		g.logger.Debug("git exited with non-zero status",
			zap.String("cmd", cmd.String()),
			zap.Int("exit_code", res.ExitCode),
		)
		if !opts.Probe {
			return res, &ShellError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
	}
	return res, nil
}

// Run runs git, streaming its output, and fails on non-zero exit.
func (g *GitShell) Run(ctx context.Context, args ...string) error {
	_, err := g.Exec(ctx, RunOptions{}, args...)
	return err
}

// Output runs git and returns its trimmed stdout; it fails on non-zero exit.
func (g *GitShell) Output(ctx context.Context, args ...string) (string, error) {
	res, err := g.Exec(ctx, RunOptions{Capture: true}, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Probe runs git, capturing its output, and tolerates non-zero exit.
func (g *GitShell) Probe(ctx context.Context, args ...string) (Result, error) {
	return g.Exec(ctx, RunOptions{Probe: true, Capture: true}, args...)
}
