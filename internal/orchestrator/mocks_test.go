package orchestrator

import (
	"bytes"
	"context"
	"strings"

	"github.com/compozy/gitdeploy/internal/console"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for Executor
type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) Run(ctx context.Context, cmd repository.Command) (repository.Result, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(repository.Result), args.Error(1)
}

func (m *mockExecutor) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *mockExecutor) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock for LocalRepository
type mockLocalRepository struct{ mock.Mock }

func (m *mockLocalRepository) ShortHead(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockLocalRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockLocalRepository) CreateTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func commandLine(line string) any {
	return mock.MatchedBy(func(c repository.Command) bool { return c.String() == line })
}

func ok(stdout string) repository.Result {
	return repository.Result{Stdout: stdout}
}

func failed(code int, stderr string) repository.Result {
	return repository.Result{ExitCode: code, Stderr: stderr}
}

// newTestUI returns an interactive console answering with input, and its output buffer.
func newTestUI(input string) (*console.UI, *bytes.Buffer) {
	var out bytes.Buffer
	return console.New(&out, &out, strings.NewReader(input), true), &out
}
