package usecase

import (
	"context"

	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for Executor
type mockExecutor struct {
	mock.Mock
}

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

func commandLine(line string) any {
	return mock.MatchedBy(func(c repository.Command) bool { return c.String() == line })
}

func ok(stdout string) repository.Result {
	return repository.Result{Stdout: stdout}
}

func failed(code int) repository.Result {
	return repository.Result{ExitCode: code}
}
