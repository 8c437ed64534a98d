package repository

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) Run(ctx context.Context, cmd Command) (Result, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(Result), args.Error(1)
}

func (m *mockExecutor) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *mockExecutor) Close() error {
	return m.Called().Error(0)
}

func commandLine(line string) any {
	return mock.MatchedBy(func(c Command) bool { return c.String() == line })
}
