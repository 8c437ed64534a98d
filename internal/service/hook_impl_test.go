package service

import (
	"context"
	"errors"
	"testing"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	return m.Called().Error(0)
}

func runs(script string) any {
	return mock.MatchedBy(func(c repository.Command) bool {
		return c.Name == "env" && len(c.Args) == 5 && c.Args[4] == script
	})
}

func TestCommandHook_PostUpdate(t *testing.T) {
	newVersion := domain.MustParseVersion("1.0.3")
	oldVersion := domain.MustParseVersion("1.0.2")

	t.Run("Should run commands whose paths changed", func(t *testing.T) {
		ctx := context.Background()
		exec := new(mockExecutor)
		hook, err := NewCommandHook(exec, []HookRule{
			{Paths: []string{"nginx.conf"}, Run: "restart-nginx"},
			{Paths: []string{"public/"}, Run: "purge-cache"},
			{Paths: []string{"db/**/*.sql"}, Run: "migrate"},
		}, CommandHookOptions{Dir: "/opt/site"})
		require.NoError(t, err)
		exec.On("Run", ctx, mock.MatchedBy(func(c repository.Command) bool {
			return c.Dir == "/opt/site" && assert.ObjectsAreEqual([]string{
				"GITDEPLOY_OLD_VERSION=1.0.2", "GITDEPLOY_NEW_VERSION=1.0.3", "sh", "-c", "restart-nginx",
			}, c.Args)
		})).Return(repository.Result{}, nil).Once()
		exec.On("Run", ctx, runs("purge-cache")).Return(repository.Result{}, nil).Once()
		files := domain.UpdatedFiles{"nginx.conf": domain.StatusModified, "public/js/all.js": domain.StatusAdded}
		require.NoError(t, hook.PostUpdate(ctx, &oldVersion, newVersion, files))
		exec.AssertExpectations(t)
		exec.AssertNotCalled(t, "Run", ctx, runs("migrate"))
	})
	t.Run("Should always run rules without paths", func(t *testing.T) {
		ctx := context.Background()
		exec := new(mockExecutor)
		hook, err := NewCommandHook(exec, []HookRule{{Run: "notify"}}, CommandHookOptions{})
		require.NoError(t, err)
		exec.On("Run", ctx, mock.MatchedBy(func(c repository.Command) bool {
			return c.Args[0] == "GITDEPLOY_OLD_VERSION=" && c.Args[4] == "notify"
		})).Return(repository.Result{}, nil).Once()
		require.NoError(t, hook.PostUpdate(ctx, nil, newVersion, domain.UpdatedFiles{}))
		exec.AssertExpectations(t)
	})
	t.Run("Should fail when a command exits with non-zero status", func(t *testing.T) {
		ctx := context.Background()
		exec := new(mockExecutor)
		hook, err := NewCommandHook(exec, []HookRule{{Run: "false"}, {Run: "never"}}, CommandHookOptions{})
		require.NoError(t, err)
		exec.On("Run", ctx, runs("false")).Return(repository.Result{ExitCode: 1, Stderr: "nope"}, nil).Once()
		err = hook.PostUpdate(ctx, &oldVersion, newVersion, domain.UpdatedFiles{})
		var shellErr *repository.ShellError
		require.ErrorAs(t, err, &shellErr)
		assert.Equal(t, 1, shellErr.ExitCode)
		exec.AssertNotCalled(t, "Run", ctx, runs("never"))
	})
	t.Run("Should wrap executor errors", func(t *testing.T) {
		ctx := context.Background()
		exec := new(mockExecutor)
		hook, err := NewCommandHook(exec, []HookRule{{Run: "restart"}}, CommandHookOptions{})
		require.NoError(t, err)
		expectedErr := errors.New("ssh: disconnected")
		exec.On("Run", ctx, runs("restart")).Return(repository.Result{}, expectedErr).Once()
		err = hook.PostUpdate(ctx, nil, newVersion, domain.UpdatedFiles{})
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestNewCommandHook(t *testing.T) {
	t.Run("Should reject rules without a command", func(t *testing.T) {
		_, err := NewCommandHook(new(mockExecutor), []HookRule{{Paths: []string{"a"}}}, CommandHookOptions{})
		assert.Error(t, err)
	})
	t.Run("Should reject invalid patterns", func(t *testing.T) {
		_, err := NewCommandHook(new(mockExecutor), []HookRule{{Paths: []string{"[a"}, Run: "x"}}, CommandHookOptions{})
		assert.Error(t, err)
	})
}

func TestNormalizePattern(t *testing.T) {
	t.Run("Should expand directory patterns", func(t *testing.T) {
		assert.Equal(t, "public/**", normalizePattern("public/"))
		assert.Equal(t, "nginx.conf", normalizePattern("./nginx.conf"))
	})
}
