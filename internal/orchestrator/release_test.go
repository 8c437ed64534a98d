package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rel = "git --work-tree=. --git-dir=releases.git "

type releaseFixture struct {
	ctx       context.Context
	exec      *mockExecutor
	localRepo *mockLocalRepository
	fs        afero.Fs
	gitDir    string
}

func newReleaseFixture(t *testing.T) *releaseFixture {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src/releases.git", 0o755))
	return &releaseFixture{
		ctx:       context.Background(),
		exec:      new(mockExecutor),
		localRepo: new(mockLocalRepository),
		fs:        fs,
		gitDir:    t.TempDir(),
	}
}

func (f *releaseFixture) orchestrator(ui UI) *ReleaseOrchestrator {
	return NewReleaseOrchestrator(f.exec, f.localRepo, f.fs, ui, zap.NewNop(), ReleaseSettings{
		WorkDir:      "/src",
		ReleasesRepo: "ssh://git@example.com/releases.git",
		ReleasesDir:  "releases.git",
		ReleasePaths: []string{"public/", "nginx.conf"},
		Branch:       "master",
		Remote:       "origin",
	})
}

func (f *releaseFixture) git(line string, res any) *mock.Call {
	return f.exec.On("Run", f.ctx, commandLine(line)).Return(res, nil)
}

func (f *releaseFixture) expectClean() {
	f.git("git diff --stat --exit-code", ok(""))
	f.git("git diff --cached --stat --exit-code", ok(""))
	f.git("git ls-files --other --exclude-standard --directory", ok(""))
}

func (f *releaseFixture) expectPrepared(published string) {
	f.git("git rev-parse --git-dir", ok(f.gitDir+"\n"))
	f.git(rel+"fetch", ok(""))
	f.git(rel+"reset --mixed origin/master --", ok(""))
	f.git(rel+"show origin/master:version.txt", ok(published))
	f.localRepo.On("ShortHead", f.ctx).Return("abc1234", nil)
}

func (f *releaseFixture) expectTagsFree(tag string) {
	f.git(rel+"tag -l "+tag, ok(""))
	f.localRepo.On("TagExists", f.ctx, tag).Return(false, nil)
}

func (f *releaseFixture) expectStaged() {
	f.git(rel+"add -fA -- version.txt public/ nginx.conf", ok(""))
	f.git(rel+"diff --staged --stat", ok(" version.txt | 2 +-\n"))
}

func (f *releaseFixture) expectPublished(version string) {
	f.git(rel+"commit -m Version "+version+", commit abc1234", ok("")).Once()
	f.git(rel+"tag v"+version, ok("")).Once()
	f.git(rel+"push --tags origin master", ok("")).Once()
	f.localRepo.On("CreateTag", f.ctx, "v"+version).Return(nil).Once()
}

func TestReleaseOrchestrator_Execute(t *testing.T) {
	t.Run("Should publish the bumped version", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, out := newTestUI("\n")
		f.expectClean()
		f.expectPrepared("1.0.2\n")
		f.expectTagsFree("v1.0.3")
		f.expectStaged()
		f.expectPublished("1.0.3")
		release, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.NoError(t, err)
		assert.Equal(t, "v1.0.3", release.TagName())
		assert.Equal(t, "abc1234", release.SourceCommit)
		content, err := afero.ReadFile(f.fs, "/src/version.txt")
		require.NoError(t, err)
		assert.Equal(t, "1.0.3\n", string(content))
		assert.Contains(t, out.String(), "This will be committed as Version 1.0.3, commit abc1234")
		assert.Contains(t, out.String(), "Go on? [Y/n]")
		f.exec.AssertExpectations(t)
		f.localRepo.AssertExpectations(t)
	})
	t.Run("Should start at 0.0.1 on the first release", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, out := newTestUI("")
		f.expectClean()
		f.git("git rev-parse --git-dir", ok(f.gitDir))
		f.git(rel+"fetch", ok(""))
		f.git(rel+"reset --mixed origin/master --", failed(128, "unknown revision"))
		f.git(rel+"show origin/master:version.txt", failed(128, "invalid object name"))
		f.localRepo.On("ShortHead", f.ctx).Return("abc1234", nil)
		f.expectTagsFree("v0.0.1")
		f.expectStaged()
		f.expectPublished("0.0.1")
		release, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true, AssumeYes: true})
		require.NoError(t, err)
		assert.Equal(t, "0.0.1", release.Version.String())
		assert.Contains(t, out.String(), "Could not reset to origin/master - assuming this is the first release")
		assert.Contains(t, out.String(), "Releases repo has no version.txt: using 0.0.1")
		assert.NotContains(t, out.String(), "Go on?")
	})
	t.Run("Should clone the releases repository when missing", func(t *testing.T) {
		f := newReleaseFixture(t)
		f.fs = afero.NewMemMapFs()
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.git("git clone --bare ssh://git@example.com/releases.git releases.git", ok("")).Once()
		f.git("git --git-dir=releases.git config remote.origin.fetch +refs/heads/*:refs/remotes/origin/*", ok("")).Once()
		f.expectPrepared("0.0.1")
		f.expectTagsFree("v0.0.2")
		f.expectStaged()
		f.expectPublished("0.0.2")
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.NoError(t, err)
		f.exec.AssertExpectations(t)
	})
	t.Run("Should use an explicit version", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.git("git rev-parse --git-dir", ok(f.gitDir))
		f.git(rel+"fetch", ok(""))
		f.git(rel+"reset --mixed origin/master --", ok(""))
		f.localRepo.On("ShortHead", f.ctx).Return("abc1234", nil)
		f.expectTagsFree("v2.0.0")
		f.expectStaged()
		f.expectPublished("2.0.0")
		release, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Version: "2", Clean: true})
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", release.Version.String())
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"show origin/master:version.txt"))
	})
	t.Run("Should abort on untracked files when clean is required", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.git("git diff --stat --exit-code", ok(""))
		f.git("git diff --cached --stat --exit-code", ok(""))
		f.git("git ls-files --other --exclude-standard --directory", ok("notes.txt\n"))
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.ErrorIs(t, err, domain.ErrDirtyWorkingTree)
		assert.ErrorContains(t, err, "Untracked files exist")
		assert.ErrorContains(t, err, "--allow-dirty")
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine("git rev-parse --git-dir"))
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"add -fA -- version.txt public/ nginx.conf"))
		exists, _ := afero.Exists(f.fs, "/src/version.txt")
		assert.False(t, exists)
	})
	t.Run("Should only warn about untracked files when clean is not required", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, out := newTestUI("y\n")
		f.git("git diff --stat --exit-code", ok(""))
		f.git("git diff --cached --stat --exit-code", ok(""))
		f.git("git ls-files --other --exclude-standard --directory", ok("notes.txt\n"))
		f.expectPrepared("1.0.2")
		f.expectTagsFree("v1.0.3")
		f.expectStaged()
		f.expectPublished("1.0.3")
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: false})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Untracked files exist.")
	})
	t.Run("Should refuse a tag that exists in the releases repo", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.expectPrepared("1.0.2")
		f.git(rel+"tag -l v1.0.3", ok("v1.0.3\n"))
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.ErrorIs(t, err, domain.ErrTagExists)
		assert.ErrorContains(t, err, "releases repo")
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"commit -m Version 1.0.3, commit abc1234"))
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"push --tags origin master"))
		f.localRepo.AssertNotCalled(t, "CreateTag", mock.Anything, mock.Anything)
		exists, _ := afero.Exists(f.fs, "/src/version.txt")
		assert.False(t, exists)
	})
	t.Run("Should refuse a tag that exists in the local repo", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.expectPrepared("1.0.2")
		f.git(rel+"tag -l v1.0.3", ok(""))
		f.localRepo.On("TagExists", f.ctx, "v1.0.3").Return(true, nil)
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.ErrorIs(t, err, domain.ErrTagExists)
		assert.ErrorContains(t, err, "local repo")
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"push --tags origin master"))
	})
	t.Run("Should not commit when the operator declines", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("n\n")
		f.expectClean()
		f.expectPrepared("1.0.2")
		f.expectTagsFree("v1.0.3")
		f.expectStaged()
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.ErrorIs(t, err, domain.ErrAborted)
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"commit -m Version 1.0.3, commit abc1234"))
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"tag v1.0.3"))
		f.localRepo.AssertNotCalled(t, "CreateTag", mock.Anything, mock.Anything)
	})
	t.Run("Should refuse to run while another release holds the lock", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.git("git rev-parse --git-dir", ok(f.gitDir))
		held, err := f.orchestrator(ui).acquireLock(f.ctx)
		require.NoError(t, err)
		defer func() { _ = held.Release() }()
		_, err = f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.ErrorIs(t, err, domain.ErrReleaseInProgress)
		f.exec.AssertNotCalled(t, "Run", f.ctx, commandLine(rel+"fetch"))
	})
	t.Run("Should stop when the push fails", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.expectPrepared("1.0.2")
		f.expectTagsFree("v1.0.3")
		f.expectStaged()
		f.git(rel+"commit -m Version 1.0.3, commit abc1234", ok(""))
		f.git(rel+"tag v1.0.3", ok(""))
		f.git(rel+"push --tags origin master", failed(1, "rejected"))
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		require.Error(t, err)
		assert.ErrorContains(t, err, "rejected")
		f.localRepo.AssertNotCalled(t, "CreateTag", mock.Anything, mock.Anything)
	})
	t.Run("Should propagate local repository errors", func(t *testing.T) {
		f := newReleaseFixture(t)
		ui, _ := newTestUI("y\n")
		f.expectClean()
		f.git("git rev-parse --git-dir", ok(f.gitDir))
		f.git(rel+"fetch", ok(""))
		f.git(rel+"reset --mixed origin/master --", ok(""))
		f.git(rel+"show origin/master:version.txt", ok("1.0.2"))
		expectedErr := errors.New("reference not found")
		f.localRepo.On("ShortHead", f.ctx).Return("", expectedErr)
		_, err := f.orchestrator(ui).Execute(f.ctx, ReleaseConfig{Clean: true})
		assert.ErrorIs(t, err, expectedErr)
	})
}
