package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/compozy/gitdeploy/internal/usecase"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ReleaseSettings are the configured options a release works with.
type ReleaseSettings struct {
	WorkDir      string
	ReleasesRepo string
	ReleasesDir  string
	ReleasePaths []string
	Branch       string
	Remote       string
}

// ReleaseConfig contains the per-invocation options of a release.
type ReleaseConfig struct {
	// Version overrides the bumped version when set.
	Version string
	// Clean aborts the release when the working tree is dirty.
	Clean bool
	// AssumeYes commits without asking.
	AssumeYes bool
}

// ReleaseOrchestrator publishes the build output of the working tree as a new
// commit and tag on the releases repository.
type ReleaseOrchestrator struct {
	workGit    *repository.GitShell
	releaseGit *repository.GitShell
	localRepo  repository.LocalRepository
	fsRepo     repository.FileSystemRepository
	ui         UI
	logger     *zap.Logger
	settings   ReleaseSettings
}

// NewReleaseOrchestrator creates a new release orchestrator.
func NewReleaseOrchestrator(
	exec repository.Executor,
	localRepo repository.LocalRepository,
	fsRepo repository.FileSystemRepository,
	ui UI,
	logger *zap.Logger,
	settings ReleaseSettings,
) *ReleaseOrchestrator {
	opts := []repository.GitShellOption{
		repository.WithOutput(ui.Out(), ui.ErrOut()),
		repository.WithLogger(logger),
	}
	return &ReleaseOrchestrator{
		workGit:    repository.NewWorkTreeGit(exec, settings.WorkDir, opts...),
		releaseGit: repository.NewReleaseRepoGit(exec, settings.WorkDir, settings.ReleasesDir, opts...),
		localRepo:  localRepo,
		fsRepo:     fsRepo,
		ui:         ui,
		logger:     logger,
		settings:   settings,
	}
}

// Execute runs the complete release workflow and returns what was published.
func (o *ReleaseOrchestrator) Execute(ctx context.Context, cfg ReleaseConfig) (*domain.Release, error) {
	// Step 1: Refuse or warn about uncommitted work
	if err := o.checkWorkingDir(ctx, cfg.Clean); err != nil {
		return nil, err
	}
	lock, err := o.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.logger.Warn("failed to release lock", zap.Error(err))
		}
	}()
	// Step 2: Bring the releases repository up to date
	if err := o.syncReleasesRepo(ctx); err != nil {
		return nil, err
	}
	// Step 3: Pick the version and make sure it is new everywhere
	release, err := o.prepareRelease(ctx, cfg.Version)
	if err != nil {
		return nil, err
	}
	// Step 4: Stage and let the operator review
	if err := o.stage(ctx, release); err != nil {
		return nil, err
	}
	if !cfg.AssumeYes {
		ok, err := o.ui.Confirm(confirmQuestion, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrAborted
		}
	}
	// Step 5: Publish
	if err := o.publish(ctx, release); err != nil {
		return nil, err
	}
	return release, nil
}

func (o *ReleaseOrchestrator) checkWorkingDir(ctx context.Context, clean bool) error {
	uc := &usecase.CheckWorkingDirCleanUseCase{Git: o.workGit}
	violations, err := uc.Execute(ctx)
	if err != nil {
		return fmt.Errorf("failed to check working tree: %w", err)
	}
	for _, v := range violations {
		if clean {
			return fmt.Errorf("%w: %s. Use --allow-dirty or set clean: false to ignore", domain.ErrDirtyWorkingTree, v)
		}
		o.ui.Warn("%s.", v)
	}
	return nil
}

// acquireLock locks inside the git directory so the lock file never shows up as untracked.
func (o *ReleaseOrchestrator) acquireLock(ctx context.Context) (*repository.ReleaseLock, error) {
	gitDir, err := o.workGit.Output(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to locate git directory: %w", err)
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(o.settings.WorkDir, gitDir)
	}
	return repository.AcquireReleaseLock(filepath.Join(gitDir, releaseLockName))
}

func (o *ReleaseOrchestrator) syncReleasesRepo(ctx context.Context) error {
	ensure := &usecase.EnsureReleaseRepoUseCase{Git: o.workGit, FsRepo: o.fsRepo, WorkDir: o.settings.WorkDir}
	cloned, err := ensure.Execute(ctx, o.settings.ReleasesRepo, o.settings.ReleasesDir, o.settings.Remote)
	if err != nil {
		return err
	}
	if cloned {
		o.logger.Info("cloned releases repository", zap.String("dir", o.settings.ReleasesDir))
	}
	if err := o.releaseGit.Run(ctx, "fetch"); err != nil {
		return fmt.Errorf("failed to fetch releases repository: %w", err)
	}
	upstream := o.settings.Remote + "/" + o.settings.Branch
	res, err := o.releaseGit.Probe(ctx, "reset", "--mixed", upstream, "--")
	if err != nil {
		return fmt.Errorf("failed to reset to %s: %w", upstream, err)
	}
	if !res.Succeeded() {
		o.ui.Warn("Could not reset to %s - assuming this is the first release", upstream)
	}
	return nil
}

func (o *ReleaseOrchestrator) prepareRelease(ctx context.Context, explicit string) (*domain.Release, error) {
	resolve := &usecase.ResolveNextVersionUseCase{
		Git:    o.releaseGit,
		Remote: o.settings.Remote,
		Branch: o.settings.Branch,
	}
	next, err := resolve.Execute(ctx, explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to determine version: %w", err)
	}
	if next.FirstRelease {
		o.ui.Warn("Releases repo has no %s: using %s", domain.VersionFile, next.Version)
	}
	commit, err := o.localRepo.ShortHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current commit: %w", err)
	}
	release := &domain.Release{Version: next.Version, SourceCommit: commit}
	tag := release.TagName()
	listed, err := o.releaseGit.Output(ctx, "tag", "-l", tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	if listed != "" {
		return nil, fmt.Errorf("%w: %s in releases repo", domain.ErrTagExists, tag)
	}
	exists, err := o.localRepo.TagExists(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to check local tags: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s in local repo", domain.ErrTagExists, tag)
	}
	return release, nil
}

func (o *ReleaseOrchestrator) stage(ctx context.Context, release *domain.Release) error {
	path := filepath.Join(o.settings.WorkDir, domain.VersionFile)
	content := []byte(release.Version.String() + "\n")
	if err := afero.WriteFile(o.fsRepo, path, content, FilePermissionsReadWrite); err != nil {
		return fmt.Errorf("failed to write %s: %w", domain.VersionFile, err)
	}
	args := append([]string{"add", "-fA", "--", domain.VersionFile}, o.settings.ReleasePaths...)
	if err := o.releaseGit.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to stage release: %w", err)
	}
	if err := o.releaseGit.Run(ctx, "diff", "--staged", "--stat"); err != nil {
		return fmt.Errorf("failed to show staged changes: %w", err)
	}
	o.ui.Success("This will be committed as %s", release.CommitMessage())
	return nil
}

func (o *ReleaseOrchestrator) publish(ctx context.Context, release *domain.Release) error {
	tag := release.TagName()
	if err := o.releaseGit.Run(ctx, "commit", "-m", release.CommitMessage()); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	if err := o.releaseGit.Run(ctx, "tag", tag); err != nil {
		return fmt.Errorf("failed to tag release: %w", err)
	}
	if err := o.releaseGit.Run(ctx, "push", "--tags", o.settings.Remote, o.settings.Branch); err != nil {
		return fmt.Errorf("failed to push release: %w", err)
	}
	if err := o.localRepo.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, domain.ErrTagExists) {
			o.ui.Warn("Tag %s already exists in local repo", tag)
			return nil
		}
		return fmt.Errorf("failed to tag local repo: %w", err)
	}
	o.logger.Info("release published", zap.String("tag", tag), zap.String("commit", release.SourceCommit))
	return nil
}
