package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/spf13/afero"
)

// EnsureReleaseRepoUseCase clones the releases repository next to the working tree when it is missing.
type EnsureReleaseRepoUseCase struct {
	Git     *repository.GitShell
	FsRepo  repository.FileSystemRepository
	WorkDir string
}

// Execute reports whether a clone was made.
func (uc *EnsureReleaseRepoUseCase) Execute(ctx context.Context, releasesRepo, releasesDir, remote string) (bool, error) {
	path := releasesDir
	if !filepath.IsAbs(path) {
		path = filepath.Join(uc.WorkDir, releasesDir)
	}
	exists, err := afero.DirExists(uc.FsRepo, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if exists {
		return false, nil
	}
	if err := CloneReleasesRepo(ctx, uc.Git, releasesRepo, releasesDir, remote); err != nil {
		return false, err
	}
	return true, nil
}

// CloneReleasesRepo makes a bare clone that keeps remote-tracking branches, so that
// "<remote>/<branch>" can be fetched and reset to like in a regular clone.
func CloneReleasesRepo(ctx context.Context, git *repository.GitShell, releasesRepo, releasesDir, remote string) error {
	args := []string{"clone", "--bare"}
	if remote != "" && remote != "origin" {
		args = append(args, "--origin", remote)
	} else {
		remote = "origin"
	}
	args = append(args, releasesRepo, releasesDir)
	if err := git.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to clone releases repository: %w", err)
	}
	refspec := fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote)
	if err := git.Run(ctx, "--git-dir="+releasesDir, "config", "remote."+remote+".fetch", refspec); err != nil {
		return fmt.Errorf("failed to configure fetch refspec: %w", err)
	}
	return nil
}
