package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/gitdeploy/internal/repository"
)

// InitReleasesRepo creates a bare releases repository at path on the executor's host,
// with an empty first commit so that clones have a branch to track.
// Running it against an existing repository adds another empty commit and destroys nothing.
func InitReleasesRepo(ctx context.Context, exec repository.Executor, ui UI, path string) error {
	if err := ValidateRepoPath(path); err != nil {
		return err
	}
	git := repository.NewWorkTreeGit(exec, "", repository.WithOutput(ui.Out(), ui.ErrOut()))
	if err := git.Run(ctx, "--git-dir="+path, "init"); err != nil {
		return fmt.Errorf("failed to init releases repository: %w", err)
	}
	if err := git.Run(ctx, "--git-dir="+path, "--work-tree=.", "commit", "--allow-empty", "-m", initialCommitMessage); err != nil {
		return fmt.Errorf("failed to create initial commit: %w", err)
	}
	ui.Success("Releases repository ready at %s", path)
	return nil
}
