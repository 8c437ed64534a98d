package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
)

// CollectUpdatedFilesUseCase classifies what a deploy changed in a checkout.
type CollectUpdatedFilesUseCase struct {
	Git *repository.GitShell
}

// Execute diffs oldHead against tag. Without an old head every tracked file counts as added.
// Both listings use -z so paths arrive unquoted.
func (uc *CollectUpdatedFilesUseCase) Execute(ctx context.Context, oldHead, tag string) (domain.UpdatedFiles, error) {
	capture := repository.RunOptions{Capture: true}
	if oldHead == "" {
		res, err := uc.Git.Exec(ctx, capture, "ls-files", "-z")
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}
		return domain.AllAdded(res.Stdout), nil
	}
	res, err := uc.Git.Exec(ctx, capture, "diff", "--name-status", "-z", oldHead, tag, "--")
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", oldHead, tag, err)
	}
	files, err := domain.ParseNameStatus(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	return files, nil
}
