package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/gitdeploy/internal/repository"
)

// Messages reported for a dirty working tree.
const (
	UnstagedChanges   = "You have unstaged changes"
	UncommittedIndex  = "Your index contains uncommitted changes"
	UntrackedFilesMsg = "Untracked files exist"
)

// CheckWorkingDirCleanUseCase contains the logic for the cleanliness check.

type CheckWorkingDirCleanUseCase struct {
	Git *repository.GitShell
}

// Execute runs the use case and returns one message per problem found, in check order.
func (uc *CheckWorkingDirCleanUseCase) Execute(ctx context.Context) ([]string, error) {
	var violations []string
	res, err := uc.Git.Exec(ctx, repository.RunOptions{Probe: true}, "diff", "--stat", "--exit-code")
	if err != nil {
		return nil, fmt.Errorf("failed to check unstaged changes: %w", err)
	}
	if !res.Succeeded() {
		violations = append(violations, UnstagedChanges)
	}
	res, err = uc.Git.Exec(ctx, repository.RunOptions{Probe: true}, "diff", "--cached", "--stat", "--exit-code")
	if err != nil {
		return nil, fmt.Errorf("failed to check staged changes: %w", err)
	}
	if !res.Succeeded() {
		violations = append(violations, UncommittedIndex)
	}
	res, err = uc.Git.Probe(ctx, "ls-files", "--other", "--exclude-standard", "--directory")
	if err != nil {
		return nil, fmt.Errorf("failed to list untracked files: %w", err)
	}
	if !res.Succeeded() || strings.TrimSpace(res.Stdout) != "" {
		violations = append(violations, UntrackedFilesMsg)
	}
	return violations, nil
}
