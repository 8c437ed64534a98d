package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/go-git/go-git/v5"
)

const shortHashLength = 7

// gitRepository is the implementation of the LocalRepository interface.

type gitRepository struct {
	repo *git.Repository
}

// NewLocalRepository opens the git repository containing path.
func NewLocalRepository(path string) (LocalRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitRepository{repo: repo}, nil
}

// ShortHead returns the abbreviated hash of HEAD.
func (r *gitRepository) ShortHead(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String()[:shortHashLength], nil
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// CreateTag creates a lightweight tag at HEAD.
func (r *gitRepository) CreateTag(_ context.Context, tag string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	if _, err := r.repo.CreateTag(tag, head.Hash(), nil); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return fmt.Errorf("%w: %s in local repo", domain.ErrTagExists, tag)
		}
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}
	return nil
}
