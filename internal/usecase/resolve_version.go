package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
)

// NextVersion is the outcome of ResolveNextVersionUseCase.
type NextVersion struct {
	Version domain.Version
	// FirstRelease is set when the releases branch has no version file yet.
	FirstRelease bool
}

// ResolveNextVersionUseCase picks the version of the next release.
type ResolveNextVersionUseCase struct {
	Git    *repository.GitShell
	Remote string
	Branch string
}

// Execute validates an explicit version, or bumps the one published on the releases branch.
func (uc *ResolveNextVersionUseCase) Execute(ctx context.Context, explicit string) (NextVersion, error) {
	if strings.TrimSpace(explicit) != "" {
		v, err := domain.ParseVersion(explicit)
		if err != nil {
			return NextVersion{}, err
		}
		return NextVersion{Version: v.Normalize()}, nil
	}
	ref := fmt.Sprintf("%s/%s:%s", uc.Remote, uc.Branch, domain.VersionFile)
	res, err := uc.Git.Probe(ctx, "show", ref)
	if err != nil {
		return NextVersion{}, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	current := strings.TrimSpace(res.Stdout)
	if !res.Succeeded() || current == "" {
		return NextVersion{Version: domain.InitialVersion(), FirstRelease: true}, nil
	}
	v, err := domain.ParseVersion(current)
	if err != nil {
		return NextVersion{}, fmt.Errorf("published %s: %w", domain.VersionFile, err)
	}
	next, err := v.Bump()
	if err != nil {
		return NextVersion{}, fmt.Errorf("published %s: %w", domain.VersionFile, err)
	}
	return NextVersion{Version: next}, nil
}
