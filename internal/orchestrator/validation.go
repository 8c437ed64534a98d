package orchestrator

import (
	"fmt"
	"strings"

	"github.com/compozy/gitdeploy/internal/domain"
)

// ValidateVersion parses a version given on the command line and pads it to three components.
func ValidateVersion(version string) (domain.Version, error) {
	if strings.TrimSpace(version) == "" {
		return domain.Version{}, fmt.Errorf("%w: version cannot be empty", domain.ErrInvalidVersion)
	}
	v, err := domain.ParseVersion(version)
	if err != nil {
		return domain.Version{}, err
	}
	return v.Normalize(), nil
}

// ValidateRepoPath checks a path handed to git as a repository location.
func ValidateRepoPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("repository path cannot be empty")
	}
	if strings.HasPrefix(path, "-") {
		return fmt.Errorf("repository path cannot start with a dash: %s", path)
	}
	return nil
}
