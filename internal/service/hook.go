package service

import (
	"io"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
	"go.uber.org/zap"
)

// HookRule runs a shell command when any of its path patterns matches an updated file.
// Patterns use doublestar syntax; a trailing slash matches everything below a directory.
// A rule without patterns always runs.
type HookRule struct {
	Paths []string
	Run   string
}

// CommandHookOptions configures NewCommandHook.
type CommandHookOptions struct {
	// Dir is where the commands run, normally the install directory.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// NewCommandHook creates a post-update hook running the rules on the executor.
func NewCommandHook(exec repository.Executor, rules []HookRule, opts CommandHookOptions) (domain.PostUpdateHook, error) {
	hook, err := newCommandHook(exec, rules, opts)
	if err != nil {
		return nil, err
	}
	return hook, nil
}
