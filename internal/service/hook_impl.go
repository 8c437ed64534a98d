package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
	"go.uber.org/zap"
)

// Environment passed to hook commands.
const (
	EnvOldVersion = "GITDEPLOY_OLD_VERSION"
	EnvNewVersion = "GITDEPLOY_NEW_VERSION"
)

// commandHook is the implementation of the command-based post-update hook.
type commandHook struct {
	exec  repository.Executor
	rules []HookRule
	opts  CommandHookOptions
}

func newCommandHook(exec repository.Executor, rules []HookRule, opts CommandHookOptions) (*commandHook, error) {
	normalized := make([]HookRule, 0, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.Run) == "" {
			return nil, fmt.Errorf("hook rule %d has no command", i)
		}
		patterns := make([]string, 0, len(rule.Paths))
		for _, p := range rule.Paths {
			p = normalizePattern(p)
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("hook rule %d: invalid path pattern %q", i, p)
			}
			patterns = append(patterns, p)
		}
		normalized = append(normalized, HookRule{Paths: patterns, Run: rule.Run})
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &commandHook{exec: exec, rules: normalized, opts: opts}, nil
}

// normalizePattern turns "dir/" into "dir/**" and strips a leading "./".
func normalizePattern(p string) string {
	p = strings.TrimPrefix(strings.TrimSpace(p), "./")
	if strings.HasSuffix(p, "/") {
		p += "**"
	}
	return p
}

// matches reports whether the rule applies to the updated files.
func (r HookRule) matches(files domain.UpdatedFiles) bool {
	if len(r.Paths) == 0 {
		return true
	}
	for _, path := range files.Paths() {
		for _, pattern := range r.Paths {
			if ok, _ := doublestar.Match(pattern, path); ok {
				return true
			}
		}
	}
	return false
}

// PostUpdate runs every matching rule in order; the first failing command aborts.
func (h *commandHook) PostUpdate(
	ctx context.Context,
	oldVersion *domain.Version,
	newVersion domain.Version,
	files domain.UpdatedFiles,
) error {
	old := ""
	if oldVersion != nil {
		old = oldVersion.String()
	}
	for _, rule := range h.rules {
		if !rule.matches(files) {
			h.opts.Logger.Debug("skipping post-update command", zap.String("run", rule.Run))
			continue
		}
		h.opts.Logger.Info("running post-update command", zap.String("run", rule.Run))
		cmd := repository.Command{
			Dir:  h.opts.Dir,
			Name: "env",
			Args: []string{
				EnvOldVersion + "=" + old,
				EnvNewVersion + "=" + newVersion.String(),
				"sh", "-c", rule.Run,
			},
			Stdout: h.opts.Stdout,
			Stderr: h.opts.Stderr,
		}
		res, err := h.exec.Run(ctx, cmd)
		if err != nil {
			return fmt.Errorf("post-update command %q: %w", rule.Run, err)
		}
		if !res.Succeeded() {
			return &repository.ShellError{Command: rule.Run, ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
	}
	return nil
}
