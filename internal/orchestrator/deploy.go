package orchestrator

import (
	"context"
	"fmt"
	"path"

	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/compozy/gitdeploy/internal/usecase"
	"go.uber.org/zap"
)

// DeploySettings are the configured options a deploy works with.
type DeploySettings struct {
	InstallDir   string
	ReleasesRepo string
	Branch       string
	Remote       string
}

// DeployConfig contains the per-invocation options of a deploy.
type DeployConfig struct {
	// Version selects the release to install; the latest one when empty.
	Version string
}

// DeployOrchestrator brings the checkout on a host to a released version.
type DeployOrchestrator struct {
	exec     repository.Executor
	git      *repository.GitShell
	hook     domain.PostUpdateHook
	ui       UI
	logger   *zap.Logger
	settings DeploySettings
}

// NewDeployOrchestrator creates a new deploy orchestrator. hook may be nil.
func NewDeployOrchestrator(
	exec repository.Executor,
	hook domain.PostUpdateHook,
	ui UI,
	logger *zap.Logger,
	settings DeploySettings,
) *DeployOrchestrator {
	return &DeployOrchestrator{
		exec: exec,
		git: repository.NewCheckoutGit(exec, settings.InstallDir,
			repository.WithOutput(ui.Out(), ui.ErrOut()),
			repository.WithLogger(logger),
		),
		hook:     hook,
		ui:       ui,
		logger:   logger,
		settings: settings,
	}
}

// Execute runs the deploy and returns what changed.
func (o *DeployOrchestrator) Execute(ctx context.Context, cfg DeployConfig) (*domain.Deployment, error) {
	deployment := &domain.Deployment{}
	// Step 1: Inspect or create the checkout
	if err := o.prepareCheckout(ctx, deployment); err != nil {
		return nil, err
	}
	// Step 2: Decide what to install
	newVersion, err := o.targetVersion(ctx, cfg.Version)
	if err != nil {
		return nil, err
	}
	deployment.NewVersion = newVersion
	if old := deployment.OldVersion; old != nil && newVersion.Compare(*old) < 0 {
		o.ui.Warn("Version %s is older than the installed version %s", newVersion, old)
	}
	o.ui.Success("Switching from version %s (%s) to %s",
		describeVersion(deployment.OldVersion), describeHead(deployment.OldHead), newVersion)
	// Step 3: Switch
	tag := newVersion.Tag()
	if err := o.git.Run(ctx, "reset", "--hard", tag); err != nil {
		return nil, fmt.Errorf("failed to switch to %s: %w", tag, err)
	}
	collect := &usecase.CollectUpdatedFilesUseCase{Git: o.git}
	files, err := collect.Execute(ctx, deployment.OldHead, tag)
	if err != nil {
		return nil, err
	}
	deployment.Files = files
	o.logger.Info("checkout updated",
		zap.String("install_dir", o.settings.InstallDir),
		zap.String("version", newVersion.String()),
		zap.Int("updated_files", len(files)),
		zap.Bool("initial", deployment.Initial()),
	)
	// Step 4: Let the hook react to the change
	if o.hook != nil {
		if err := o.hook.PostUpdate(ctx, deployment.OldVersion, newVersion, files); err != nil {
			return nil, fmt.Errorf("post-update hook failed: %w", err)
		}
	}
	return deployment, nil
}

func (o *DeployOrchestrator) prepareCheckout(ctx context.Context, deployment *domain.Deployment) error {
	gitDir := path.Join(o.settings.InstallDir, ".git")
	exists, err := o.exec.Exists(ctx, gitDir)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", gitDir, err)
	}
	if !exists {
		o.ui.Success("%s does not exist, cloning it", gitDir)
		args := []string{"clone"}
		// The checkout must know the remote under the configured name.
		if remote := o.settings.Remote; remote != "" && remote != "origin" {
			args = append(args, "--origin", remote)
		}
		args = append(args, o.settings.ReleasesRepo, o.settings.InstallDir)
		if err := o.git.At("").Run(ctx, args...); err != nil {
			return fmt.Errorf("failed to clone releases repository: %w", err)
		}
		return nil
	}
	if err := o.git.Run(ctx, "fetch"); err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}
	head, err := o.git.Output(ctx, "rev-parse", "HEAD")
	if err != nil {
		return fmt.Errorf("failed to read installed commit: %w", err)
	}
	raw, err := o.git.Output(ctx, "show", "HEAD:"+domain.VersionFile)
	if err != nil {
		return fmt.Errorf("failed to read installed version: %w", err)
	}
	oldVersion, err := domain.ParseVersion(raw)
	if err != nil {
		return fmt.Errorf("installed %s: %w", domain.VersionFile, err)
	}
	deployment.OldHead = head
	deployment.OldVersion = &oldVersion
	o.ui.Info("Currently installed version: %s", oldVersion)
	return nil
}

func (o *DeployOrchestrator) targetVersion(ctx context.Context, explicit string) (domain.Version, error) {
	if explicit != "" {
		return ValidateVersion(explicit)
	}
	ref := fmt.Sprintf("%s/%s:%s", o.settings.Remote, o.settings.Branch, domain.VersionFile)
	raw, err := o.git.Output(ctx, "show", ref)
	if err != nil {
		return domain.Version{}, fmt.Errorf("failed to read latest version: %w", err)
	}
	v, err := domain.ParseVersion(raw)
	if err != nil {
		return domain.Version{}, fmt.Errorf("latest %s: %w", domain.VersionFile, err)
	}
	return v, nil
}

func describeVersion(v *domain.Version) string {
	if v == nil {
		return "none"
	}
	return v.String()
}

func describeHead(head string) string {
	if head == "" {
		return "none"
	}
	return head
}
