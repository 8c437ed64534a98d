package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/compozy/gitdeploy/internal/config"
	"github.com/compozy/gitdeploy/internal/console"
	"github.com/compozy/gitdeploy/internal/domain"
	"github.com/compozy/gitdeploy/internal/logger"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/compozy/gitdeploy/internal/service"
	"github.com/compozy/gitdeploy/pkg/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.

type container struct {
	cfg     *config.Config
	workDir string

	fsRepo repository.FileSystemRepository
	ui     *console.UI
	logger *zap.Logger
}

// newContainer creates a new container with all the dependencies.
func newContainer() (*container, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfig(workDir)
	if err != nil {
		return nil, err
	}
	return &container{
		cfg:     cfg,
		workDir: workDir,
		fsRepo:  repository.FileSystemRepository(afero.NewOsFs()),
		ui:      console.NewStd(),
		logger:  zap.NewNop(),
	}, nil
}

// setupLogger builds the logger once flags are parsed; the flag wins over the config.
func (c *container) setupLogger(level string) error {
	if level == "" {
		level = c.cfg.LogLevel
	}
	l, err := logger.GetLogger(level)
	if err != nil {
		return err
	}
	c.logger = logger.WithRunID(l)
	return nil
}

// executor returns the executor for host, or the local one when host is empty.
func (c *container) executor(host string) (repository.Executor, error) {
	if host == "" {
		return repository.NewLocalExecutor(c.fsRepo), nil
	}
	ssh := c.cfg.SSH
	c.logger.Debug("connecting over ssh", zap.String("host", host))
	return repository.NewSSHExecutor(repository.SSHConfig{
		Host:                  host,
		User:                  ssh.User,
		Port:                  ssh.Port,
		IdentityFile:          ssh.IdentityFile,
		KnownHostsFile:        ssh.KnownHostsFile,
		InsecureIgnoreHostKey: ssh.InsecureIgnoreHostKey,
		ConfigFile:            ssh.ConfigFile,
		DialTimeout:           ssh.DialTimeout,
	})
}

// postUpdateHook chains the change log with the configured command rules.
func (c *container) postUpdateHook(exec repository.Executor) (domain.PostUpdateHook, error) {
	hooks := domain.Hooks{domain.PostUpdateFunc(c.logUpdatedFiles)}
	if len(c.cfg.PostUpdate) == 0 {
		return hooks, nil
	}
	rules := make([]service.HookRule, 0, len(c.cfg.PostUpdate))
	for _, r := range c.cfg.PostUpdate {
		rules = append(rules, service.HookRule{Paths: r.Paths, Run: r.Run})
	}
	commands, err := service.NewCommandHook(exec, rules, service.CommandHookOptions{
		Dir:    c.cfg.InstallDir,
		Stdout: c.ui.Out(),
		Stderr: c.ui.ErrOut(),
		Logger: c.logger,
	})
	if err != nil {
		return nil, err
	}
	return append(hooks, commands), nil
}

func (c *container) logUpdatedFiles(
	_ context.Context,
	_ *domain.Version,
	newVersion domain.Version,
	files domain.UpdatedFiles,
) error {
	for _, path := range files.Paths() {
		c.logger.Debug("updated file",
			zap.String("version", newVersion.String()),
			zap.String("path", path),
			zap.String("status", string(files[path])),
		)
	}
	return nil
}

func (c *container) closeExecutor(exec repository.Executor) {
	if err := exec.Close(); err != nil {
		c.logger.Warn("failed to close executor", zap.Error(err))
	}
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	rootCmd.Version = version.Summary()
	var logLevel string
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", fmt.Sprintf(
		"Diagnostics level: %s, %s, %s, error or %s (default from config: %s)",
		logger.LevelDebug, logger.LevelInfo, logger.LevelWarn, logger.LevelNone, c.cfg.LogLevel,
	))
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return c.setupLogger(logLevel)
	}
	rootCmd.AddCommand(
		newReleaseCmd(c),
		newDeployCmd(c),
		newCloneReleasesCmd(c),
		newInitReleasesCmd(c),
		newVersionCmd(),
	)
	return nil
}
