package cmd

import (
	"fmt"

	"github.com/compozy/gitdeploy/internal/orchestrator"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/compozy/gitdeploy/internal/usecase"
	"github.com/spf13/cobra"
)

// newCloneReleasesCmd creates the clone-releases command
func newCloneReleasesCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "clone-releases",
		Short: "Clone the releases repository into releases_dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.ReleasesRepo == "" {
				return fmt.Errorf("releases_repo is required to clone the releases repository")
			}
			exec, err := c.executor("")
			if err != nil {
				return err
			}
			defer c.closeExecutor(exec)
			git := repository.NewWorkTreeGit(exec, c.workDir,
				repository.WithOutput(c.ui.Out(), c.ui.ErrOut()),
				repository.WithLogger(c.logger),
			)
			err = usecase.CloneReleasesRepo(cmd.Context(), git, c.cfg.ReleasesRepo, c.cfg.ReleasesDir, c.cfg.Remote)
			if err != nil {
				return err
			}
			c.ui.Success("Cloned %s into %s", c.cfg.ReleasesRepo, c.cfg.ReleasesDir)
			return nil
		},
	}
}

// newInitReleasesCmd creates the init-releases command
func newInitReleasesCmd(c *container) *cobra.Command {
	var initHost string
	cmd := &cobra.Command{
		Use:   "init-releases <path>",
		Short: "Create a bare releases repository at path, locally or on --host",
		Long: `Create the central releases repository with an empty first commit.

Running it against an existing repository is harmless: it only adds another
empty commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := c.executor(initHost)
			if err != nil {
				return err
			}
			defer c.closeExecutor(exec)
			return orchestrator.InitReleasesRepo(cmd.Context(), exec, c.ui, args[0])
		},
	}
	cmd.Flags().StringVar(&initHost, "host", "", "Create the repository over ssh on [user@]host[:port]")
	return cmd
}
