package cmd

import (
	"github.com/compozy/gitdeploy/internal/orchestrator"
	"github.com/spf13/cobra"
)

// newDeployCmd creates the deploy command
func newDeployCmd(c *container) *cobra.Command {
	var deployHost string
	cmd := &cobra.Command{
		Use:   "deploy [version]",
		Short: "Install the latest or the given release in install_dir",
		Long: `Deploy a release to install_dir, on this machine or over ssh with --host.

The checkout is cloned from the releases repository on the first deploy and
reset to the release tag afterwards. Configured post_update commands run when
the files they watch have changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.ValidateForDeploy(); err != nil {
				return err
			}
			host := deployHost
			if host == "" {
				host = c.cfg.Host
			}
			exec, err := c.executor(host)
			if err != nil {
				return err
			}
			defer c.closeExecutor(exec)
			hook, err := c.postUpdateHook(exec)
			if err != nil {
				return err
			}
			orch := orchestrator.NewDeployOrchestrator(exec, hook, c.ui, c.logger, orchestrator.DeploySettings{
				InstallDir:   c.cfg.InstallDir,
				ReleasesRepo: c.cfg.ReleasesRepo,
				Branch:       c.cfg.Branch,
				Remote:       c.cfg.Remote,
			})
			cfg := orchestrator.DeployConfig{}
			if len(args) == 1 {
				cfg.Version = args[0]
			}
			deployment, err := orch.Execute(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.ui.Success("Deployed %s (%d files updated)", deployment.NewVersion, len(deployment.Files))
			return nil
		},
	}
	cmd.Flags().StringVar(&deployHost, "host", "", "Deploy over ssh to [user@]host[:port] instead of locally")
	return cmd
}
