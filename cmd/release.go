package cmd

import (
	"github.com/compozy/gitdeploy/internal/orchestrator"
	"github.com/compozy/gitdeploy/internal/repository"
	"github.com/spf13/cobra"
)

// newReleaseCmd creates the release command
func newReleaseCmd(c *container) *cobra.Command {
	var (
		releaseYes        bool
		releaseAllowDirty bool
	)
	cmd := &cobra.Command{
		Use:   "release [version]",
		Short: "Commit the release paths to the releases repository and tag them",
		Long: `Create a release from the current working tree.

This command:
- Checks that everything has been committed
- Clones the releases repository if needed and fast-forwards it
- Bumps the version found in the releases repository (or uses the given one)
- Stages version.txt and the release paths and shows what will be committed
- Commits, tags v<version> and pushes after confirmation
- Tags the source commit in the local repository`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.ValidateForRelease(); err != nil {
				return err
			}
			localRepo, err := repository.NewLocalRepository(c.workDir)
			if err != nil {
				return err
			}
			exec, err := c.executor("")
			if err != nil {
				return err
			}
			defer c.closeExecutor(exec)
			orch := orchestrator.NewReleaseOrchestrator(exec, localRepo, c.fsRepo, c.ui, c.logger,
				orchestrator.ReleaseSettings{
					WorkDir:      c.workDir,
					ReleasesRepo: c.cfg.ReleasesRepo,
					ReleasesDir:  c.cfg.ReleasesDir,
					ReleasePaths: c.cfg.ReleasePaths,
					Branch:       c.cfg.Branch,
					Remote:       c.cfg.Remote,
				})
			cfg := orchestrator.ReleaseConfig{
				Clean:     c.cfg.Clean && !releaseAllowDirty,
				AssumeYes: releaseYes,
			}
			if len(args) == 1 {
				cfg.Version = args[0]
			}
			release, err := orch.Execute(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.ui.Success("Released %s", release.TagName())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&releaseYes, "yes", "y", false, "Commit without asking for confirmation")
	cmd.Flags().BoolVar(&releaseAllowDirty, "allow-dirty", false, "Only warn about uncommitted or untracked files")
	return cmd
}
