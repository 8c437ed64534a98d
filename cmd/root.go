package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitdeploy",
	Short: "Release build output to a git repository and deploy it from there",
	Long: `gitdeploy publishes the build output of a working tree as tagged commits in a
dedicated releases repository, and installs those releases on servers by
checking them out with git.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}
