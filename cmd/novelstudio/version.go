package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zer0thgear/zer0-novel-utillities/internal/build"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Version)
	},
}

var buildInfoCmd = &cobra.Command{
	Use:   "build-info",
	Short: "Show build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.GetBuildInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildInfoCmd)
}
