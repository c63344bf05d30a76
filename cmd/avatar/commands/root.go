// Package commands implements the avatar CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "avatar",
		Short: "Animated avatar client for a remote conversational agent",
		Long: `avatar drives a blinking, talking 3D character from the events of a
remote conversational agent, reconnecting automatically when the agent
drops.

Examples:
  avatar run                 # connect and run the frame loop
  avatar sim                 # run a local agent simulator
  avatar run --scene head.yaml`,
		Version: version,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newSimCmd(),
	)

	return rootCmd
}
