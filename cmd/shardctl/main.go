package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shardctl",
		Short: "Run and inspect gateway shards",
		Long: `shardctl connects a shard to the gateway, keeps an in-memory cache of the
events it receives and exposes shard metrics for Prometheus.

Every flag can also be set through the environment with the SHARDCTL_ prefix,
for example SHARDCTL_TOKEN or SHARDCTL_METRICS_ADDR.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shardctl %s (%s)\n", version, commit)
		},
	}
}
