package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/chaos/pkg/cli"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "chaos-agent",
	Short: "HTTP fault injection agent",
	Long: `chaos-agent injects latency, errors, timeouts, throttling, corrupted
responses and connection resets into HTTP traffic.

Experiments are declared in a YAML file. Each one pairs a targeting rule
(paths, methods, headers, percentage) with a fault. A safety gate (kill
switch, drain flag, schedule windows and excluded paths) runs before any
experiment is considered.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "chaos.yaml", "config file path")
}
