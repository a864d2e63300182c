package main

import (
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"
)

//go:embed example.yaml
var exampleConfig string

var printConfigCmd = &cobra.Command{
	Use:   "print-config",
	Short: "Print an example configuration",
	Long: `Print an annotated example configuration covering every section.

Examples:
  chaos-agent print-config > chaos.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), exampleConfig)
		return err
	},
}

func init() {
	rootCmd.AddCommand(printConfigCmd)
}
