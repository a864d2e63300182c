package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/chaos/pkg/cli"
	"mercator-hq/chaos/pkg/config"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the agent.

Every validation error is reported, not only the first. The exit status is
2 when the configuration is invalid.

Examples:
  chaos-agent validate --config chaos.yaml
  chaos-agent validate --config chaos.yaml --output json`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json")
}

type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type experimentSummary struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Enabled    bool   `json:"enabled"`
	Percentage int    `json:"percentage"`
}

type validationReport struct {
	Path        string              `json:"path"`
	Valid       bool                `json:"valid"`
	Errors      []fieldIssue        `json:"errors,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Experiments []experimentSummary `json:"experiments,omitempty"`
}

func (r validationReport) String() string {
	var sb strings.Builder
	if !r.Valid {
		fmt.Fprintf(&sb, "✗ %s is invalid (%d errors)\n", r.Path, len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s: %s\n", e.Field, e.Message)
		}
		return strings.TrimSuffix(sb.String(), "\n")
	}

	fmt.Fprintf(&sb, "✓ %s is valid (%d experiments)\n", r.Path, len(r.Experiments))
	for _, e := range r.Experiments {
		state := "enabled"
		if !e.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(&sb, "  - %s: %s, %d%%, %s\n", e.ID, e.Kind, e.Percentage, state)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "! %s\n", w)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}

	cfg, loadErr := config.LoadConfig(cfgFile)
	report := buildReport(cfgFile, cfg, loadErr)
	if loadErr != nil && report.Valid {
		// Not a validation failure: unreadable file or YAML syntax error.
		return cli.NewCommandError("validate", loadErr)
	}

	if err := cli.Print(cmd.OutOrStdout(), format, report); err != nil {
		return err
	}
	if !report.Valid {
		return cli.NewCommandError("validate", loadErr)
	}
	return nil
}

func buildReport(path string, cfg *config.Config, loadErr error) validationReport {
	report := validationReport{Path: path, Valid: true}

	if issues := cli.FromValidation(loadErr); issues != nil {
		report.Valid = false
		for _, issue := range issues {
			report.Errors = append(report.Errors, fieldIssue{Field: issue.Field, Message: issue.Message})
		}
		return report
	}
	if cfg == nil {
		return report
	}

	for _, exp := range cfg.Experiments {
		report.Experiments = append(report.Experiments, experimentSummary{
			ID:         exp.ID,
			Kind:       string(exp.Fault.Kind()),
			Enabled:    exp.Enabled,
			Percentage: exp.Targeting.Percentage,
		})
		if exp.Enabled && exp.Targeting.Percentage > cfg.Safety.MaxAffectedPercent {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"experiment %q targets %d%% of matching traffic, above safety.max_affected_percent (%d), which is not enforced",
				exp.ID, exp.Targeting.Percentage, cfg.Safety.MaxAffectedPercent))
		}
	}
	if !cfg.Settings.Enabled {
		report.Warnings = append(report.Warnings, "settings.enabled is false: no fault will be injected")
	}
	return report
}
