/*
Package cli provides command-line helpers used by the chaos-agent command.

Errors:

ConfigError and CommandError carry the failing field or command. FromValidation
splits a config.ValidationError into one ConfigError per field, and ExitCode
maps an error to the process exit status:

	if err := rootCmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

Output Formatting:

Command results are written as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler(func(sig os.Signal) {
		agent.Shutdown(sig.String(), graceMs)
	})
*/
package cli
