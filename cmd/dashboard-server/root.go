package main

import (
	"github.com/spf13/cobra"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/ui"
)

// structuredCommands log through slog, so their fatal errors do too.
var structuredCommands = map[string]bool{
	"serve": true,
}

func newRootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           defaults.ServerName,
		Short:         "Serve the security dashboard widget over MCP and HTTP.",
		Version:       ui.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setCommandExecutionContext(commandExecutionContext{
				CommandPath:       cmd.CommandPath(),
				UsesStructuredLog: structuredCommands[cmd.Name()],
			})
			ui.SetNoColor(noColor)
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored terminal output")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError(err)
	})

	root.AddCommand(newServeCmd(), newSnapshotCmd(), newReportCmd(), newVersionCmd())
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}
