package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/ui"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, ui.Version)
				return err
			}
			_, err := fmt.Fprintf(out, "%s %s (commit %s, built %s, %s %s/%s)\n",
				defaults.ServerName, ui.Version, ui.Commit, ui.BuildDate,
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
