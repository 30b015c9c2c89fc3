package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dashdeck/dashboard-server/pkg/config"
	"github.com/dashdeck/dashboard-server/pkg/report"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
	"github.com/dashdeck/dashboard-server/pkg/ui"
)

const defaultReportPath = "dashboard.pdf"

func newReportCmd() *cobra.Command {
	var (
		path  string
		out   string
		title string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the dashboard snapshot as a PDF report.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("snapshot") {
				path = strings.TrimSpace(os.Getenv(config.EnvSnapshot))
			}
			store, _, err := loadStore(path)
			if err != nil {
				return classify(err)
			}
			opts := report.Options{Title: title}

			if out == "-" {
				return classify(report.WritePDF(cmd.OutOrStdout(), store.Get(), opts))
			}
			if err := writePDFFile(out, store.Get(), opts); err != nil {
				return classify(err)
			}
			ui.PrintSuccess(cmd.ErrOrStderr(), "report written to "+out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "snapshot", "", "YAML or JSON snapshot file; built-in reference when empty (env "+config.EnvSnapshot+")")
	cmd.Flags().StringVarP(&out, "out", "o", defaultReportPath, "Output file, - for stdout")
	cmd.Flags().StringVar(&title, "title", report.DefaultTitle, "Report title")
	return cmd
}

// writePDFFile renders to path and removes the partial file on failure.
func writePDFFile(path string, snap snapshot.Snapshot, opts report.Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()
	return report.WritePDF(f, snap, opts)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
