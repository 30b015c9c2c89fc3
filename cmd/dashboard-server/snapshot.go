package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dashdeck/dashboard-server/pkg/config"
	"github.com/dashdeck/dashboard-server/pkg/jsonutil"
	"github.com/dashdeck/dashboard-server/pkg/report"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
	"github.com/dashdeck/dashboard-server/pkg/ui"
)

// Output formats of the snapshot command.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

func newSnapshotCmd() *cobra.Command {
	var (
		path     string
		format   string
		validate bool
		pretty   bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print or validate the dashboard snapshot.",
		Long: `Print the snapshot the server would serve, in canonical JSON, YAML or
plain text. With --validate only the file is checked and nothing is printed
on stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("snapshot") {
				path = strings.TrimSpace(os.Getenv(config.EnvSnapshot))
			}

			if validate {
				if path == "" {
					return userError(fmt.Errorf("%w: --validate needs --snapshot or %s", config.ErrMissingRequired, config.EnvSnapshot))
				}
				store, _, err := loadStore(path)
				if err != nil {
					return classify(err)
				}
				ui.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("%s is valid (%d organizations, etag %s)",
					path, len(store.Get().Organizations), store.ETag()))
				return nil
			}

			store, _, err := loadStore(path)
			if err != nil {
				return classify(err)
			}
			return classify(writeSnapshot(cmd, store, format, pretty))
		},
	}
	cmd.Flags().StringVar(&path, "snapshot", "", "YAML or JSON snapshot file; built-in reference when empty (env "+config.EnvSnapshot+")")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json, yaml or text")
	cmd.Flags().BoolVar(&validate, "validate", false, "Only validate the snapshot file")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output instead of printing the canonical encoding")
	return cmd
}

func writeSnapshot(cmd *cobra.Command, store *snapshot.Store, format string, pretty bool) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case formatJSON:
		if pretty {
			enc := jsonutil.NewStreamEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Get())
		}
		_, err := fmt.Fprintf(out, "%s\n", store.JSON())
		return err
	case formatYAML:
		data, err := snapshot.EncodeYAML(store.Get())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case formatText:
		return report.WriteText(out, store.Get())
	default:
		return userError(fmt.Errorf("%w: unknown format %q (want json, yaml or text)", config.ErrInvalidConfig, format))
	}
}
