package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/openapi"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newSpecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("unsupported format %q (use %s or %s)", format, formatJSON, formatYAML)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := newApplication(cfg, logger.Nop())
			if err != nil {
				return err
			}

			doc := app.docs.Document()
			if format == formatYAML {
				return openapi.WriteYAML(cmd.OutOrStdout(), doc)
			}
			return openapi.WriteJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringP("format", "f", formatJSON, "Output format: json or yaml")
	return cmd
}
