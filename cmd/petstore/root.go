package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaso991/echo-schema-swagger/config"
	"github.com/vaso991/echo-schema-swagger/internal/petstore"
	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/openapi"
	"github.com/vaso991/echo-schema-swagger/server"
)

const configFlag = "config"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "petstore",
		Short:         "Pet inventory API with validated routes and an OpenAPI document",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP(configFlag, "c", "", "Config file (YAML); defaults to config.yaml and config.<env>.yaml")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSpecCmd())
	return cmd
}

// loadConfig reads the file named by --config, or the default files when
// the flag is empty. Environment variables apply in both cases.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Load()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return config.LoadFromBytes(raw)
}

// application is the wired server plus its document handler.
type application struct {
	server *server.Server
	docs   *openapi.Handler
}

func newApplication(cfg *config.Config, log logger.Logger) (*application, error) {
	srv, err := server.New(cfg, log)
	if err != nil {
		return nil, err
	}
	petstore.NewModule(petstore.NewStore(), log).RegisterRoutes(srv.Registrar(), srv.Validator())

	meta, err := openapi.Metadata(&cfg.OpenAPI)
	if err != nil {
		return nil, err
	}
	docs := openapi.NewHandler(srv.Routes(), openapi.HandlerConfig{
		Path:  cfg.OpenAPI.Path,
		Title: cfg.OpenAPI.Title,
		UI:    cfg.OpenAPI.UI,
		Meta:  meta,
	}, log)

	return &application{server: srv, docs: docs}, nil
}
