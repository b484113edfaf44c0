package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaso991/echo-schema-swagger/logger"
	"github.com/vaso991/echo-schema-swagger/observability"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

			tracing, err := observability.NewProvider(cfg, nil)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, log)
			if err != nil {
				return err
			}
			if cfg.OpenAPI.Enabled {
				app.docs.Register(app.server.Echo())
				log.Info().
					Str("json", app.docs.JSONPath()).
					Str("yaml", app.docs.YAMLPath()).
					Str("ui", cfg.OpenAPI.UI).
					Msg("OpenAPI document enabled")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Shutdown)
			defer cancel()

			if err := app.server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Server shutdown error")
				return err
			}
			if err := tracing.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Trace exporter shutdown error")
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
}
