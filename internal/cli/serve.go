package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/safespace-dev/safespace/internal/config"
	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/router"
	"github.com/safespace-dev/safespace/internal/setup"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFolder, _ := cmd.Flags().GetString("config")
			cfg := config.MustLoad(configFolder)
			logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

			deps, err := setup.SetupDependencies(cfg)
			if err != nil {
				return fmt.Errorf("setup: %w", err)
			}
			defer deps.CancelFunc()

			server := &http.Server{
				Addr:         ":" + cfg.Public.Port,
				Handler:      router.New(deps),
				ReadTimeout:  cfg.Public.ReadTimeout,
				WriteTimeout: cfg.Public.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Log.Info("starting server", "addr", server.Addr, "api", cfg.Public.ApiBaseURL, "env", cfg.Public.Env)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
