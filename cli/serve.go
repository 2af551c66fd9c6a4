package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todolist/config/setup"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(root *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task provider over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logger := setup.NewLogger(cfg)

			db, err := setup.InitDatabase(cfg.DBPath, logger)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}

			publisher, err := setup.InitPublisher(cfg, logger)
			if err != nil {
				db.Close()
				return WrapExitError(ExitCommandError, "failed to connect change publisher", err)
			}

			application := setup.InitApp(cfg, db, publisher, logger)

			fiberApp := setup.NewFiberApp(cfg, logger)
			setup.ApplyMiddleware(fiberApp, cfg, logger)
			setup.RegisterRoutes(fiberApp, application)

			logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)

			errCh := make(chan error, 1)
			go func() {
				errCh <- fiberApp.Listen(":" + cfg.Port)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				setup.Shutdown(publisher, db, logger)
				return WrapExitError(ExitFailure, "server failed", err)
			case <-quit:
			}

			logger.Info("shutting down server gracefully")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := fiberApp.ShutdownWithContext(ctx); err != nil {
				logger.Error("server forced to shutdown", "error", err)
			}

			setup.Shutdown(publisher, db, logger)
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT or 3000)")
	return cmd
}
