package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/logging"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, serve)
		},
	}
}

// serve runs the HTTP server until SIGINT/SIGTERM.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for active requests to complete (30s timeout)
//  3. Flush pending saves and close stores (withRuntime)
func serve(rt *Runtime) error {
	logger := logging.WithComponent(rt.Logger, logging.ComponentApp)

	handler := api.NewHandler(rt.Engine, rt.Formatter, rt.Logger)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: rt.Config.CORSOrigins,
		Logger:      rt.Logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", rt.Config.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", logging.FieldOperation, logging.OpStartup, "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server", logging.FieldOperation, logging.OpShutdown)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
