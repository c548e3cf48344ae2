package main

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

	"github.com/spetersoncode/chartflow/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	var passthrough bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflows over HTTP",
		Long: `Starts the HTTP API:

  GET  /healthz
  GET  /v1/workflows
  GET  /v1/workflows/{name}
  GET  /v1/workflows/{name}/graph
  POST /v1/workflows/{name}/runs   {"query": "..."}  (add ?stream=true for SSE)
  GET  /v1/runs
  GET  /v1/runs/{id}
  GET  /v1/runs/{id}/chart
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd, g, appOptions{passthrough: passthrough})
			if err != nil {
				return err
			}
			defer a.Close()
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTPAddr = addr
			}

			srv := &http.Server{
				Addr: a.cfg.HTTPAddr,
				Handler: server.New(a.svc,
					server.WithMetrics(a.metrics.Handler()),
					server.WithLogger(a.logger),
				).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("server starting", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server: %w", err)
			case <-ctx.Done():
				a.logger.Info("shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("graceful shutdown failed", "error", err)
					return srv.Close()
				}
				a.logger.Info("server stopped")
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides CHARTFLOW_HTTP_ADDR)")
	cmd.Flags().BoolVar(&passthrough, "passthrough", false, "Chart the raw search results without reformatting them")
	return cmd
}
