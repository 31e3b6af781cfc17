package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/psantana5/callwrap/pkg/metrics"
	"github.com/psantana5/callwrap/pkg/tracing"
	"github.com/psantana5/callwrap/pkg/upstream"
)

var serveListen string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local stub upstream server",
	Long: `Run a local stub upstream for exercising wrapped calls:
/status/{code} answers with that status, /delay/{ms} answers after a pause,
/echo reflects the request, /metrics serves Prometheus metrics.

Example:
  callwrap serve --listen :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := NewCLILogger()

	provider, err := NewTracingProvider(logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		provider.Shutdown(shutdownCtx)
	}()

	router := mux.NewRouter()
	upstream.NewHandler(logger).RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         serveListen,
		Handler:      tracing.HTTPMiddleware(provider)(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("stub upstream listening", map[string]interface{}{"addr": serveListen})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down stub upstream")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
