package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/responsa/internal/adapters/driving/sse"
	"github.com/custodia-labs/responsa/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ask pipeline over HTTP",
	Long: `Starts an HTTP server exposing the ask pipeline.

Endpoints:
  POST /ask      - ask a question; the response is a server-sent-events
                   stream of status, token, citations, suggestion and
                   terminal events
  GET  /healthz  - liveness check

While serving, edits to the prompt templates under the prompts
directory are picked up without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	// Hot-reload prompt edits for the lifetime of the server.
	if err := promptStore.Watch(); err != nil {
		logger.Warn("Prompt hot reload disabled: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ask", sse.NewHandler(askService))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when the command context is cancelled.
	go func() {
		<-cmd.Context().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	cmd.Printf("Listening on %s\n", serveAddr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
