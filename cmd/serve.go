package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pictophone/pictophone/internal/config"
	"github.com/pictophone/pictophone/internal/credentials"
	"github.com/pictophone/pictophone/internal/handlers"
	"github.com/pictophone/pictophone/internal/openai"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var describerName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web interface",
		Long: `Starts the Pictophone web interface on the specified port.

The page lets you start runs, watch each round's image and description appear,
stop a run early, and download the gallery as a PDF. API calls go straight
from this process to the provider with your key; nothing is stored server-side.`,
		Example: `  # Start server on default port 8888
  pictophone serve

  # Start server on custom port
  pictophone serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			store, err := credentials.NewStore(cfg.StorageKey)
			if err != nil {
				return err
			}

			client := openai.New(cfg)
			describer, err := describerFor(describerName, client, cfg)
			if err != nil {
				return err
			}

			handler := handlers.New(cfg, store, client, describer)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/runs", handler.HandleRuns)
			mux.HandleFunc("/api/runs/", handler.HandleRunDetail)
			mux.HandleFunc("/api/credential", handler.HandleCredential)
			mux.HandleFunc("/", handler.HandleIndex)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Pictophone interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&describerName, "describer", "openai", "Vision provider for the describe step (openai or gemini)")

	return cmd
}
