package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/handlers"
	"github.com/moyashi-books/moyashi/internal/parser"
	"github.com/moyashi-books/moyashi/internal/photo"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lookup API server",
		Long: `Starts a JSON API for running lookups over HTTP.

Completed lookups are kept in memory until the server stops.

  POST   /api/lookups       run a lookup
  GET    /api/lookups       list lookups
  GET    /api/lookups/{id}  show one lookup
  DELETE /api/lookups/{id}  forget one lookup

Requests may pick the "gemini" or "openai" parser when GEMINI_API_KEY or
OPENAI_API_KEY is set, and "ollama" when an Ollama server is reachable.`,
		Example: `  # Start server on default port 8888
  moyashi serve

  # Start server on custom port
  moyashi serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.Info("Loaded configuration", "config", cfg)

			// Shared so the rate limit holds across concurrent requests.
			client := photo.NewUpstreamClient(cfg)
			handler := handlers.New(func() (*photo.Pipeline, error) {
				return photo.New(cfg, photo.WithUpstreamClient(client))
			})

			for _, name := range []string{"gemini", "ollama", "openai"} {
				prs, closeParser, err := parser.Open(cmd.Context(), name, cfg)
				if err != nil {
					slog.Debug("Parser unavailable", "parser", name, "err", err)
					continue
				}
				defer func() { _ = closeParser() }()
				handler.RegisterParser(name, prs)
			}

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/lookups", handler.HandleLookups)
			mux.HandleFunc("/api/lookups/", handler.HandleLookupDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Moyashi API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
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

	return cmd
}
