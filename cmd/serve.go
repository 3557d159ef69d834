package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/riverbend-studio/renamer/internal/analysis"
	"github.com/riverbend-studio/renamer/internal/captioner"
	"github.com/riverbend-studio/renamer/internal/captioner/gemini"
	"github.com/riverbend-studio/renamer/internal/captioner/ollama"
	"github.com/riverbend-studio/renamer/internal/captioner/openai"
	"github.com/riverbend-studio/renamer/internal/config"
	"github.com/riverbend-studio/renamer/internal/handlers"
	"github.com/riverbend-studio/renamer/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the image renaming API server",
		Long: `Starts the Renamer API on the specified port.

Clients upload image batches, trigger AI analysis to get suggested
filenames, submit their final choices, and download a zip of the
renamed copies.`,
		Example: `  # Start server on default port 8000
  renamer serve

  # Start server on custom port with a config file
  renamer serve --port 9000 --config renamer.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			c := newCaptioner(cfg.Provider)
			if c == nil {
				slog.Error("No captioning backend for provider, analysis will be unavailable", "provider", cfg.Provider)
			}

			sessionStore := storage.NewSessionStore()
			imageStore := storage.NewImageStore(cfg.UploadDir, cfg.OutputDir)
			analyzer := analysis.New(sessionStore, c, cfg.ResolveModel(), cfg.Temperature, cfg.Workers, cfg.ImageTimeout())
			handler := handlers.New(cfg, sessionStore, imageStore, analyzer)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/upload", handler.HandleUpload)
			mux.HandleFunc("/analyze/", handler.HandleAnalyze)
			mux.HandleFunc("/rename/", handler.HandleRename)
			mux.HandleFunc("/download/", handler.HandleDownload)
			mux.HandleFunc("/session/", handler.HandleSession)
			mux.HandleFunc("/health", handler.HandleHealth)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.CORS(mux),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Renamer API available", "addr", addr, "provider", cfg.Provider, "model", cfg.ResolveModel())
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

	cmd.Flags().StringVarP(&port, "port", "p", "8000", "Port to listen on")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	return cmd
}

func newCaptioner(provider string) captioner.Captioner {
	switch provider {
	case "gemini":
		return gemini.New()
	case "openai":
		return openai.New()
	case "ollama":
		return ollama.New()
	}
	return nil
}
