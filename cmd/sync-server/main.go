// sync-server runs the sync pipeline behind a small local HTTP server.
// Useful for development and for self-hosted deployments that don't run on
// Cloud Functions.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/okkyok/Fibit2Obsidian/pkg/bootstrap"
	"github.com/okkyok/Fibit2Obsidian/pkg/framework"
	fitsync "github.com/okkyok/Fibit2Obsidian/pkg/sync"
)

func main() {
	// Local development reads credentials from a .env file when present.
	_ = godotenv.Load()

	svc, err := bootstrap.NewService(context.Background())
	if err != nil {
		slog.Error("Service init failed", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/sync", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		handler := framework.WrapInvocation("sync-server", svc, func(ctx context.Context, fwCtx *framework.FrameworkContext) (interface{}, error) {
			pipeline := fitsync.NewPipeline(fwCtx.Service)
			pipeline.Logger = fwCtx.Logger
			return pipeline.Run(ctx)
		})

		outputs, err := handler(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		json.NewEncoder(w).Encode(outputs)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("sync-server listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
