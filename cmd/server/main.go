package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitsync/internal/auth"
	"github.com/mmynk/splitsync/internal/ledger"
	"github.com/mmynk/splitsync/internal/server"
	"github.com/mmynk/splitsync/internal/service"
	"github.com/mmynk/splitsync/internal/storage/sqlite"
	"github.com/mmynk/splitsync/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/splitsync.db")
	addr := getEnv("ADDR", ":8080")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	led := ledger.New(store)
	sync := service.NewSyncService(store, led)
	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)

	srv := server.New(sync, led)

	// h2c lets clients multiplex push and pull over one connection without
	// TLS termination in front.
	handler := h2c.NewHandler(srv.Router(jwtManager), &http2.Server{})

	slog.Info("Sync server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
