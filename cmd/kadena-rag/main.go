package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"kadena-rag/internal/app"
	"kadena-rag/internal/config"
	"kadena-rag/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	a, err := app.Setup(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	logger.Info("ingestion complete",
		"documents", a.Stats.DocumentsProcessed,
		"chunks", a.Stats.ChunksProcessed,
		"reused", a.Stats.Reused)

	srv := server.New(a.Engine, logger)
	logger.Info("listening", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, srv); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
