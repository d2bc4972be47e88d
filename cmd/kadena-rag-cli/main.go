package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"kadena-rag/internal/app"
	"kadena-rag/internal/config"
	"kadena-rag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	topK := flag.Int("k", 0, "Number of chunks to retrieve per answer (0 = default)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Keep structured logs off the terminal the TUI draws on.
	logFile, err := os.OpenFile("kadena-rag-cli.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, nil))

	a, err := app.Setup(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	m := tui.New(a.Engine, *topK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
