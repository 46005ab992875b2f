package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/guiyumin/sharetext/internal/core/sharetext"
	"github.com/guiyumin/sharetext/internal/core/version"
	"github.com/guiyumin/sharetext/internal/server"
)

func main() {
	port := flag.Int("port", 0, "HTTP listen port (default: server.port, 8080)")
	apiKey := flag.String("api-key", "", "require this key in X-API-Key")
	debug := flag.Bool("debug", false, "debug logging")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sharetext-server %s\n", version.Version)
		return
	}

	cfg := config.LoadOrDefault()
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *apiKey != "" {
		cfg.Server.APIKey = *apiKey
	}

	level := slog.LevelInfo
	if *debug || cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv := server.NewServer(sharetext.New(cfg, sharetext.WithLogger(logger)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("[server] shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("[server] %v", err)
	}
}
