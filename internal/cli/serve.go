package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guiyumin/sharetext/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveAPIKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing parsing and text extraction as a JSON API.

Examples:
  sharetext serve              # port from config (default 8080)
  sharetext serve -p 9000

API Endpoints:
  GET    /api/health
  GET    /api/platforms
  GET    /api/guide
  POST   /api/parse             {"text": "<share text>"}
  POST   /api/parse/id          {"source": "douyin", "id": "<video id>"}
  POST   /api/douyin/download   {"text": "<share text>"}
  POST   /api/text              {"text": "<share text>", "api_key": "..."}
  POST   /api/jobs              queue a text extraction
  GET    /api/jobs[/:id]
  DELETE /api/jobs[/:id]`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if serveAPIKey != "" {
			cfg.Server.APIKey = serveAPIKey
		}
		return runServer(server.NewServer(newService()))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default: server.port)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "require this key in X-API-Key (default: server.api_key)")

	rootCmd.AddCommand(serveCmd)
}

func runServer(srv *server.Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		log.Println("[server] shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	return srv.Start()
}
