package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chathub/chathub/internal/api"
	"github.com/go-chathub/chathub/internal/config"
	"github.com/go-chathub/chathub/internal/metrics"
	"github.com/go-chathub/chathub/internal/server"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func main() {
	logger := log.New(os.Stderr, "[chathub] ", log.LstdFlags)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("config:", err)
	}

	var allowedOrigins stringSliceFlag
	flag.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	flag.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "directory for uploaded attachments")
	flag.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "maximum attachment size in bytes")
	flag.StringVar(&cfg.DefaultRoom, "default-room", cfg.DefaultRoom, "room every connection joins first")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	prom := metrics.NewPromProvider()

	chatServer := server.NewChatServer(logger, prom, cfg.DefaultRoom)

	mux := http.NewServeMux()
	app := api.NewChatHubApp(mux, logger, chatServer, prom, cfg)

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := app.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
