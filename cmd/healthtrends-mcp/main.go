package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/healthtrends/internal/backend"
	"github.com/claude/healthtrends/internal/config"
	healthmcp "github.com/claude/healthtrends/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// healthtrends-mcp serves the chart tools over stdio for MCP clients. It
// reads the same config as the server; without a config file it uses the
// saved login and HEALTHTRENDS_SOURCE_BASE_URL.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (optional)")
	flag.Parse()

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Source.Mode == config.ModeRemote && cfg.Source.BaseURL == "" {
		log.Error("no API base URL: set source.base_url or HEALTHTRENDS_SOURCE_BASE_URL")
		os.Exit(1)
	}

	be, err := backend.Open(context.Background(), cfg, nil, log)
	if err != nil {
		log.Error("failed to open data source", "error", err)
		os.Exit(1)
	}
	defer be.Close()

	s := healthmcp.New(be.Pipeline, Version, log)
	if err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return healthmcp.WithUserID(ctx, be.UserID)
	})); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
