package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/claude/healthtrends/internal/backend"
	"github.com/claude/healthtrends/internal/config"
	healthmcp "github.com/claude/healthtrends/internal/mcp"
	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/server"
	"github.com/claude/healthtrends/internal/storage"
	"github.com/claude/healthtrends/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (local mode)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("HealthTrends starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *migrateOnly {
		if cfg.Source.Mode != config.ModeLocal {
			log.Error("migrate-only requires source.mode local")
			os.Exit(1)
		}
		if err := storage.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()

	var (
		reg *prometheus.Registry
		tel *telemetry.Manager
		obs metrics.Observer
	)
	if cfg.Telemetry.Enabled {
		reg = telemetry.SetupPrometheus()
		tel = telemetry.NewManager(cfg.Telemetry.Namespace, "server", reg)
		obs = tel
	}

	be, err := backend.Open(ctx, cfg, obs, log)
	if err != nil {
		log.Error("failed to open data source", "mode", cfg.Source.Mode, "error", err)
		os.Exit(1)
	}
	defer be.Close()

	if be.DB != nil && reg != nil {
		reg.MustRegister(pgxpoolprometheus.NewCollector(be.DB.Pool, map[string]string{"db_name": cfg.Database.Name}))
	}

	srv := server.New(be.Pipeline, be.DB, tel, cfg.Auth.APIKey, log)
	srv.SetDevUser(be.UserID, server.UserInfo{Login: cfg.Source.LocalUser, DisplayName: cfg.Source.LocalUser})
	if reg != nil {
		srv.SetMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	mcpSrv := healthmcp.New(be.Pipeline, Version, log)
	srv.SetMCPHandler(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return healthmcp.WithUserID(ctx, server.UserID(r))
		}),
	))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "source", cfg.Source.Mode)
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
