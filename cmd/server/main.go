package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meur/vgcatalog/internal/api"
	"github.com/meur/vgcatalog/internal/config"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/query"
	"github.com/meur/vgcatalog/internal/service"
	"github.com/meur/vgcatalog/internal/storage"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	config.RegisterFlags(fs)
	port := fs.Int("port", 0, "Server port (overrides VGC_SERVER_PORT)")
	static := fs.String("static", "", "Directory of a built frontend to serve under /")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadFlags(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if fs.Changed("port") {
		cfg.Server.Port = *port
	}
	if fs.Changed("static") {
		cfg.Server.StaticDir = *static
	}

	logger.Init(cfg.Log.Logger())
	log := logger.GetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.Open(logger.ContextWithLogger(ctx, log), cfg.Database.Storage())
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	catalog := service.NewCatalog(store, query.NewBuilder(query.SalesColumns, store.Placeholder()), cfg.Listing.Limits())
	handler := api.New(catalog, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}()

	log.Info("vgcatalog API starting", "addr", srv.Addr, "driver", cfg.Database.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
