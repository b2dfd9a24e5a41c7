package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyssey/codyssey/internal/cache"
	"github.com/codyssey/codyssey/internal/fetcher/codeforces"
	"github.com/codyssey/codyssey/internal/fetcher/leetcode"
	"github.com/codyssey/codyssey/internal/rest"
	"github.com/codyssey/codyssey/internal/service"
	"github.com/codyssey/codyssey/internal/setup"
	"go.uber.org/zap"
)

// RESTLogDir specifies where REST server log files are stored.
const RESTLogDir = "logs/rest_logs"

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 30 * time.Second
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Initialize application with required dependencies
	app, err := setup.InitializeApp(context.Background(), RESTLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup()

	// Wire the fetch/merge/cache pipeline
	viewCache := cache.NewViewCache(app.CacheClient, &app.Config.Cache, app.Logger)
	leetcodeFetcher := leetcode.NewFetcher(&app.Config.LeetCode, app.Logger)
	codeforcesFetcher := codeforces.NewFetcher(&app.Config.Codeforces, app.Logger)

	views := service.NewViewService(
		viewCache, app.DB.Users(), leetcodeFetcher, codeforcesFetcher, nil, app.Logger,
	)

	// Create server
	handler := rest.NewServer(app.DB, views, codeforcesFetcher, app.Config, app.Logger)

	// Get server address from config
	addr := fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("REST server started on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	app.Logger.Info("Shutting down REST server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
}
