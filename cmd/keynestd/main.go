// Package main starts the KeyNest daemon: the vault engine behind a
// token-guarded JSON API on a loopback address.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/KeyNest/internal/config"
	"github.com/atinyakov/KeyNest/internal/logger"
	"github.com/atinyakov/KeyNest/internal/repository"
	"github.com/atinyakov/KeyNest/internal/server"
	"github.com/atinyakov/KeyNest/internal/server/handler/http"
	"github.com/atinyakov/KeyNest/internal/service"
	"github.com/atinyakov/KeyNest/internal/session"
	"github.com/awnumar/memguard"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	defer memguard.Purge()

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := checkLoopback(options.Addr); err != nil {
		zapLogger.Fatal("refusing to listen", zap.Error(err))
	}
	if options.Token == "" {
		zapLogger.Warn("no API token configured; any local process can reach the vault")
	}

	vault := service.NewVaultService(
		repository.NewVaultFile(),
		session.New(),
		service.WithLogger(zapLogger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	activity := server.NewActivity()
	idle := time.Duration(options.AutoLock)
	server.StartAutoLocker(ctx, vault, activity, min(idle, 30*time.Second), idle, zapLogger)

	vaultHandler := &http.VaultHandler{Vault: vault, Path: options.VaultPath}
	router := http.NewRouter(vaultHandler, options.Token, activity.Middleware, zapLogger)

	srv := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zapLogger.Info("starting API server",
		zap.String("addr", options.Addr),
		zap.String("vault", options.VaultPath),
		zap.Duration("autolock", idle),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start API server", zap.Error(err))
	}
	if err := vault.Lock(); err != nil {
		zapLogger.Warn("lock on shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// checkLoopback rejects listen addresses that are not on a loopback interface.
func checkLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parse address %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("address %q is not loopback", addr)
	}
	return nil
}
