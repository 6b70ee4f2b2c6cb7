// Package main runs the interactive KeyNest shell against the local vault
// file.
package main

import (
	"cmp"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/atinyakov/KeyNest/internal/client/shell"
	"github.com/atinyakov/KeyNest/internal/config"
	"github.com/atinyakov/KeyNest/internal/logger"
	"github.com/atinyakov/KeyNest/internal/repository"
	"github.com/atinyakov/KeyNest/internal/service"
	"github.com/atinyakov/KeyNest/internal/session"
	"github.com/awnumar/memguard"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

var showVer = flag.Bool("version", false, "show build version and date")

func main() {
	options := config.Parse()

	if *showVer {
		fmt.Printf("KeyNest\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	// Wipe key material on Ctrl-C as well as on normal exit. The terminal
	// mode is restored first in case a password prompt had echo off.
	restore := shell.TerminalRestorer(os.Stdin)
	memguard.CatchSignal(func(os.Signal) { restore() }, os.Interrupt, syscall.SIGTERM)
	defer memguard.Purge()

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}

	vault := service.NewVaultService(
		repository.NewVaultFile(),
		session.New(),
		service.WithLogger(log.Log),
	)

	fmt.Println("KeyNest vault:", options.VaultPath)
	if !vault.Exists(options.VaultPath) {
		fmt.Println("No vault yet. Type 'init' to create one.")
	}

	sh := shell.New(vault, options.VaultPath, os.Stdin, os.Stdout, shell.WithLogger(log.Log))
	if err := sh.Run(); err != nil {
		log.Log.Error("shell stopped", zap.Error(err))
	}
}
