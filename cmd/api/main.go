// Package main provides the main entry point for the Gourmet Guru server
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gourmetguru/api/internal/infrastructure/container"
	"go.uber.org/fx"
)

func main() {
	configPath := flag.String("config", os.Getenv("GOURMET_CONFIG"), "Configuration file path")
	flag.Parse()

	app := fx.New(
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	)
	if err := app.Err(); err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
