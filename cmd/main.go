package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/detailpage-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case err = <-errCh:
		if err != nil {
			a.Log.Error("HTTP server failed", "error", err)
		}
	case <-ctx.Done():
		a.Log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
	defer cancel()
	if cerr := a.Close(shutdownCtx); cerr != nil {
		fmt.Fprintf(os.Stderr, "Shutdown: %v\n", cerr)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}
