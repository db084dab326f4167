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

	"dispatch/cmd"

	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config, err := cmd.LoadConfig(".env")
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := cmd.NewLogger(config, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, config, logger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer app.Close()

	jobManager, err := app.CreateJobManager()
	if err != nil {
		log.Fatalf("failed to build jobs: %v", err)
	}
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	go func() {
		if runErr := app.RunBackground(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("sync event bus stopped", "error", runErr)
			stop()
		}
	}()

	if err = startWebServer(ctx, app, config.HTTPPort); err != nil {
		logger.Error("web server stopped", "error", err)
	}
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string) error {
	e, err := app.CreateHTTPServer(ctx)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
