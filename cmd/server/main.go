package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vancomm/shapesweeper/internal/app"
	"github.com/vancomm/shapesweeper/internal/config"
	"github.com/vancomm/shapesweeper/internal/mines"
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)
	mines.Log = logger.With(slog.String("pkg", "mines"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(logger)
	if err := a.Start(ctx); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
