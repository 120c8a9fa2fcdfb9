package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/councilsite/internal/admincli"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, rm, err := server.OpenDB(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	app := admincli.NewApp(db, rm, cfg, logger, os.Stdin, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, admincli.ErrUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		db.Close()
		os.Exit(2)
	}
}
