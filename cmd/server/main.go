package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rootfind/internal/config"
	"rootfind/internal/logging"
	"rootfind/internal/server"
	"rootfind/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	var history server.History
	if cfg.History.Path != "" {
		st, err := store.Open(cfg.History.Path)
		if err != nil {
			log.Fatal(err)
		}
		defer st.Close()
		history = st
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, logger, history).Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
