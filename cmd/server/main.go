// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/palace-game/palace/internal/config"
	"github.com/palace-game/palace/internal/lobby"
	"github.com/palace-game/palace/internal/server"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load configuration")
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Fatal("parse log level")
	}
	logger.SetLevel(level)

	store := lobby.NewStore(lobby.Timing{
		TurnTimer:   cfg.TurnTimer,
		Leeway:      cfg.Leeway,
		AIMoveDelay: cfg.AIMoveDelay,
	}, logger)
	go store.Prune(context.Background(), cfg.PruneInterval, cfg.PruneAfter)

	srv := server.New(store, cfg, logger)

	logger.WithField("addr", cfg.Addr).Info("palace server listening")
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
