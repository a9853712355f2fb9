package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dunamismax/imagetools/internal/app"
	"github.com/dunamismax/imagetools/internal/config"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("build logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Serve(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.WithError(err).Fatal("api server failed")
	}
}
