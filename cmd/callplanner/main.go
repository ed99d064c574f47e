// Command callplanner serves the lead call planner over HTTP and, when a bot
// token is configured, over Telegram.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/app"
	"github.com/ykvlv/callplanner/internal/config"
	"github.com/ykvlv/callplanner/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("app init failed", zap.Error(err), zap.String("defaultTZ", cfg.DefaultTZ))
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatal("app run failed", zap.Error(err))
	}
}
