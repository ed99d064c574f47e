package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/callplanner/internal/callplan"
	"github.com/ykvlv/callplanner/internal/config"
	"github.com/ykvlv/callplanner/internal/domain"
	"github.com/ykvlv/callplanner/internal/httpapi"
	"github.com/ykvlv/callplanner/internal/metrics"
	"github.com/ykvlv/callplanner/internal/store"
	"github.com/ykvlv/callplanner/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI // nil when no token is configured
	metrics *metrics.Metrics
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if _, err := domain.ValidateTZ(cfg.DefaultTZ); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: metrics.New()}
	if cfg.TelegramEnabled() {
		bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return nil, err
		}
		bot.Debug = false
		a.bot = bot
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting callplanner",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("db", a.cfg.DBPath),
		zap.Bool("telegram", a.bot != nil),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready")

	svc := callplan.NewService(repo, a.metrics, a.log.Named("callplan"))

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           httpapi.New(svc, a.metrics, a.log.Named("http"), a.cfg.DefaultTZ),
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	// A nil channel never delivers, so the loop below only serves HTTP when
	// Telegram is off.
	var updCh tgbotapi.UpdatesChannel
	var router *telegram.Router
	if a.bot != nil {
		router = telegram.NewRouter(a.bot, a.log.Named("telegram"), svc, a.metrics, a.cfg.DefaultTZ)
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh = a.bot.GetUpdatesChan(u)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown(srv)
			return nil

		case err := <-srvErr:
			a.log.Error("http server error", zap.Error(err))
			a.shutdown(srv)
			return err

		case upd := <-updCh:
			router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown(srv *http.Server) {
	if a.bot != nil {
		a.bot.StopReceivingUpdates()
	}

	shCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
}
