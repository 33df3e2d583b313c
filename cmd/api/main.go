package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/safar/go-storefront/internal/cache"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/geo"
	"github.com/safar/go-storefront/internal/httpapi"
	"github.com/safar/go-storefront/internal/logging"
	"github.com/safar/go-storefront/internal/notify"
	"github.com/safar/go-storefront/internal/order"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/pricing"
	"github.com/safar/go-storefront/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	logger.Info("connected to database")

	st := store.New(db)

	ranges, err := geo.NewRangeChecker(cfg.Delivery)
	if err != nil {
		log.Fatalf("Create delivery range checker: %v", err)
	}

	var notifier order.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.Notify, "")
		if err != nil {
			log.Fatalf("Create telegram notifier: %v", err)
		}
		notifier = tg
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, order confirmations will only be logged")
	}

	var idempotency cache.Cache
	if cfg.Cache.RedisAddr != "" {
		idempotency, err = cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, "storefront")
		if err != nil {
			log.Fatalf("Connect to redis: %v", err)
		}
		defer idempotency.Close()
	}

	manager := order.NewManager(cfg, order.Deps{
		Store:    st,
		Pricer:   pricing.NewCalculator(st, cfg.Pricing),
		Payments: payment.NewStripeGateway(cfg.Payment, nil),
		Delivery: ranges,
		Notifier: notifier,
		Logger:   logger,
	})

	if cfg.Expiry.SweepInterval > 0 {
		go manager.RunSweeper(ctx, cfg.Expiry.SweepInterval)
	}

	handler := httpapi.NewHandler(manager, st, st, st, idempotency, cfg.Cache.IdempotencyTTL, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpapi.NewRouter(handler, cfg.Auth.JWTSecret),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}
