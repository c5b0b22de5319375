package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"investing/internal/config"
	"investing/internal/db"
	"investing/internal/handlers"
	"investing/internal/logging"
	"investing/internal/plans"
	"investing/internal/services"
	"investing/internal/store"
	"investing/internal/websocket"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger, err := logging.Init(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, plan overrides disabled", zap.Error(err))
		}
	}

	users := store.NewUserStore(database)
	investments := store.NewInvestmentStore(database)
	entries := store.NewEntryStore(database)
	gains := store.NewGainLogStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	admin := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	planResolver := plans.NewResolver(plans.NewRedisOverrides(redisClient))

	investmentSvc := services.NewInvestmentService(txRunner, users, investments, entries, planResolver, audit)
	withdrawalSvc := services.NewWithdrawalService(txRunner, users, investments, withdrawals, audit, hub, cfg.ROIFeePercent)
	engine := services.NewAccrualEngine(txRunner, investments, entries, gains, users, planResolver, hub, services.AccrualConfig{
		Interval:                 cfg.AccrualInterval,
		MaxStepPercent:           cfg.MaxStepPercent,
		SettleThresholdPercent:   cfg.SettleThresholdPercent,
		SettleNudgeCapPercent:    cfg.SettleNudgeCapPercent,
		CreditAccrualToAvailable: cfg.CreditAccrualToAvailable,
	}, logger)

	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()
	go engine.Run(engineCtx)

	handler := handlers.New(database, txRunner, cfg, users, investments, entries, gains, withdrawals, admin, audit, planResolver, investmentSvc, withdrawalSvc, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("investing API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	stopEngine()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}
