package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/analytics"
	"github.com/fintrackhq/fintrack/internal/auth"
	"github.com/fintrackhq/fintrack/internal/config"
	"github.com/fintrackhq/fintrack/internal/events/kafka"
	"github.com/fintrackhq/fintrack/internal/interfaces"
	"github.com/fintrackhq/fintrack/internal/ledger"
	"github.com/fintrackhq/fintrack/internal/models/events"
	"github.com/fintrackhq/fintrack/internal/server"
	"github.com/fintrackhq/fintrack/internal/storage/memory"
	"github.com/fintrackhq/fintrack/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// The API speaks plain JSON numbers for money, like the clients expect.
	decimal.MarshalJSONWithoutQuotes = true

	var ledgerStore interfaces.LedgerStore
	var userStore interfaces.UserStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal("ping database", zap.Error(err))
		}
		store := postgres.NewStore(db)
		ledgerStore, userStore = store, store
		log.Info("using postgres store")
	} else {
		store := memory.NewStore()
		ledgerStore, userStore = store, store
		log.Warn("DATABASE_URL not set, using in-memory store; data will not survive restarts")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, events.Topic)
		defer kp.Close()
		publisher = kp
		log.Info("kafka event publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		defer rdb.Close()
		log.Info("redis rate limiting enabled", zap.String("addr", cfg.RedisAddr))
	}

	ledgerSvc := ledger.New(ledgerStore, publisher, log)
	analyticsEngine := analytics.New(ledgerStore)
	authSvc := auth.New(userStore, cfg.JWTSecret, log)

	handlers := server.NewHandlers(ledgerSvc, analyticsEngine, authSvc, log)
	router := server.NewRouter(handlers, authSvc, rdb, cfg.RateLimit, log)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
