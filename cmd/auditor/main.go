package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-payment-intake.git/internal/audit"
	"github.com/ariefcatur/go-payment-intake.git/internal/config"
	kafkax "github.com/ariefcatur/go-payment-intake.git/internal/kafka"
	"github.com/ariefcatur/go-payment-intake.git/internal/payments"
	"github.com/ariefcatur/go-payment-intake.git/internal/postgres"
	"github.com/ariefcatur/go-payment-intake.git/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &audit.Service{
		Repo:  &audit.Repo{DB: db},
		Redis: rdb,
		Log:   logger,
	}

	// Consumer
	group := getenv("AUDIT_GROUP", "payment-audit")
	workers := mustAtoi(os.Getenv("AUDIT_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, payments.TopicPaymentRecorded, workers)

	go func() {
		logger.Info("audit consumer started",
			zap.String("group", group),
			zap.String("topic", payments.TopicPaymentRecorded),
			zap.Int("workers", workers),
		)
		if err := cons.Start(ctx, svc.HandlePaymentRecorded); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
