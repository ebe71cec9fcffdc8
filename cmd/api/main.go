package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/savings-wallet/internal/config"
	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/handler"
	"github.com/Dan9191/savings-wallet/internal/integrations/cbr"
	"github.com/Dan9191/savings-wallet/internal/middleware"
	"github.com/Dan9191/savings-wallet/internal/queue"
	"github.com/Dan9191/savings-wallet/internal/repository"
	"github.com/Dan9191/savings-wallet/internal/service"
	"github.com/Dan9191/savings-wallet/internal/utils"
	"github.com/Dan9191/savings-wallet/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	rates, err := cfg.Rates()
	var spread *finance.SpreadError
	switch {
	case errors.As(err, &spread) && !cfg.StrictRateSpread:
		logger.Warnf("Rate table accepted with inverted spread: %v", err)
	case err != nil:
		logger.Fatalf("Invalid rate table: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	repo := repository.NewRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	stores, err := newStores(cfg, repo)
	if err != nil {
		logger.Fatalf("Failed to initialize record store: %v", err)
	}
	defer stores.close()

	var revenue service.RevenueRecorder = repo
	if cfg.RevenueSink == config.RevenueSinkAMQP {
		revenue = queue.NewRevenuePublisher(cfg.AMQPURL, logger)
	}

	signer, err := utils.NewSigner(cfg.HMACSecret)
	if err != nil {
		logger.Fatalf("Failed to initialize record signer: %v", err)
	}

	// Initialize layers
	locker := service.NewLocker()
	loans := service.NewLoanService(stores.records, stores.ledger, repo, revenue, rates, locker, signer, logger)
	savings := service.NewSavingsService(stores.records, stores.ledger, repo, rates, locker, cfg.MinSavingsDeposit, logger)
	portfolio := service.NewPortfolioService(stores.records, stores.ledger, repo, rates)
	auth := service.NewAuthService(repo, logger, cfg.JWTSecret, cfg.TokenTTL)
	cbrClient := cbr.NewCBRClient(cfg, logger)
	h := handler.NewHandler(auth, loans, savings, portfolio, stores.ledger, rates, cbrClient, logger)

	// Schedule sweeps
	sweeper, err := startSweeper(cfg, stores.records, repo, email.NewSender(cfg, logger), loans, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, middleware.AuthMiddleware(cfg)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

type storage struct {
	records service.RecordStore
	ledger  interface {
		service.BalanceLedger
		handler.Balances
	}
	close func()
}

// newStores picks the record store and balance ledger. Users and tiers always
// live in Postgres.
func newStores(cfg *config.Config, repo *repository.Repository) (*storage, error) {
	if cfg.StoreDriver != config.StoreDriverRedis {
		return &storage{records: repo, ledger: repo, close: func() {}}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	rs := repository.NewRedisStore(client)
	return &storage{records: rs, ledger: rs, close: func() { client.Close() }}, nil
}

func startSweeper(cfg *config.Config, records service.RecordStore, users service.UserStore, notifier service.Notifier, loans *service.LoanService, logger *logrus.Logger) (*cron.Cron, error) {
	// Maturity notices cover the hour before each run; SWEEP_SCHEDULE should
	// fire at least hourly so none are skipped.
	sweeper := service.NewSweeper(records, users, notifier, loans, cfg.SweepAutoRecover, time.Hour, logger)

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := sweeper.Run(ctx); err != nil {
			logger.Errorf("Sweep failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_SCHEDULE %q: %w", cfg.SweepSchedule, err)
	}
	c.Start()
	return c, nil
}
