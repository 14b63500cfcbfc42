package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance/src/api"
	"finance/src/api/handlers"
	"finance/src/clients/quotes"
	"finance/src/config"
	"finance/src/database"
	"finance/src/monitoring"
	"finance/src/repositories"
	"finance/src/scheduler"
	"finance/src/services"
	"finance/src/sessions"
	"finance/src/utils"
	aws_handler "finance/src/utils/aws"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		logrus.WithError(err).Fatal("Error while loading config")
	}

	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		logrus.WithError(err).Fatal("Error while creating logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errC, err := run(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Couldn't run")
	}

	if err := <-errC; err != nil {
		logger.WithError(err).Fatal("Error while running")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (<-chan error, error) {
	if cfg.ExternalClients.Quotes.APIKey == "" && cfg.ExternalClients.Quotes.APIKeySecretID != "" {
		awsHandler, err := aws_handler.NewAWSHandler(cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		if err := cfg.ResolveSecrets(ctx, awsHandler.SecretManager); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sqlDB := database.OpenSQL(pool)
	if cfg.Service.AutoMigrate {
		if err := database.Migrate(sqlDB); err != nil {
			return nil, err
		}
	}
	gormDB, err := database.NewGormDB(sqlDB)
	if err != nil {
		return nil, err
	}

	jobs := scheduler.New(logger)
	var store sessions.Store
	var closeStore func() error
	switch cfg.Service.SessionBackend {
	case config.RedisSessions:
		client, err := sessions.NewRedisClient(ctx, cfg.Databases.Redis)
		if err != nil {
			return nil, err
		}
		redisStore := sessions.NewRedisStore(client, cfg.Service.SessionTTL)
		store, closeStore = redisStore, redisStore.Close
	default:
		memoryStore := sessions.NewMemoryStore(cfg.Service.SessionTTL)
		err := jobs.Add(cfg.Service.SessionSweep, "session-sweep", func(ctx context.Context) {
			if evicted := memoryStore.Sweep(ctx); evicted > 0 {
				utils.LoggerFromContext(ctx).WithField("evicted", evicted).Info("expired sessions removed")
			}
		})
		if err != nil {
			return nil, err
		}
		store, closeStore = memoryStore, func() error { return nil }
	}
	jobs.Start()

	metrics := monitoring.NewMetrics("finance")
	quoteService := services.NewQuoteService(quotes.NewClient(cfg), metrics)
	userRepo := repositories.NewUserRepository(gormDB)
	holdingRepo := repositories.NewHoldingRepository(pool)
	balanceRepo := repositories.NewBalanceRepository(pool)
	txManager := repositories.NewTxManager(pool)
	historyRepo := repositories.NewHistoryRepository(pool)

	handler, err := handlers.NewHandler(handlers.Services{
		Accounts: services.NewAccountService(userRepo, decimal.NewFromFloat(cfg.Service.StartingCash), metrics),
		Trading: services.NewTradingService(
			txManager,
			balanceRepo,
			holdingRepo,
			repositories.NewSaleRepository(pool),
			historyRepo,
			quoteService,
			metrics,
		),
		Portfolio: services.NewPortfolioService(txManager, balanceRepo, holdingRepo, quoteService),
		History:   services.NewHistoryService(historyRepo),
		Quotes:    quoteService,
	}, store, handlers.CookieConfig{TTL: cfg.Service.SessionTTL, Secure: cfg.Service.SecureCookies})
	if err != nil {
		return nil, err
	}

	httpServer := api.NewHTTPServer(api.NewServer(handler, logger, metrics), cfg.Service.Port)

	errC := make(chan error, 1)

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer func() {
			<-jobs.Stop().Done()
			_ = closeStore()
			_ = sqlDB.Close()
			pool.Close()
			cancel()
			close(errC)
		}()

		httpServer.SetKeepAlivesEnabled(false)
		if err := httpServer.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}
	}()

	go func() {
		logger.WithField("port", cfg.Service.Port).Info("Starting server")

		// ListenAndServe always returns a non-nil error. After Shutdown or Close it is ErrServerClosed.
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	return errC, nil
}
