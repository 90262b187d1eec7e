package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/fintrack/internal/adapter/http"
	"github.com/iho/fintrack/internal/adapter/http/handler"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/fintrack/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fintrack/internal/adapter/repository/redis"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/config"
	"github.com/iho/fintrack/internal/infrastructure/logger"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/infrastructure/postgres"
	"github.com/iho/fintrack/internal/infrastructure/redis"
	"github.com/iho/fintrack/internal/lock"
	"github.com/iho/fintrack/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	zerolog.DefaultContextLogger = &log.Logger

	ctx := context.Background()

	// Register Prometheus metrics
	m := metrics.New()

	// Wire the store
	var (
		pool         *pgxpool.Pool
		txManager    usecase.TransactionManager
		accountRepo  usecase.AccountRepository
		categoryRepo usecase.CategoryRepository
		txnRepo      usecase.TransactionRepository
		transferRepo usecase.TransferRepository
	)

	if cfg.UseMemoryStore() {
		log.Info().Msg("using in-memory store")

		store := memory.New()
		txManager = memory.NewTxManager(store)
		accountRepo = memory.NewAccountRepository(store)
		categoryRepo = memory.NewCategoryRepository(store)
		txnRepo = memory.NewTransactionRepository(store)
		transferRepo = memory.NewTransferRepository(store)
	} else {
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		txManager = postgresRepo.NewTxManager(pool)
		accountRepo = postgresRepo.NewAccountRepository(pool)
		categoryRepo = postgresRepo.NewCategoryRepository(pool)
		txnRepo = postgresRepo.NewTransactionRepository(pool)
		transferRepo = postgresRepo.NewTransferRepository(pool)
	}

	// Redis is optional; without it balances are derived on every read.
	var (
		redisClient      *redislib.Client
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)

	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	locker := lock.NewManager(cfg.LockTimeout)
	idGen := postgresRepo.NewULIDGenerator()
	validator := domain.Validator{RejectZeroAmount: cfg.RejectZeroTotal}

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, txnRepo, txManager, locker, idGen, m)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, txnRepo, txManager, locker, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, categoryRepo, txnRepo, transferRepo, locker, idGen, cache, validator, m)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, txnRepo, transferRepo, locker, idGen, cache, validator, m)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, categoryRepo, txnRepo, transferRepo, cache, m)

	if cfg.SeedDefaults {
		seedDefaults(ctx, accountUC, categoryUC)
	}

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	categoryHandler := handler.NewCategoryHandler(categoryUC)
	transactionHandler := handler.NewTransactionHandler(ledgerUC)
	transferHandler := handler.NewTransferHandler(transferUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        accountHandler,
		CategoryHandler:       categoryHandler,
		TransactionHandler:    transactionHandler,
		TransferHandler:       transferHandler,
		ReconciliationHandler: reconciliationHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		RateLimiter:           rateLimiter,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// seedDefaults creates the starter account and categories on first
// run. Re-running is harmless: existing names are left alone.
func seedDefaults(ctx context.Context, accountUC *usecase.AccountUseCase, categoryUC *usecase.CategoryUseCase) {
	_, err := accountUC.CreateAccount(ctx, usecase.CreateAccountInput{
		Name:     "Main Checking",
		Kind:     string(domain.AccountChecking),
		Currency: "USD",
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateName) {
		log.Warn().Err(err).Msg("failed to seed default account")
	}

	for _, name := range []string{"Income", "Groceries", "Rent", "Utilities", "Entertainment"} {
		_, err := categoryUC.CreateCategory(ctx, usecase.CreateCategoryInput{Name: name})
		if err != nil && !errors.Is(err, domain.ErrDuplicateName) {
			log.Warn().Err(err).Str("category", name).Msg("failed to seed default category")
		}
	}
}
