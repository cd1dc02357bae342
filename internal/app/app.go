package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marque-app/marque/internal/blob"
	"github.com/marque-app/marque/internal/config"
	"github.com/marque-app/marque/internal/fetch"
	"github.com/marque-app/marque/internal/httpserver"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/redis"
	"github.com/marque-app/marque/internal/store/postgres"
	"github.com/marque-app/marque/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *sql.DB
	redisClient *goredis.Client
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open Postgres early - fail fast if unavailable
	db, err := postgres.Open(startupCtx, cfg.DatabaseDSN)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Postgres: %v", err)
		os.Exit(1)
	}
	if err := postgres.RunMigrations(startupCtx, db); err != nil {
		loggerClient.Errorf("Failed to run migrations: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Postgres initialized successfully")

	// Redis backs the presigned URL cache
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Attachment blob storage and URL resolution
	blobStore, err := blob.NewS3Store(startupCtx, blob.Options{
		Endpoint:   cfg.S3Endpoint,
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		PresignTTL: cfg.PresignTTL,
	})
	if err != nil {
		loggerClient.Errorf("Failed to initialize blob storage: %v", err)
		os.Exit(1)
	}
	resolver := blob.NewURLResolver(blobStore, blob.NewRedisURLCache(redisClient), cfg.PresignTTL, loggerClient)

	dataStore := postgres.NewStore(db)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		JWTSecret:       []byte(cfg.JWTSecret),
		Bookmarks:       dataStore,
		Tags:            dataStore,
		Blobs:           blobStore,
		Resolver:        resolver,
		Fetcher:         fetch.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes),
		DB:              db,
		RedisClient:     redisClient,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		db:          db,
		redisClient: redisClient,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting marque v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("marque %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnf("failed to close postgres: %v", err)
		} else {
			a.logger.Info("✅ Postgres closed cleanly")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ marque stopped cleanly")
	return nil
}
