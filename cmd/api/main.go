package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/ashasetu/ashasetu-backend/api"
	"github.com/ashasetu/ashasetu-backend/api/routes"
	"github.com/ashasetu/ashasetu-backend/internal/accounts"
	"github.com/ashasetu/ashasetu-backend/internal/auth"
	pkgauth "github.com/ashasetu/ashasetu-backend/pkg/auth"
	"github.com/ashasetu/ashasetu-backend/pkg/config"
	"github.com/ashasetu/ashasetu-backend/pkg/db"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
	"github.com/ashasetu/ashasetu-backend/pkg/metrics"
	"github.com/ashasetu/ashasetu-backend/pkg/migrate"
	pkgredis "github.com/ashasetu/ashasetu-backend/pkg/redis"
	"github.com/ashasetu/ashasetu-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err = migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	params := routes.Params{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
	}

	if cfg.Redis.Enabled() {
		redisClient, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		params.Redis = redisClient
		params.Idempotency = redisClient
	} else {
		logg.Info(ctx, "redis not configured; idempotent replay disabled")
	}

	var outcomes *metrics.AuthMetrics
	if cfg.Metrics.Enabled {
		registry := metrics.NewRegistry()
		params.Registry = registry
		outcomes = metrics.NewAuthMetrics(registry)
	}

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		return err
	}
	issuer, err := pkgauth.NewIssuer(cfg.JWT, nil)
	if err != nil {
		return err
	}
	repo := accounts.NewRepository(dbClient.DB())

	serviceParams := auth.ServiceParams{Accounts: repo, Hasher: hasher, Tokens: issuer}
	if outcomes != nil {
		serviceParams.Outcomes = outcomes
	}
	params.AuthService, err = auth.NewService(serviceParams)
	if err != nil {
		return err
	}
	params.Gate, err = auth.NewGate(issuer, repo)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":              cfg.App.Env,
		"addr":             addr,
		"password_hashing": hasher.Algorithm(),
	})
	logg.Info(logCtx, "starting api server")

	return api.Serve(ctx, api.NewServer(addr, routes.NewRouter(params)), ln, api.DefaultShutdownTimeout, logg)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
