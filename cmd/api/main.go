package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/licenciapp/licencias-backend/api/controllers"
	"github.com/licenciapp/licencias-backend/api/routes"
	internalauth "github.com/licenciapp/licencias-backend/internal/auth"
	"github.com/licenciapp/licencias-backend/internal/evidence"
	"github.com/licenciapp/licencias-backend/internal/profiles"
	"github.com/licenciapp/licencias-backend/internal/requests"
	"github.com/licenciapp/licencias-backend/pkg/auth/session"
	"github.com/licenciapp/licencias-backend/pkg/config"
	"github.com/licenciapp/licencias-backend/pkg/db"
	"github.com/licenciapp/licencias-backend/pkg/logger"
	"github.com/licenciapp/licencias-backend/pkg/metrics"
	"github.com/licenciapp/licencias-backend/pkg/migrate"
	"github.com/licenciapp/licencias-backend/pkg/redis"
	"github.com/licenciapp/licencias-backend/pkg/retry"
	"github.com/licenciapp/licencias-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	profilesRepo := profiles.NewRepository(dbClient.DB())
	requestsRepo := requests.NewRepository(dbClient.DB())
	evidenceRepo := evidence.NewRepository(dbClient.DB())
	retryPolicy := retry.NewPolicy(cfg.Retry)

	authService, err := internalauth.NewService(internalauth.ServiceParams{
		ProfileRepo:    profilesRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profilesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	requestService, err := requests.NewService(requestsRepo, retryPolicy)
	if err != nil {
		logg.Error(context.Background(), "failed to create request service", err)
		os.Exit(1)
	}

	evidenceService, err := evidence.NewService(
		evidenceRepo,
		requestsRepo,
		gcsClient,
		cfg.GCS.BucketName,
		cfg.GCS.DownloadURLExpiry,
		cfg.Evidence.MaxUploadBytes(),
		retryPolicy,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create evidence service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		Redis:           redisClient,
		HTTPMetrics:     metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		SessionChecker:  sessionManager,
		RoleSource:      profilesRepo,
		AuthService:     authService,
		ProfileService:  profileService,
		RequestService:  requestService,
		EvidenceService: evidenceService,
		HealthDeps: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"gcs":      gcsClient,
		},
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
