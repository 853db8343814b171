package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/egonyu/tesotunes-moderation/internal/config"
	s3infra "github.com/egonyu/tesotunes-moderation/internal/infra/s3"
	pgrepo "github.com/egonyu/tesotunes-moderation/internal/repo/postgres"
	redrepo "github.com/egonyu/tesotunes-moderation/internal/repo/redis"
	auditsvc "github.com/egonyu/tesotunes-moderation/internal/services/audit"
	authsvc "github.com/egonyu/tesotunes-moderation/internal/services/auth"
	modsvc "github.com/egonyu/tesotunes-moderation/internal/services/moderation"
	ratesvc "github.com/egonyu/tesotunes-moderation/internal/services/rate"
	statssvc "github.com/egonyu/tesotunes-moderation/internal/services/stats"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	reviewRepo := pgrepo.NewReviewRepo(pool)
	forumRepo := pgrepo.NewForumRepo(pool)
	catalogRepo := pgrepo.NewCatalogRepo(pool)
	commentRepo := pgrepo.NewCommentRepo(pool)
	auditRepo := pgrepo.NewAuditRepo(pool)
	txManager := pgrepo.NewTxManager(pool)
	statsCacheRepo := redrepo.NewStatsCacheRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	auditor := auditsvc.NewService(auditRepo, log)
	bulkLimiter := ratesvc.NewLimiter(rateRepo, cfg.Moderation.BulkMaxPerMinute)
	previewSigner := s3infra.NewSigner(s3Client, cfg.S3.Bucket)

	moderationService := modsvc.NewService(
		reviewRepo,
		modsvc.NewRegistry(catalogRepo, forumRepo, commentRepo),
		txManager,
		auditor,
		previewSigner,
		bulkLimiter,
		modsvc.Config{
			QueuePageSize:    cfg.Moderation.QueuePageSize,
			PendingTopicsMax: cfg.Moderation.PendingTopicsMax,
			PreviewURLTTL:    cfg.Moderation.PreviewURLTTL,
			DashboardRecentN: cfg.Moderation.DashboardRecentN,
		},
		log,
	)
	statsService := statssvc.NewService(
		reviewRepo,
		statsCacheRepo,
		cfg.Moderation.StatsCacheTTL,
		cfg.Moderation.StatsWindow,
		log,
	)

	RegisterRoutes(r, Dependencies{
		JWTManager:        jwtManager,
		ModerationService: moderationService,
		StatsService:      statsService,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("moderation api started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
