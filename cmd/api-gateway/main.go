package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-portal-api/api/swagger"
	"github.com/noah-isme/student-portal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/cache"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/database"
	"github.com/noah-isme/student-portal-api/pkg/jobs"
	"github.com/noah-isme/student-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/cors"
	"github.com/noah-isme/student-portal-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/student-portal-api/pkg/tracing"
)

// @title Student Portal API
// @version 1.0.0
// @description Gateway for the student portal app: aggregated courses and concepts, notification feed and profile.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// directoryDriver is satisfied by both academic directory implementations.
type directoryDriver interface {
	FetchClassMemberships(ctx context.Context, userID models.UserID, token string) ([]models.ClassMembership, error)
	FetchCourseEnrollments(ctx context.Context, classID models.ClassID, token string) ([]models.CourseEnrollment, error)
	FetchCourseDetail(ctx context.Context, courseID models.CourseID, token string) (*models.CourseDetail, error)
	FetchConceptRecords(ctx context.Context, userID models.UserID, token string) ([]models.ConceptRecord, error)
	FetchNotifications(ctx context.Context, token string) ([]models.Notification, error)
	FetchUserProfile(ctx context.Context, userID models.UserID, token string) (*models.UserProfile, error)
}

type feedStore interface {
	Load(ctx context.Context, key string) (*models.FeedSnapshot, error)
	Save(ctx context.Context, key string, snapshot models.FeedSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.Tracing)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logr.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.ReadinessCheck{}

	var db *sqlx.DB
	var directory directoryDriver
	switch cfg.Directory.Driver {
	case config.DirectoryDriverPostgres:
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect directory database", zap.Error(err))
		}
		defer db.Close()
		checks["database"] = db.PingContext
		directory = repository.NewAcademicSQLRepository(db, metrics)
	default:
		directory = repository.NewAcademicHTTPRepository(cfg.Directory.BaseURL, nil, cfg.Directory.Timeout, metrics)
	}

	maintenance := jobs.NewScheduler("maintenance", jobs.SchedulerConfig{Interval: cfg.Notifications.SweepInterval, Logger: logr})

	var store feedStore
	switch cfg.Notifications.Store {
	case config.FeedStoreRedis:
		var client *redis.Client
		client, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		redisStore := repository.NewRedisFeedRepository(client, logr)
		defer redisStore.Close()
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		store = redisStore
	default:
		memoryStore := repository.NewMemoryFeedRepository()
		maintenance.Register("feed_store_sweep", memoryStore.Sweep)
		store = memoryStore
	}

	translator := service.NewConceptTranslator(cfg.Labels.Units, cfg.Labels.Results)
	courseSvc := service.NewCourseAggregationService(service.CourseAggregationServiceParams{
		Directory:  directory,
		Translator: translator,
		Metrics:    metrics,
		Logger:     logr,
		Config:     service.CourseAggregationConfig{PartialResults: cfg.Aggregation.PartialResults},
	})
	notificationSvc := service.NewNotificationService(directory, store, metrics, validate, logr, service.NotificationServiceConfig{
		SessionTTL:  cfg.Notifications.SessionTTL,
		LatestLimit: cfg.Notifications.LatestLimit,
	})
	profileSvc := service.NewProfileService(directory, logr)
	transcriptSvc := service.NewTranscriptService(courseSvc, directory, nil, nil, validate, logr)

	courseHandler := handler.NewCourseHandler(courseSvc, transcriptSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	conceptHandler := handler.NewConceptHandler(translator)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	maintenance.Register("rate_limit_sweep", func(context.Context) (int, error) { return limiter.Sweep(), nil })
	maintenance.Start(ctx)
	defer maintenance.Stop()

	api := r.Group(cfg.APIPrefix)
	api.Use(limiter.Middleware())
	api.Use(internalmiddleware.Session(internalmiddleware.SessionConfig{Secret: cfg.JWT.Secret}))
	{
		me := api.Group("/me")
		me.GET("/courses", courseHandler.List)
		me.GET("/courses/:enrollmentKey/concepts", courseHandler.Concepts)
		me.GET("/transcript", courseHandler.Transcript)
		me.GET("/profile", profileHandler.Get)

		notifications := api.Group("/notifications")
		notifications.GET("", notificationHandler.List)
		notifications.POST("/refresh", notificationHandler.Refresh)
		notifications.GET("/latest", notificationHandler.Latest)

		api.POST("/concepts/translate", conceptHandler.Translate)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "directory", cfg.Directory.Driver, "feed_store", cfg.Notifications.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
