package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/db"
	"github.com/wuwenbin0122/guild-recruit/handlers"
	"github.com/wuwenbin0122/guild-recruit/internal/api"
	"github.com/wuwenbin0122/guild-recruit/internal/applications"
	"github.com/wuwenbin0122/guild-recruit/internal/auth"
	"github.com/wuwenbin0122/guild-recruit/internal/characters"
	store "github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/metrics"
	"github.com/wuwenbin0122/guild-recruit/internal/utils"
)

type dataStore interface {
	auth.UserStore
	applications.Store
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.CheckSecret(); err != nil {
		logger.Fatal("refusing to start with the default signing key", zap.Error(err))
	}
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET not set; tokens are signed with the development key")
	}

	ctx := context.Background()

	var (
		records   dataStore
		vacancies handlers.VacancyLister
		schedule  handlers.ScheduleLister
	)
	switch cfg.StorageDriver {
	case utils.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		records = store.NewMemoryStore()
	default:
		postgres, err := store.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal("postgres: failed to connect", zap.Error(err))
		}
		defer postgres.Close()

		if err := postgres.Ping(ctx); err != nil {
			logger.Fatal("postgres: ping failed", zap.Error(err))
		}
		if err := postgres.EnsureSchema(ctx); err != nil {
			logger.Fatal("postgres: ensure schema", zap.Error(err))
		}
		records = postgres

		gormDB, err := db.NewGORM(cfg.Postgres.BuildDSN())
		if err != nil {
			logger.Fatal("gorm: failed to connect", zap.Error(err))
		}
		vacancies = db.NewVacancyRepository(gormDB)
		schedule = db.NewScheduleRepository(gormDB)
	}

	var archive applications.Archive = store.NewMemoryArchive()
	if cfg.Mongo.URI != "" {
		mongoStore, err := store.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			logger.Fatal("mongo: failed to connect", zap.Error(err))
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				logger.Warn("mongo: close error", zap.Error(err))
			}
		}()

		if err := mongoStore.EnsureCollections(ctx); err != nil {
			logger.Fatal("mongo: ensure collections", zap.Error(err))
		}
		archive = mongoStore
	}

	var lookup characters.Lookup = characters.NewStub()
	if cfg.Character.Enabled() {
		lookup = characters.NewClient(cfg.Character)
	} else {
		logger.Info("character api credentials not set; using generated character data")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("redis: failed to connect", zap.Error(err))
		}
		defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
		lookup = characters.NewCached(lookup, rdb, cfg.Redis.CacheTTL, logger)
	}

	m := metrics.New()

	authService, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, records)
	if err != nil {
		logger.Fatal("failed to initialise auth service", zap.Error(err))
	}

	appService, err := applications.NewService(records,
		applications.WithArchive(archive),
		applications.WithLookup(lookup),
		applications.WithRecorder(m),
		applications.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("failed to initialise application service", zap.Error(err))
	}

	handler := api.NewHandler(authService, appService,
		api.WithLogger(logger),
		api.WithCredentialLimiter(api.NewRateLimiter(cfg.LoginLimit.PerSecond, cfg.LoginLimit.Burst, logger)),
	)

	router := setupRouter(logger, m, handler, vacancies, schedule)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}

func setupRouter(logger *zap.Logger, m *metrics.Metrics, handler *api.Handler, vacancies handlers.VacancyLister, schedule handlers.ScheduleLister) *gin.Engine {
	router := gin.New()
	router.Use(api.RequestLogger(logger), m.Middleware(), gin.Recovery())

	router.GET("/metrics", gin.WrapH(m.Handler()))

	handler.RegisterRoutes(router)
	if vacancies != nil {
		handlers.NewVacancyHandler(vacancies, logger).RegisterRoutes(router)
		handlers.NewScheduleHandler(schedule, logger).RegisterRoutes(router)
	} else {
		logger.Info("vacancy board and raid schedule disabled without postgres")
	}

	return router
}
