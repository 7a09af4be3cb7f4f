package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ekehi_engine/internal/config"
	"ekehi_engine/internal/db"
	"ekehi_engine/internal/events"
	httpServer "ekehi_engine/internal/http"
	"ekehi_engine/internal/http/handlers"
	"ekehi_engine/internal/http/middleware"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/repository"
	"ekehi_engine/internal/service"
	"ekehi_engine/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const resetInterval = time.Hour

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()

	service.InitJWT(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.CheckFunc{}

	// Redis: cooldowns, rate limiting, event fan-out between instances
	var (
		rdb *redis.Client
		ads service.AdCooldownStore
		pub events.Publisher
		sub events.Subscriber
	)
	if cfg.RedisURL != "" {
		client, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis unavailable", "error", err)
		}
		rdb = client
		defer rdb.Close()

		ads = repository.NewRedisAdCooldownStore(rdb)
		pub = events.NewRedisPublisher(rdb)
		sub = events.NewRedisSubscriber(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		logger.Warn("REDIS_URL not set, ad cooldowns and rate limits are per instance")
		bus := events.NewLocalBus()
		pub, sub = bus, bus
	}
	middleware.InitRedisRateLimiter(rdb)

	var stores service.Stores
	if cfg.DatabaseURL != "" {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		stores = service.PostgresStores(pool, ads)
		checks["database"] = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		stores = service.MemoryStores(repository.NewMemoryStore(), ads)
	}

	engine := service.NewEngine(stores, cfg.Rules(), pub, nil)

	hub := ws.NewHub()
	if err := hub.Run(ctx, sub); err != nil {
		logger.Fatal("event subscription failed", "error", err)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger.Desugar()), middleware.CORS(cfg.AllowedOrigin))

	httpServer.RegisterRoutes(r, handlers.NewHandler(engine), handlers.NewHealthHandler(version, checks), hub, httpServer.RouteConfig{
		AllowedOrigin:   cfg.AllowedOrigin,
		APIRateLimit:    cfg.APIRateLimit,
		APIRateWindow:   time.Duration(cfg.APIRateWindow) * time.Second,
		ClaimRateLimit:  cfg.ClaimRateLimit,
		ClaimRateWindow: time.Duration(cfg.ClaimRateWindow) * time.Second,
		AdminUserIDs:    cfg.AdminUserIDs,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// todayEarnings обнуляется раз в час для строк с прошедшей датой
	g.Go(func() error {
		ticker := time.NewTicker(resetInterval)
		defer ticker.Stop()
		for {
			if n, err := engine.Profiles.ResetTodayEarnings(gctx); err != nil {
				logger.Warn("today earnings reset failed", "error", err)
			} else if n > 0 {
				logger.Info("today earnings reset", "profiles", n)
			}
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return
	}
	logger.Info("server exited")
}
