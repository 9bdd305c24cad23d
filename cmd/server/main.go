package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fitleague/fitleague/internal/api"
	"github.com/fitleague/fitleague/internal/api/handlers"
	"github.com/fitleague/fitleague/internal/api/middleware"
	"github.com/fitleague/fitleague/internal/scoring"
	"github.com/fitleague/fitleague/internal/services"
	"github.com/fitleague/fitleague/pkg/config"
	"github.com/fitleague/fitleague/pkg/database"
	applogger "github.com/fitleague/fitleague/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := applogger.InitLogger()
	if cfg.IsDevelopment() {
		log.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	scorer, err := scoring.New(cfg.ScoringMethod, scoring.RatesFrom(cfg.ZoneStaminaRates, cfg.ZoneStrengthRates))
	if err != nil {
		log.Fatalf("Invalid scoring configuration: %v", err)
	}

	// Services
	bus := services.NewEventBus(redisClient, log)
	cache := services.NewCacheService(redisClient)
	attribution := services.NewAttributionService(db.DB, bus, log)
	workouts := services.NewWorkoutService(db.DB, scorer, attribution, bus, log)
	standings := services.NewStandingsService(db.DB, log)
	evaluator := services.NewEvaluationService(db.DB, standings, bus, log)
	scheduler := services.NewGameScheduler(db.DB, evaluator, bus, cfg.TickInterval(), log)
	seasons := services.NewSeasonService(db.DB, standings, scheduler, cfg.DefaultGameDurationMin, cfg.EvaluationCronDefault, cfg.TimezoneDefault, log)
	games := services.NewGameService(db.DB, cache, log)
	leaderboard := services.NewLeaderboardService(db.DB, log)
	registry := services.NewSessionRegistry(log)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EnableScheduler {
		go scheduler.Run(rootCtx)
	} else {
		log.Warn("Game scheduler disabled by configuration")
	}

	if cfg.EnableDuplicateCleanupJob {
		cleanup := services.NewCleanupService(db.DB, log)
		pool := services.NewPlayerPoolService(db.DB, log)
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if _, err := cleanup.Run(rootCtx); err != nil {
						log.WithError(err).Error("Duplicate cleanup sweep failed")
					}
					if err := pool.Refresh(rootCtx); err != nil {
						log.WithError(err).Error("Player pool refresh failed")
					}
				}
			}
		}()
	}

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(db.DB, redisClient)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, api.Deps{
		Workouts:    workouts,
		Games:       games,
		Seasons:     seasons,
		Standings:   standings,
		Leaderboard: leaderboard,
		Evaluator:   evaluator,
	}, cfg)

	// WebSocket gateway at root level, authenticated via token query param.
	wsHandler := handlers.NewWebSocketHandler(redisClient, registry, services.SessionConfig{
		PingInterval:  time.Duration(cfg.WSPingIntervalS) * time.Second,
		WriteDeadline: time.Duration(cfg.WSWriteDeadlineS) * time.Second,
		EchoMessages:  cfg.IsDevelopment(),
	}, log)
	router.GET("/ws", middleware.AuthRequired(cfg.JWTSecret), wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down server...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	log.Info("Server exited")
}
