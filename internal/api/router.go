package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fitleague/fitleague/internal/api/handlers"
	"github.com/fitleague/fitleague/internal/api/middleware"
	"github.com/fitleague/fitleague/internal/services"
	"github.com/fitleague/fitleague/pkg/config"
)

// Deps bundles the constructed services the routes are built on.
type Deps struct {
	Workouts    *services.WorkoutService
	Games       *services.GameService
	Seasons     *services.SeasonService
	Standings   *services.StandingsService
	Leaderboard *services.LeaderboardService
	Evaluator   *services.EvaluationService
}

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(group *gin.RouterGroup, deps Deps, cfg *config.Config) {
	workoutHandler := handlers.NewWorkoutHandler(deps.Workouts)
	gameHandler := handlers.NewGameHandler(deps.Games, deps.Evaluator)
	seasonHandler := handlers.NewSeasonHandler(deps.Seasons, deps.Standings)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.Leaderboard)

	// Public read endpoints
	group.GET("/games/live", gameHandler.GetLiveGames)
	group.GET("/games/:id/live", gameHandler.GetLiveGame)
	group.GET("/games/:id/summary", gameHandler.GetGameSummary)
	group.GET("/seasons/:id", seasonHandler.GetSeason)
	group.GET("/seasons/:id/schedule", seasonHandler.GetSchedule)
	group.GET("/seasons/:id/standings", seasonHandler.GetStandings)
	group.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

	// Authenticated routes
	auth := group.Group("")
	auth.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		auth.POST("/workouts/upload", workoutHandler.UploadWorkout)
		auth.POST("/workouts/check-sync", workoutHandler.CheckSyncStatus)
		auth.GET("/workouts/history", workoutHandler.GetWorkoutHistory)
		auth.GET("/workouts/:id", workoutHandler.GetWorkout)
	}

	// Admin routes
	admin := group.Group("")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret), middleware.AdminRequired())
	{
		admin.POST("/seasons", seasonHandler.CreateSeason)
		admin.DELETE("/seasons/:id", seasonHandler.DeleteSeason)
		admin.POST("/games/:id/evaluate", gameHandler.EvaluateGame)
	}
}
