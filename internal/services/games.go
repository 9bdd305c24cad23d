package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/pkg/utils"
)

const liveGamesCacheTTL = 5 * time.Second

// LiveGameView is the read shape for live game endpoints.
type LiveGameView struct {
	GameID         uuid.UUID  `json:"game_id"`
	SeasonID       uuid.UUID  `json:"season_id"`
	WeekNumber     int        `json:"week_number"`
	Status         string     `json:"status"`
	HomeTeamID     uuid.UUID  `json:"home_team_id"`
	HomeTeamName   string     `json:"home_team_name"`
	HomeTeamColor  string     `json:"home_team_color"`
	AwayTeamID     uuid.UUID  `json:"away_team_id"`
	AwayTeamName   string     `json:"away_team_name"`
	AwayTeamColor  string     `json:"away_team_color"`
	HomeScore      int        `json:"home_score"`
	AwayScore      int        `json:"away_score"`
	GameProgress   float64    `json:"game_progress"`
	TimeRemaining  int64      `json:"time_remaining"`
	LastScorerID   *uuid.UUID `json:"last_scorer_id,omitempty"`
	LastScorerName *string    `json:"last_scorer_name,omitempty"`
	LastScorerTeam *string    `json:"last_scorer_team,omitempty"`
	LastScoreTime  *time.Time `json:"last_score_time,omitempty"`
}

// GameService serves the read paths for games: live lists, live detail,
// and post-evaluation summaries.
type GameService struct {
	db     *gorm.DB
	cache  *CacheService
	logger *logrus.Logger
}

func NewGameService(db *gorm.DB, cache *CacheService, logger *logrus.Logger) *GameService {
	return &GameService{db: db, cache: cache, logger: logger}
}

// GetLiveGames lists every in_progress game. The list is cached briefly;
// score freshness comes from LiveScoreUpdate events, not this endpoint.
func (s *GameService) GetLiveGames(ctx context.Context) ([]LiveGameView, error) {
	if s.cache != nil {
		var cached []LiveGameView
		if err := s.cache.Get(ctx, LiveGamesCacheKey(), &cached); err == nil {
			return cached, nil
		}
	}

	var games []models.Game
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.GameStatusInProgress).
		Order("week_start_date ASC").
		Find(&games).Error; err != nil {
		return nil, err
	}

	views := make([]LiveGameView, 0, len(games))
	for i := range games {
		view, err := s.buildView(ctx, &games[i])
		if err != nil {
			s.logger.WithError(err).WithField("game_id", games[i].ID).Error("Failed to build live game view")
			continue
		}
		views = append(views, *view)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, LiveGamesCacheKey(), views, liveGamesCacheTTL); err != nil {
			s.logger.WithError(err).Debug("Failed to cache live games")
		}
	}
	return views, nil
}

// GetLiveGame returns the live view of one game in any non-scheduled state.
func (s *GameService) GetLiveGame(ctx context.Context, gameID uuid.UUID) (*LiveGameView, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", gameID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.WrapKind(utils.ErrNotFound, "game %s", gameID)
		}
		return nil, err
	}
	return s.buildView(ctx, &game)
}

// GetGameSummary returns the write-once summary, or NotFound until the game
// has been evaluated.
func (s *GameService) GetGameSummary(ctx context.Context, gameID uuid.UUID) (*models.GameSummary, error) {
	var summary models.GameSummary
	if err := s.db.WithContext(ctx).First(&summary, "game_id = ?", gameID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.WrapKind(utils.ErrNotFound, "no summary for game %s", gameID)
		}
		return nil, err
	}
	return &summary, nil
}

func (s *GameService) buildView(ctx context.Context, game *models.Game) (*LiveGameView, error) {
	var homeTeam, awayTeam models.Team
	if err := s.db.WithContext(ctx).First(&homeTeam, "id = ?", game.HomeTeamID).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&awayTeam, "id = ?", game.AwayTeamID).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &LiveGameView{
		GameID:         game.ID,
		SeasonID:       game.SeasonID,
		WeekNumber:     game.WeekNumber,
		Status:         game.Status,
		HomeTeamID:     game.HomeTeamID,
		HomeTeamName:   homeTeam.Name,
		HomeTeamColor:  homeTeam.Color,
		AwayTeamID:     game.AwayTeamID,
		AwayTeamName:   awayTeam.Name,
		AwayTeamColor:  awayTeam.Color,
		HomeScore:      game.HomeScore,
		AwayScore:      game.AwayScore,
		GameProgress:   game.Progress(now),
		TimeRemaining:  game.TimeRemaining(now),
		LastScorerID:   game.LastScorerID,
		LastScorerName: game.LastScorerName,
		LastScorerTeam: game.LastScorerTeam,
		LastScoreTime:  game.LastScoreTime,
	}, nil
}
