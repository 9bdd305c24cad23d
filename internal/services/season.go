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

// One round of fixtures per calendar week.
const roundSpacing = 7 * 24 * time.Hour

// CreateSeasonRequest carries the admin input for a new season.
type CreateSeasonRequest struct {
	LeagueID              uuid.UUID `json:"league_id" binding:"required"`
	Name                  string    `json:"name" binding:"required"`
	StartDate             time.Time `json:"start_date" binding:"required"`
	GameDurationMinutes   int       `json:"game_duration_minutes"`
	EvaluationCron        string    `json:"evaluation_cron"`
	EvaluationTimezone    string    `json:"evaluation_timezone"`
	AutoEvaluationEnabled *bool     `json:"auto_evaluation_enabled"`
}

// SeasonService creates and retires seasons. Season creation is a single
// transaction: the season row, the full double-round-robin schedule, and
// zeroed standings all land together or not at all.
type SeasonService struct {
	db        *gorm.DB
	standings *StandingsService
	scheduler *GameScheduler
	logger    *logrus.Logger

	defaultGameDurationMin int
	defaultEvaluationCron  string
	defaultTimezone        string
}

func NewSeasonService(db *gorm.DB, standings *StandingsService, scheduler *GameScheduler, defaultGameDurationMin int, defaultEvaluationCron, defaultTimezone string, logger *logrus.Logger) *SeasonService {
	return &SeasonService{
		db:                     db,
		standings:              standings,
		scheduler:              scheduler,
		logger:                 logger,
		defaultGameDurationMin: defaultGameDurationMin,
		defaultEvaluationCron:  defaultEvaluationCron,
		defaultTimezone:        defaultTimezone,
	}
}

// CreateSeason builds the season and its schedule. At most one active
// season may exist per league.
func (s *SeasonService) CreateSeason(ctx context.Context, req *CreateSeasonRequest) (*models.Season, error) {
	if req.Name == "" {
		return nil, utils.WrapKind(utils.ErrInvalidInput, "season name is required")
	}

	var teams []models.Team
	if err := s.db.WithContext(ctx).Where("league_id = ?", req.LeagueID).Find(&teams).Error; err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, utils.WrapKind(utils.ErrInvalidInput, "league needs at least 2 teams, has %d", len(teams))
	}

	season := &models.Season{
		LeagueID:              req.LeagueID,
		Name:                  req.Name,
		StartDate:             req.StartDate,
		GameDurationMinutes:   req.GameDurationMinutes,
		EvaluationCron:        req.EvaluationCron,
		EvaluationTimezone:    req.EvaluationTimezone,
		AutoEvaluationEnabled: true,
		IsActive:              true,
	}
	if season.GameDurationMinutes <= 0 {
		season.GameDurationMinutes = s.defaultGameDurationMin
	}
	if season.EvaluationCron == "" {
		season.EvaluationCron = s.defaultEvaluationCron
	}
	if season.EvaluationTimezone == "" {
		season.EvaluationTimezone = s.defaultTimezone
	}
	if req.AutoEvaluationEnabled != nil {
		season.AutoEvaluationEnabled = *req.AutoEvaluationEnabled
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Season{}).
			Where("league_id = ? AND is_active = ?", req.LeagueID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return utils.WrapKind(utils.ErrConflict, "league %s already has an active season", req.LeagueID)
		}

		if err := tx.Create(season).Error; err != nil {
			return err
		}

		games := generateDoubleRoundRobin(season, teams)
		for i := range games {
			if err := tx.Create(&games[i]).Error; err != nil {
				return err
			}
		}
		season.EndDate = games[len(games)-1].WeekEndDate
		if err := tx.Model(season).Update("end_date", season.EndDate).Error; err != nil {
			return err
		}

		teamIDs := make([]uuid.UUID, len(teams))
		for i, t := range teams {
			teamIDs[i] = t.ID
		}
		return s.standings.InitStandings(tx, season.ID, teamIDs)
	})
	if err != nil {
		return nil, err
	}

	s.scheduler.RegisterSeason(season)
	s.logger.WithFields(logrus.Fields{
		"season_id": season.ID,
		"league_id": season.LeagueID,
		"teams":     len(teams),
	}).Info("Season created with generated schedule")
	return season, nil
}

// DeleteSeason removes the season with its schedule and standings, and
// drops its evaluation job.
func (s *SeasonService) DeleteSeason(ctx context.Context, seasonID uuid.UUID) error {
	var season models.Season
	if err := s.db.WithContext(ctx).First(&season, "id = ?", seasonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.WrapKind(utils.ErrNotFound, "season %s", seasonID)
		}
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id IN (?)",
			tx.Model(&models.Game{}).Select("id").Where("season_id = ?", seasonID),
		).Delete(&models.ScoreEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("season_id = ?", seasonID).Delete(&models.Game{}).Error; err != nil {
			return err
		}
		if err := tx.Where("season_id = ?", seasonID).Delete(&models.Standing{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Season{}, "id = ?", seasonID).Error
	})
	if err != nil {
		return err
	}

	s.scheduler.UnregisterSeason(seasonID)
	s.logger.WithField("season_id", seasonID).Info("Season deleted")
	return nil
}

// GetSeason returns one season.
func (s *SeasonService) GetSeason(ctx context.Context, seasonID uuid.UUID) (*models.Season, error) {
	var season models.Season
	if err := s.db.WithContext(ctx).First(&season, "id = ?", seasonID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.WrapKind(utils.ErrNotFound, "season %s", seasonID)
		}
		return nil, err
	}
	return &season, nil
}

// GetSchedule lists a season's games in week order.
func (s *SeasonService) GetSchedule(ctx context.Context, seasonID uuid.UUID) ([]models.Game, error) {
	if _, err := s.GetSeason(ctx, seasonID); err != nil {
		return nil, err
	}
	var games []models.Game
	if err := s.db.WithContext(ctx).
		Where("season_id = ?", seasonID).
		Order("week_number ASC, scheduled_time ASC").
		Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// generateDoubleRoundRobin builds the full fixture list with the circle
// method: team 0 stays fixed while the rest rotate, giving N-1 rounds of
// N/2 pairings, then a mirrored second leg. N teams yield N*(N-1) games.
func generateDoubleRoundRobin(season *models.Season, teams []models.Team) []models.Game {
	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	// Odd team counts get a bye slot; pairings against it are skipped.
	if len(ids)%2 != 0 {
		ids = append(ids, uuid.Nil)
	}

	n := len(ids)
	rounds := n - 1
	var games []models.Game

	addRound := func(week int, firstLeg bool, pairs [][2]uuid.UUID) {
		weekStart := season.StartDate.Add(time.Duration(week-1) * roundSpacing)
		weekEnd := weekStart.Add(season.GameDuration())
		for _, pair := range pairs {
			if pair[0] == uuid.Nil || pair[1] == uuid.Nil {
				continue
			}
			home, away := pair[0], pair[1]
			if !firstLeg {
				home, away = away, home
			}
			games = append(games, models.Game{
				SeasonID:      season.ID,
				HomeTeamID:    home,
				AwayTeamID:    away,
				WeekNumber:    week,
				IsFirstLeg:    firstLeg,
				Status:        models.GameStatusScheduled,
				ScheduledTime: weekStart,
				WeekStartDate: weekStart,
				WeekEndDate:   weekEnd,
			})
		}
	}

	rotation := make([]uuid.UUID, n)
	copy(rotation, ids)
	for round := 1; round <= rounds; round++ {
		var pairs [][2]uuid.UUID
		for i := 0; i < n/2; i++ {
			a, b := rotation[i], rotation[n-1-i]
			// Alternate which side of the circle is home so no team plays
			// home every week.
			if (round+i)%2 == 0 {
				a, b = b, a
			}
			pairs = append(pairs, [2]uuid.UUID{a, b})
		}
		addRound(round, true, pairs)
		addRound(round+rounds, false, pairs)

		// Rotate all but the first element.
		last := rotation[n-1]
		copy(rotation[2:], rotation[1:n-1])
		rotation[1] = last
	}
	return games
}
