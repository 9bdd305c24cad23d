package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/internal/scoring"
	"github.com/fitleague/fitleague/pkg/utils"
)

// AttributionService credits scored workouts to the live games the user's
// teams are currently playing. It runs synchronously after workout ingest;
// its failures are logged and never surfaced to the uploader.
type AttributionService struct {
	db     *gorm.DB
	bus    EventPublisher
	logger *logrus.Logger
}

func NewAttributionService(db *gorm.DB, bus EventPublisher, logger *logrus.Logger) *AttributionService {
	return &AttributionService{db: db, bus: bus, logger: logger}
}

// Attribute finds every in_progress game in its window where the user is an
// active member of either side and applies the workout's score contribution
// to each. A user may legitimately be in multiple simultaneous live games
// across different seasons.
func (s *AttributionService) Attribute(ctx context.Context, userID uuid.UUID, workoutID uuid.UUID, stats scoring.Stats) {
	points := stats.TotalPoints()
	if points <= 0 {
		s.logger.WithField("workout_id", workoutID).Debug("Workout has no score contribution, skipping attribution")
		return
	}

	var memberships []models.TeamMember
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.MemberStatusActive).
		Find(&memberships).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to load team memberships for attribution")
		return
	}
	if len(memberships) == 0 {
		s.logger.WithField("user_id", userID).Info("User has no active team, skipping attribution")
		return
	}

	teamIDs := make([]uuid.UUID, 0, len(memberships))
	memberTeams := make(map[uuid.UUID]bool, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
		memberTeams[m.TeamID] = true
	}

	now := time.Now().UTC()
	var games []models.Game
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.GameStatusInProgress).
		Where("home_team_id IN ? OR away_team_id IN ?", teamIDs, teamIDs).
		Where("game_start_time <= ? AND game_end_time > ?", now, now).
		Find(&games).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to look up live games for attribution")
		return
	}
	if len(games) == 0 {
		s.logger.WithField("user_id", userID).Info("No live game for user, skipping attribution")
		return
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to load user for attribution")
		return
	}

	for i := range games {
		game := &games[i]
		teamID, side := s.sideFor(game, memberTeams)
		if side == "" {
			// Membership changed between the two queries.
			s.logger.WithFields(logrus.Fields{
				"game_id": game.ID,
				"user_id": userID,
			}).Warn("User matched game but is on neither team, skipping game")
			continue
		}
		if err := s.applyContribution(ctx, game, &user, teamID, side, stats, now); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"game_id": game.ID,
				"user_id": userID,
			}).Error("Failed to apply score contribution")
			continue
		}
		s.publishLiveScore(ctx, game.ID)
	}
}

func (s *AttributionService) sideFor(game *models.Game, memberTeams map[uuid.UUID]bool) (uuid.UUID, string) {
	if memberTeams[game.HomeTeamID] {
		return game.HomeTeamID, models.TeamSideHome
	}
	if memberTeams[game.AwayTeamID] {
		return game.AwayTeamID, models.TeamSideAway
	}
	return uuid.Nil, ""
}

// applyContribution appends the score event and bumps the aggregate score.
// The increment is conditional SQL so concurrent attributions never lose an
// update, and it only lands while the game is still in_progress.
func (s *AttributionService) applyContribution(ctx context.Context, game *models.Game, user *models.User, teamID uuid.UUID, side string, stats scoring.Stats, now time.Time) error {
	event := models.ScoreEvent{
		GameID:         game.ID,
		UserID:         user.ID,
		Username:       user.Username,
		TeamID:         teamID,
		TeamSide:       side,
		ScorePoints:    stats.TotalPoints(),
		StaminaGained:  stats.StaminaGained,
		StrengthGained: stats.StrengthGained,
		OccurredAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return err
	}

	scoreColumn := "home_score"
	if side == models.TeamSideAway {
		scoreColumn = "away_score"
	}
	// The bump contends with other uploads and the scheduler; transient
	// failures get the standard retry before the contribution is dropped.
	return utils.Retry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&models.Game{}).
			Where("id = ? AND status = ?", game.ID, models.GameStatusInProgress).
			Updates(map[string]interface{}{
				scoreColumn:        gorm.Expr(scoreColumn+" + ?", event.ScorePoints),
				"last_score_time":  now,
				"last_scorer_id":   user.ID,
				"last_scorer_name": user.Username,
				"last_scorer_team": side,
			}).Error
	})
}

// publishLiveScore re-reads the game so the published totals reflect at
// least the increment that was just written.
func (s *AttributionService) publishLiveScore(ctx context.Context, gameID uuid.UUID) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", gameID).Error; err != nil {
		s.logger.WithError(err).WithField("game_id", gameID).Error("Failed to reload game for live score update")
		return
	}

	var homeTeam, awayTeam models.Team
	if err := s.db.WithContext(ctx).First(&homeTeam, "id = ?", game.HomeTeamID).Error; err != nil {
		s.logger.WithError(err).WithField("team_id", game.HomeTeamID).Error("Failed to load home team")
		return
	}
	if err := s.db.WithContext(ctx).First(&awayTeam, "id = ?", game.AwayTeamID).Error; err != nil {
		s.logger.WithError(err).WithField("team_id", game.AwayTeamID).Error("Failed to load away team")
		return
	}

	now := time.Now().UTC()
	s.bus.PublishGlobal(models.LiveScoreUpdateEvent{
		EventType:      models.EventLiveScoreUpdate,
		GameID:         game.ID,
		HomeTeamID:     game.HomeTeamID,
		HomeTeamName:   homeTeam.Name,
		AwayTeamID:     game.AwayTeamID,
		AwayTeamName:   awayTeam.Name,
		HomeScore:      game.HomeScore,
		AwayScore:      game.AwayScore,
		GameProgress:   game.Progress(now),
		TimeRemaining:  game.TimeRemaining(now),
		IsActive:       game.Status == models.GameStatusInProgress,
		LastScorerID:   game.LastScorerID,
		LastScorerName: game.LastScorerName,
		Timestamp:      now,
	})
}
