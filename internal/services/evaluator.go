package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/pkg/utils"
)

// EvaluationService finalizes finished games: it materializes the summary
// from the score-event ledger, books the result into standings, and flips
// the game to evaluated.
type EvaluationService struct {
	db        *gorm.DB
	standings *StandingsService
	bus       EventPublisher
	logger    *logrus.Logger
}

func NewEvaluationService(db *gorm.DB, standings *StandingsService, bus EventPublisher, logger *logrus.Logger) *EvaluationService {
	return &EvaluationService{db: db, standings: standings, bus: bus, logger: logger}
}

// playerTotal is one user's aggregate contribution to a game.
type playerTotal struct {
	UserID   uuid.UUID
	Username string
	TeamID   uuid.UUID
	Side     string
	Total    int
	FirstAt  time.Time
}

// EvaluateGame evaluates one finished game. Re-evaluating an evaluated game
// is a no-op; games in any other state are rejected.
func (s *EvaluationService) EvaluateGame(ctx context.Context, gameID uuid.UUID) (*models.GameSummary, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", gameID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.WrapKind(utils.ErrNotFound, "game %s", gameID)
		}
		return nil, err
	}
	if game.Status == models.GameStatusEvaluated {
		s.logger.WithField("game_id", gameID).Debug("Game already evaluated, skipping")
		return nil, nil
	}
	if game.Status != models.GameStatusFinished {
		return nil, utils.WrapKind(utils.ErrInvalidInput, "game %s is %s, not finished", gameID, game.Status)
	}

	var events []models.ScoreEvent
	if err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	summary := s.buildSummary(&game, events)
	winner := winnerTeamID(game.HomeTeamID, game.AwayTeamID, summary.FinalHomeScore, summary.FinalAwayScore)

	// The summary row is the write-once marker: it commits in the same
	// transaction as the standings booking, so its presence implies the
	// result was booked and only the status flip can be outstanding.
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.GameSummary{}).
		Where("game_id = ?", gameID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing == 0 {
		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(summary).Error; err != nil {
				return err
			}
			return s.standings.bookResult(tx, game.SeasonID, game.HomeTeamID, game.AwayTeamID, winner)
		})
		switch {
		case txErr == nil:
			if err := s.standings.RecomputePositions(ctx, game.SeasonID); err != nil {
				return nil, err
			}
		case utils.IsUniqueViolation(txErr):
			// A concurrent evaluation won the insert and booked standings.
			s.logger.WithField("game_id", gameID).Warn("Game summary already written concurrently")
		default:
			return nil, txErr
		}
	}

	updates := map[string]interface{}{
		"status":           models.GameStatusEvaluated,
		"home_score_final": summary.FinalHomeScore,
		"away_score_final": summary.FinalAwayScore,
	}
	if winner != nil {
		updates["winner_team_id"] = *winner
	}
	res := s.db.WithContext(ctx).Model(&models.Game{}).
		Where("id = ? AND status = ?", gameID, models.GameStatusFinished).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		s.logger.WithField("game_id", gameID).Debug("Game evaluated by another worker")
		return nil, nil
	}

	s.publishEvaluated(ctx, &game, summary, winner)
	return summary, nil
}

// winnerTeamID picks the side with the higher final score; nil on draw.
func winnerTeamID(homeTeamID, awayTeamID uuid.UUID, homeScore, awayScore int) *uuid.UUID {
	switch {
	case homeScore > awayScore:
		return &homeTeamID
	case awayScore > homeScore:
		return &awayTeamID
	}
	return nil
}

// buildSummary aggregates the score-event ledger into the write-once
// summary row. Final scores come from the ledger, which is authoritative.
func (s *EvaluationService) buildSummary(game *models.Game, events []models.ScoreEvent) *models.GameSummary {
	totals := make(map[uuid.UUID]*playerTotal)
	var order []uuid.UUID
	homeScore, awayScore := 0, 0
	for _, e := range events {
		if e.TeamSide == models.TeamSideHome {
			homeScore += e.ScorePoints
		} else {
			awayScore += e.ScorePoints
		}
		t, ok := totals[e.UserID]
		if !ok {
			t = &playerTotal{
				UserID:   e.UserID,
				Username: e.Username,
				TeamID:   e.TeamID,
				Side:     e.TeamSide,
				FirstAt:  e.OccurredAt,
			}
			totals[e.UserID] = t
			order = append(order, e.UserID)
		}
		t.Total += e.ScorePoints
	}

	players := make([]*playerTotal, 0, len(order))
	for _, id := range order {
		players = append(players, totals[id])
	}
	// Deterministic tie-breaking: earliest first contribution wins ties.
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].FirstAt.Before(players[j].FirstAt)
	})

	summary := &models.GameSummary{
		GameID:         game.ID,
		FinalHomeScore: homeScore,
		FinalAwayScore: awayScore,
	}
	if game.GameStartTime != nil {
		summary.GameStartDate = *game.GameStartTime
	}
	if game.GameEndTime != nil {
		summary.GameEndDate = *game.GameEndTime
	}

	var mvp, lvp *playerTotal
	for _, p := range players {
		if mvp == nil || p.Total > mvp.Total {
			mvp = p
		}
		if lvp == nil || p.Total < lvp.Total {
			lvp = p
		}
	}
	if mvp != nil {
		summary.MVPUserID = &mvp.UserID
		summary.MVPUsername = &mvp.Username
		summary.MVPTeamID = &mvp.TeamID
		summary.MVPScoreContribution = &mvp.Total
	}
	if lvp != nil {
		summary.LVPUserID = &lvp.UserID
		summary.LVPUsername = &lvp.Username
		summary.LVPTeamID = &lvp.TeamID
		summary.LVPScoreContribution = &lvp.Total
	}

	fillTeamAggregates(summary, players, events)
	return summary
}

// fillTeamAggregates computes per-side averages and top/lowest performers.
func fillTeamAggregates(summary *models.GameSummary, players []*playerTotal, events []models.ScoreEvent) {
	for _, side := range []string{models.TeamSideHome, models.TeamSideAway} {
		var sidePlayers []*playerTotal
		for _, p := range players {
			if p.Side == side {
				sidePlayers = append(sidePlayers, p)
			}
		}
		if len(sidePlayers) == 0 {
			continue
		}

		sideTotal := 0
		top, low := sidePlayers[0], sidePlayers[0]
		for _, p := range sidePlayers {
			sideTotal += p.Total
			if p.Total > top.Total {
				top = p
			}
			if p.Total < low.Total {
				low = p
			}
		}
		avg := float64(sideTotal) / float64(len(sidePlayers))

		if side == models.TeamSideHome {
			summary.HomeAvgScorePerPlayer = avg
			summary.HomeTotalWorkouts = len(sidePlayers)
			summary.HomeTopScorerID = &top.UserID
			summary.HomeTopScorerUsername = &top.Username
			summary.HomeTopScorerPoints = &top.Total
			summary.HomeLowestPerformerID = &low.UserID
			summary.HomeLowestPerformerName = &low.Username
			summary.HomeLowestPerformerPoints = &low.Total
		} else {
			summary.AwayAvgScorePerPlayer = avg
			summary.AwayTotalWorkouts = len(sidePlayers)
			summary.AwayTopScorerID = &top.UserID
			summary.AwayTopScorerUsername = &top.Username
			summary.AwayTopScorerPoints = &top.Total
			summary.AwayLowestPerformerID = &low.UserID
			summary.AwayLowestPerformerName = &low.Username
			summary.AwayLowestPerformerPoints = &low.Total
		}
	}
}

// publishEvaluated emits the summary and the refreshed standings.
func (s *EvaluationService) publishEvaluated(ctx context.Context, game *models.Game, summary *models.GameSummary, winner *uuid.UUID) {
	now := time.Now().UTC()
	s.bus.PublishGlobal(models.GameSummaryCreatedEvent{
		EventType:      models.EventGameSummaryCreated,
		GameID:         game.ID,
		FinalHomeScore: summary.FinalHomeScore,
		FinalAwayScore: summary.FinalAwayScore,
		WinnerTeamID:   winner,
		MVPUserID:      summary.MVPUserID,
		MVPUsername:    summary.MVPUsername,
		LVPUserID:      summary.LVPUserID,
		LVPUsername:    summary.LVPUsername,
		Timestamp:      now,
	})

	entries, err := s.standings.GetStandings(ctx, game.SeasonID)
	if err != nil {
		s.logger.WithError(err).WithField("season_id", game.SeasonID).Error("Failed to load standings for event")
		return
	}
	s.bus.PublishGlobal(models.TeamStandingsUpdatedEvent{
		EventType: models.EventTeamStandingsUpdated,
		SeasonID:  game.SeasonID,
		Standings: entries,
		Timestamp: now,
	})
}

// EvaluateFinished evaluates every finished game, accumulating per-game
// outcomes; one game's failure never aborts the rest. Used by the scheduler
// tick, per-season cron jobs, and admin-triggered evaluation.
func (s *EvaluationService) EvaluateFinished(ctx context.Context, seasonID *uuid.UUID) ([]models.GameEvaluationOutcome, error) {
	query := s.db.WithContext(ctx).Where("status = ?", models.GameStatusFinished)
	if seasonID != nil {
		query = query.Where("season_id = ?", *seasonID)
	}
	var games []models.Game
	if err := query.Find(&games).Error; err != nil {
		return nil, err
	}

	var results []models.GameEvaluationOutcome
	failed := 0
	for _, game := range games {
		outcome := models.GameEvaluationOutcome{GameID: game.ID}
		summary, err := s.EvaluateGame(ctx, game.ID)
		switch {
		case err != nil:
			failed++
			outcome.Error = err.Error()
			s.logger.WithError(err).WithField("game_id", game.ID).Error("Game evaluation failed")
		case summary != nil:
			outcome.HomeScore = summary.FinalHomeScore
			outcome.AwayScore = summary.FinalAwayScore
			outcome.WinnerTeamID = winnerTeamID(game.HomeTeamID, game.AwayTeamID, summary.FinalHomeScore, summary.FinalAwayScore)
		}
		results = append(results, outcome)
	}

	if len(results) > 0 {
		s.bus.PublishGlobal(models.GamesEvaluatedEvent{
			EventType:      models.EventGamesEvaluated,
			Date:           time.Now().UTC().Format("2006-01-02"),
			GamesEvaluated: len(results) - failed,
			GamesFailed:    failed,
			Results:        results,
			Timestamp:      time.Now().UTC(),
		})
	}
	return results, nil
}
