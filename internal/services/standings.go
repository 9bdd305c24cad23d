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

// StandingsService maintains the season table: one row per team, win/draw
// counters, and recomputed positions after every change.
type StandingsService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewStandingsService(db *gorm.DB, logger *logrus.Logger) *StandingsService {
	return &StandingsService{db: db, logger: logger}
}

// InitStandings creates zeroed rows for every team in a new season. Runs
// inside the season-creation transaction, so it takes the tx handle.
func (s *StandingsService) InitStandings(tx *gorm.DB, seasonID uuid.UUID, teamIDs []uuid.UUID) error {
	now := time.Now().UTC()
	for _, teamID := range teamIDs {
		row := models.Standing{
			SeasonID:    seasonID,
			TeamID:      teamID,
			LastUpdated: now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// ApplyResult books one evaluated game into the table: both teams play a
// game, the winner takes 3 points, a draw gives both 1. A nil winnerTeamID
// means draw.
func (s *StandingsService) ApplyResult(ctx context.Context, seasonID, homeTeamID, awayTeamID uuid.UUID, winnerTeamID *uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.bookResult(tx, seasonID, homeTeamID, awayTeamID, winnerTeamID)
	})
	if err != nil {
		return err
	}
	return s.RecomputePositions(ctx, seasonID)
}

// bookResult applies both teams' counters on the caller's transaction, so
// game evaluation can commit the summary row and the booking atomically.
func (s *StandingsService) bookResult(tx *gorm.DB, seasonID, homeTeamID, awayTeamID uuid.UUID, winnerTeamID *uuid.UUID) error {
	for _, teamID := range []uuid.UUID{homeTeamID, awayTeamID} {
		var row models.Standing
		if err := tx.Where("season_id = ? AND team_id = ?", seasonID, teamID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				// Standings row missing (team joined after season
				// creation); create it on the fly.
				row = models.Standing{SeasonID: seasonID, TeamID: teamID}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			} else {
				return err
			}
		}

		row.GamesPlayed++
		switch {
		case winnerTeamID == nil:
			row.Draws++
		case *winnerTeamID == teamID:
			row.Wins++
		default:
			row.Losses++
		}
		points := row.Wins*3 + row.Draws
		row.Points = &points
		row.LastUpdated = time.Now().UTC()

		if !row.Consistent() {
			return utils.WrapKind(utils.ErrInternalServer,
				"standing for team %s in season %s is inconsistent: played=%d wins=%d draws=%d losses=%d",
				teamID, seasonID, row.GamesPlayed, row.Wins, row.Draws, row.Losses)
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// RecomputePositions reorders the season table by (points desc, goal
// difference proxy wins-losses desc, wins desc, team_id asc) and persists
// the new positions.
func (s *StandingsService) RecomputePositions(ctx context.Context, seasonID uuid.UUID) error {
	var rows []models.Standing
	if err := s.db.WithContext(ctx).
		Where("season_id = ?", seasonID).
		Find(&rows).Error; err != nil {
		return err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := rows[i].EffectivePoints(), rows[j].EffectivePoints()
		if pi != pj {
			return pi > pj
		}
		di, dj := rows[i].Wins-rows[i].Losses, rows[j].Wins-rows[j].Losses
		if di != dj {
			return di > dj
		}
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].TeamID.String() < rows[j].TeamID.String()
	})

	for i := range rows {
		position := i + 1
		if rows[i].Position == position {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.Standing{}).
			Where("id = ?", rows[i].ID).
			Update("position", position).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetStandings returns the ordered table with team details, recomputing
// points for rows where the stored column is NULL.
func (s *StandingsService) GetStandings(ctx context.Context, seasonID uuid.UUID) ([]models.StandingEntry, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Season{}).
		Where("id = ?", seasonID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, utils.WrapKind(utils.ErrNotFound, "season %s", seasonID)
	}

	var rows []models.Standing
	if err := s.db.WithContext(ctx).
		Where("season_id = ?", seasonID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]models.StandingEntry, 0, len(rows))
	for _, row := range rows {
		var team models.Team
		if err := s.db.WithContext(ctx).First(&team, "id = ?", row.TeamID).Error; err != nil {
			s.logger.WithError(err).WithField("team_id", row.TeamID).Error("Failed to load team for standings")
			continue
		}
		entries = append(entries, models.StandingEntry{
			Position:    row.Position,
			TeamID:      row.TeamID,
			TeamName:    team.Name,
			TeamColor:   team.Color,
			GamesPlayed: row.GamesPlayed,
			Wins:        row.Wins,
			Draws:       row.Draws,
			Losses:      row.Losses,
			Points:      row.EffectivePoints(),
		})
	}
	return entries, nil
}
