package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Standing is one team's row in a season table. Points may be a generated
// column in Postgres; code must tolerate it being NULL and recompute.
type Standing struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SeasonID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_standings_season_team,priority:1;index:idx_standings_season_points,priority:1" json:"season_id"`
	TeamID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_standings_season_team,priority:2" json:"team_id"`
	GamesPlayed int       `gorm:"default:0" json:"games_played"`
	Wins        int       `gorm:"default:0" json:"wins"`
	Draws       int       `gorm:"default:0" json:"draws"`
	Losses      int       `gorm:"default:0" json:"losses"`
	Points      *int      `gorm:"index:idx_standings_season_points,priority:2,sort:desc" json:"points"`
	Position    int       `gorm:"default:0" json:"position"`
	LastUpdated time.Time `json:"last_updated"`
}

func (Standing) TableName() string {
	return "standings"
}

func (s *Standing) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// EffectivePoints recomputes wins*3 + draws when the stored column is NULL.
func (s *Standing) EffectivePoints() int {
	if s.Points != nil {
		return *s.Points
	}
	return s.Wins*3 + s.Draws
}

// Consistent verifies games_played = wins + draws + losses.
func (s *Standing) Consistent() bool {
	return s.GamesPlayed == s.Wins+s.Draws+s.Losses
}

// StandingEntry is a standings row joined with team details for responses
// and standings-updated events.
type StandingEntry struct {
	Position    int       `json:"position"`
	TeamID      uuid.UUID `json:"team_id"`
	TeamName    string    `json:"team_name"`
	TeamColor   string    `json:"team_color"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Draws       int       `json:"draws"`
	Losses      int       `json:"losses"`
	Points      int       `json:"points"`
}
