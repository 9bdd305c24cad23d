package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Game statuses. Transitions are monotonic along
// scheduled -> in_progress -> finished -> evaluated, with postponed as a
// side branch from scheduled.
const (
	GameStatusScheduled  = "scheduled"
	GameStatusInProgress = "in_progress"
	GameStatusFinished   = "finished"
	GameStatusEvaluated  = "evaluated"
	GameStatusPostponed  = "postponed"
)

// Team sides
const (
	TeamSideHome = "home"
	TeamSideAway = "away"
)

type Game struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SeasonID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"season_id"`
	HomeTeamID     uuid.UUID  `gorm:"type:uuid;not null" json:"home_team_id"`
	AwayTeamID     uuid.UUID  `gorm:"type:uuid;not null" json:"away_team_id"`
	WeekNumber     int        `json:"week_number"`
	IsFirstLeg     bool       `json:"is_first_leg"`
	Status         string     `gorm:"default:scheduled;index:idx_games_status_window,priority:1" json:"status"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	WeekStartDate  time.Time  `gorm:"index:idx_games_status_window,priority:2" json:"week_start_date"`
	WeekEndDate    time.Time  `gorm:"index:idx_games_status_window,priority:3" json:"week_end_date"`
	HomeScore      int        `gorm:"default:0" json:"home_score"`
	AwayScore      int        `gorm:"default:0" json:"away_score"`
	HomeScoreFinal *int       `json:"home_score_final,omitempty"`
	AwayScoreFinal *int       `json:"away_score_final,omitempty"`
	WinnerTeamID   *uuid.UUID `gorm:"type:uuid" json:"winner_team_id,omitempty"`
	GameStartTime  *time.Time `json:"game_start_time,omitempty"`
	GameEndTime    *time.Time `json:"game_end_time,omitempty"`
	LastScoreTime  *time.Time `json:"last_score_time,omitempty"`
	LastScorerID   *uuid.UUID `gorm:"type:uuid" json:"last_scorer_id,omitempty"`
	LastScorerName *string    `json:"last_scorer_name,omitempty"`
	LastScorerTeam *string    `json:"last_scorer_team,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Game) TableName() string {
	return "games"
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// TeamSideOf returns which side a team plays in this game, or "" when the
// team is not part of it.
func (g *Game) TeamSideOf(teamID uuid.UUID) string {
	switch teamID {
	case g.HomeTeamID:
		return TeamSideHome
	case g.AwayTeamID:
		return TeamSideAway
	}
	return ""
}

// Progress returns how far through its window the game is, in [0,100].
func (g *Game) Progress(now time.Time) float64 {
	if g.GameStartTime == nil || g.GameEndTime == nil {
		return 0
	}
	total := g.GameEndTime.Sub(*g.GameStartTime)
	if total <= 0 {
		return 100
	}
	progress := now.Sub(*g.GameStartTime).Seconds() / total.Seconds() * 100
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// TimeRemaining returns the seconds left in the game window, floored at zero.
func (g *Game) TimeRemaining(now time.Time) int64 {
	if g.GameEndTime == nil {
		return 0
	}
	remaining := int64(g.GameEndTime.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ScoreEvent is the append-only ledger of score contributions. Every event
// references a game that was in_progress at OccurredAt.
type ScoreEvent struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GameID         uuid.UUID `gorm:"type:uuid;not null;index:idx_score_events_game_time,priority:1" json:"game_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Username       string    `json:"username"`
	TeamID         uuid.UUID `gorm:"type:uuid;not null" json:"team_id"`
	TeamSide       string    `gorm:"not null" json:"team_side"` // home or away
	ScorePoints    int       `json:"score_points"`
	StaminaGained  int       `json:"stamina_gained"`
	StrengthGained int       `json:"strength_gained"`
	OccurredAt     time.Time `gorm:"index:idx_score_events_game_time,priority:2" json:"occurred_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ScoreEvent) TableName() string {
	return "score_events"
}

func (e *ScoreEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// GameSummary is written exactly once when a game is evaluated and is
// immutable afterwards.
type GameSummary struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GameID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"game_id"`
	FinalHomeScore int       `json:"final_home_score"`
	FinalAwayScore int       `json:"final_away_score"`
	GameStartDate  time.Time `json:"game_start_date"`
	GameEndDate    time.Time `json:"game_end_date"`

	MVPUserID            *uuid.UUID `gorm:"type:uuid" json:"mvp_user_id,omitempty"`
	MVPUsername          *string    `json:"mvp_username,omitempty"`
	MVPTeamID            *uuid.UUID `gorm:"type:uuid" json:"mvp_team_id,omitempty"`
	MVPScoreContribution *int       `json:"mvp_score_contribution,omitempty"`
	LVPUserID            *uuid.UUID `gorm:"type:uuid" json:"lvp_user_id,omitempty"`
	LVPUsername          *string    `json:"lvp_username,omitempty"`
	LVPTeamID            *uuid.UUID `gorm:"type:uuid" json:"lvp_team_id,omitempty"`
	LVPScoreContribution *int       `json:"lvp_score_contribution,omitempty"`

	HomeAvgScorePerPlayer      float64    `json:"home_avg_score_per_player"`
	HomeTotalWorkouts          int        `json:"home_total_workouts"`
	HomeTopScorerID            *uuid.UUID `gorm:"type:uuid" json:"home_top_scorer_id,omitempty"`
	HomeTopScorerUsername      *string    `json:"home_top_scorer_username,omitempty"`
	HomeTopScorerPoints        *int       `json:"home_top_scorer_points,omitempty"`
	HomeLowestPerformerID      *uuid.UUID `gorm:"type:uuid" json:"home_lowest_performer_id,omitempty"`
	HomeLowestPerformerName    *string    `json:"home_lowest_performer_username,omitempty"`
	HomeLowestPerformerPoints  *int       `json:"home_lowest_performer_points,omitempty"`
	AwayAvgScorePerPlayer      float64    `json:"away_avg_score_per_player"`
	AwayTotalWorkouts          int        `json:"away_total_workouts"`
	AwayTopScorerID            *uuid.UUID `gorm:"type:uuid" json:"away_top_scorer_id,omitempty"`
	AwayTopScorerUsername      *string    `json:"away_top_scorer_username,omitempty"`
	AwayTopScorerPoints        *int       `json:"away_top_scorer_points,omitempty"`
	AwayLowestPerformerID      *uuid.UUID `gorm:"type:uuid" json:"away_lowest_performer_id,omitempty"`
	AwayLowestPerformerName    *string    `json:"away_lowest_performer_username,omitempty"`
	AwayLowestPerformerPoints  *int       `json:"away_lowest_performer_points,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (GameSummary) TableName() string {
	return "game_summaries"
}

func (s *GameSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
