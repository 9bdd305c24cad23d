package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types on the wire. Every event serializes as UTF-8 JSON with a
// top-level event_type and timestamp.
const (
	EventWorkoutProcessed     = "workout_processed"
	EventLiveScoreUpdate      = "live_score_update"
	EventGameStarted          = "game_started"
	EventGameFinished         = "game_finished"
	EventGameSummaryCreated   = "game_summary_created"
	EventTeamStandingsUpdated = "team_standings_updated"
	EventGamesEvaluated       = "games_evaluated"
	EventWorkoutReaction      = "workout_reaction"
	EventWorkoutComment       = "workout_comment"
)

// Event is any payload that can be published on the event bus.
type Event interface {
	Type() string
}

type StatChanges struct {
	StaminaChange  int `json:"stamina_change"`
	StrengthChange int `json:"strength_change"`
}

type WorkoutProcessedEvent struct {
	EventType   string      `json:"event_type"`
	UserID      uuid.UUID   `json:"user_id"`
	Username    string      `json:"username"`
	SyncID      uuid.UUID   `json:"sync_id"`
	StatChanges StatChanges `json:"stat_changes"`
	Timestamp   time.Time   `json:"timestamp"`
}

func (e WorkoutProcessedEvent) Type() string { return EventWorkoutProcessed }

func NewWorkoutProcessedEvent(userID uuid.UUID, username string, syncID uuid.UUID, stamina, strength int) WorkoutProcessedEvent {
	return WorkoutProcessedEvent{
		EventType: EventWorkoutProcessed,
		UserID:    userID,
		Username:  username,
		SyncID:    syncID,
		StatChanges: StatChanges{
			StaminaChange:  stamina,
			StrengthChange: strength,
		},
		Timestamp: time.Now().UTC(),
	}
}

type LiveScoreUpdateEvent struct {
	EventType      string     `json:"event_type"`
	GameID         uuid.UUID  `json:"game_id"`
	HomeTeamID     uuid.UUID  `json:"home_team_id"`
	HomeTeamName   string     `json:"home_team_name"`
	AwayTeamID     uuid.UUID  `json:"away_team_id"`
	AwayTeamName   string     `json:"away_team_name"`
	HomeScore      int        `json:"home_score"`
	AwayScore      int        `json:"away_score"`
	GameProgress   float64    `json:"game_progress"`
	TimeRemaining  int64      `json:"time_remaining"`
	IsActive       bool       `json:"is_active"`
	LastScorerID   *uuid.UUID `json:"last_scorer_id,omitempty"`
	LastScorerName *string    `json:"last_scorer_name,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

func (e LiveScoreUpdateEvent) Type() string { return EventLiveScoreUpdate }

type GameStartedEvent struct {
	EventType     string    `json:"event_type"`
	GameID        uuid.UUID `json:"game_id"`
	HomeTeamID    uuid.UUID `json:"home_team_id"`
	HomeTeamName  string    `json:"home_team_name"`
	AwayTeamID    uuid.UUID `json:"away_team_id"`
	AwayTeamName  string    `json:"away_team_name"`
	GameStartTime time.Time `json:"game_start_time"`
	GameEndTime   time.Time `json:"game_end_time"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e GameStartedEvent) Type() string { return EventGameStarted }

type GameFinishedEvent struct {
	EventType    string    `json:"event_type"`
	GameID       uuid.UUID `json:"game_id"`
	HomeTeamID   uuid.UUID `json:"home_team_id"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamID   uuid.UUID `json:"away_team_id"`
	AwayTeamName string    `json:"away_team_name"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	GameEndTime  time.Time `json:"game_end_time"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e GameFinishedEvent) Type() string { return EventGameFinished }

type GameSummaryCreatedEvent struct {
	EventType      string     `json:"event_type"`
	GameID         uuid.UUID  `json:"game_id"`
	FinalHomeScore int        `json:"final_home_score"`
	FinalAwayScore int        `json:"final_away_score"`
	WinnerTeamID   *uuid.UUID `json:"winner_team_id,omitempty"`
	MVPUserID      *uuid.UUID `json:"mvp_user_id,omitempty"`
	MVPUsername    *string    `json:"mvp_username,omitempty"`
	LVPUserID      *uuid.UUID `json:"lvp_user_id,omitempty"`
	LVPUsername    *string    `json:"lvp_username,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

func (e GameSummaryCreatedEvent) Type() string { return EventGameSummaryCreated }

type TeamStandingsUpdatedEvent struct {
	EventType string          `json:"event_type"`
	SeasonID  uuid.UUID       `json:"season_id"`
	Standings []StandingEntry `json:"standings"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e TeamStandingsUpdatedEvent) Type() string { return EventTeamStandingsUpdated }

// GameEvaluationOutcome is one game's result inside a GamesEvaluatedEvent.
type GameEvaluationOutcome struct {
	GameID       uuid.UUID  `json:"game_id"`
	HomeScore    int        `json:"home_score"`
	AwayScore    int        `json:"away_score"`
	WinnerTeamID *uuid.UUID `json:"winner_team_id,omitempty"`
	Error        string     `json:"error,omitempty"`
}

type GamesEvaluatedEvent struct {
	EventType      string                  `json:"event_type"`
	Date           string                  `json:"date"` // ISO date
	GamesEvaluated int                     `json:"games_evaluated"`
	GamesFailed    int                     `json:"games_failed"`
	Results        []GameEvaluationOutcome `json:"results"`
	Timestamp      time.Time               `json:"timestamp"`
}

func (e GamesEvaluatedEvent) Type() string { return EventGamesEvaluated }

// SocialEvent covers workout reactions and comments pushed to the global
// channel. Social CRUD itself lives outside the competition engine.
type SocialEvent struct {
	EventType string    `json:"event_type"`
	WorkoutID uuid.UUID `json:"workout_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e SocialEvent) Type() string { return e.EventType }
