package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type League struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (League) TableName() string {
	return "leagues"
}

func (l *League) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Season is a scheduled competition window inside a league. The full game
// schedule is generated atomically when the season is created.
type Season struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LeagueID              uuid.UUID `gorm:"type:uuid;not null;index" json:"league_id"`
	Name                  string    `gorm:"not null" json:"name"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"` // derived from schedule length
	GameDurationMinutes   int       `gorm:"default:8640" json:"game_duration_minutes"`
	EvaluationCron        string    `json:"evaluation_cron"`
	EvaluationTimezone    string    `gorm:"default:UTC" json:"evaluation_timezone"`
	AutoEvaluationEnabled bool      `gorm:"default:true" json:"auto_evaluation_enabled"`
	IsActive              bool      `gorm:"default:true" json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Season) TableName() string {
	return "seasons"
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Season) GameDuration() time.Duration {
	return time.Duration(s.GameDurationMinutes) * time.Minute
}

type Team struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Color       string    `json:"color"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null" json:"owner_user_id"`
	LeagueID    uuid.UUID `gorm:"type:uuid;index" json:"league_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Team member roles
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// Team member statuses
const (
	MemberStatusActive   = "active"
	MemberStatusPending  = "pending"
	MemberStatusInactive = "inactive"
)

type TeamMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_members_team_user,priority:1" json:"team_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_members_team_user,priority:2;index" json:"user_id"`
	Role     string    `gorm:"default:member" json:"role"`
	Status   string    `gorm:"default:pending" json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
