package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User account statuses
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
	UserStatusBanned    = "banned"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"default:user" json:"role"`
	Status       string    `gorm:"default:active" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HealthProfile carries the physiological inputs for workout scoring.
// Stored zone thresholds, when present, take precedence over recomputing
// from heart-rate reserve so historic workouts stay comparable across
// formula changes.
type HealthProfile struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Age           int       `json:"age"`
	Gender        string    `gorm:"default:other" json:"gender"` // male, female, other
	RestingHR     int       `gorm:"column:resting_hr" json:"resting_hr"`
	MaxHR         int       `gorm:"column:max_hr" json:"max_hr"`
	Zone1Max      *int      `json:"zone_1_max,omitempty"`
	Zone2Max      *int      `json:"zone_2_max,omitempty"`
	Zone3Max      *int      `json:"zone_3_max,omitempty"`
	Zone4Max      *int      `json:"zone_4_max,omitempty"`
	Zone5Max      *int      `json:"zone_5_max,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (HealthProfile) TableName() string {
	return "health_profiles"
}

func (p *HealthProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasStoredZones reports whether all five zone ceilings were persisted.
func (p *HealthProfile) HasStoredZones() bool {
	return p.Zone1Max != nil && p.Zone2Max != nil && p.Zone3Max != nil &&
		p.Zone4Max != nil && p.Zone5Max != nil
}

// Validate enforces the profile invariants before scoring.
func (p *HealthProfile) Validate() error {
	if p.Age < 10 || p.Age > 120 {
		return ErrInvalidProfile("age must be between 10 and 120")
	}
	if p.RestingHR < 30 || p.RestingHR > 120 {
		return ErrInvalidProfile("resting heart rate must be between 30 and 120")
	}
	if p.MaxHR <= p.RestingHR {
		return ErrInvalidProfile("max heart rate must exceed resting heart rate")
	}
	return nil
}

type profileError string

func (e profileError) Error() string { return string(e) }

func ErrInvalidProfile(msg string) error { return profileError(msg) }

// PlayerPool tracks active users that are not currently on any active team.
type PlayerPool struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PlayerPool) TableName() string {
	return "player_pool"
}

func (p *PlayerPool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
