package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Workout visibility
const (
	VisibilityPublic  = "public"
	VisibilityTeam    = "team"
	VisibilityPrivate = "private"
)

type Workout struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID     `gorm:"type:uuid;not null;index:idx_workouts_user_start,priority:1;uniqueIndex:idx_workouts_user_uuid,priority:1" json:"user_id"`
	DeviceID        string        `json:"device_id"`
	WorkoutUUID     string        `gorm:"uniqueIndex:idx_workouts_user_uuid,priority:2;not null" json:"workout_uuid"`
	WorkoutStart    time.Time     `gorm:"index:idx_workouts_user_start,priority:2" json:"workout_start"`
	WorkoutEnd      time.Time     `json:"workout_end"`
	Calories        int           `json:"calories"`
	HRSamples       HRSamples     `gorm:"type:jsonb" json:"hr_samples,omitempty"`
	DurationMinutes float64       `json:"duration_minutes"`
	StaminaGained   int           `json:"stamina_gained"`
	StrengthGained  int           `json:"strength_gained"`
	ZoneBreakdown   ZoneBreakdown `gorm:"type:jsonb" json:"zone_breakdown,omitempty"`
	AvgHeartRate    int           `json:"avg_heart_rate"`
	MaxHeartRate    int           `json:"max_heart_rate"`
	MinHeartRate    int           `json:"min_heart_rate"`
	IsDuplicate     bool          `gorm:"default:false" json:"is_duplicate"`
	Visibility      string        `gorm:"default:public" json:"visibility"`
	Metadata        datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (Workout) TableName() string {
	return "workouts"
}

func (w *Workout) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TotalPoints is the score contribution of the workout.
func (w *Workout) TotalPoints() int {
	return w.StaminaGained + w.StrengthGained
}

// HRSample is a single heart-rate reading.
type HRSample struct {
	Timestamp time.Time `json:"timestamp"`
	BPM       int       `json:"bpm"`
}

// HRSamples stores the raw sample series as a JSON column.
type HRSamples []HRSample

func (s *HRSamples) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("cannot scan %T into HRSamples", value)
		}
	}
	return json.Unmarshal(bytes, s)
}

func (s HRSamples) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// ZoneMinutes is the per-zone slice of a workout's zone breakdown.
type ZoneMinutes struct {
	Zone           string  `json:"zone"`
	Minutes        float64 `json:"minutes"`
	StaminaGained  int     `json:"stamina_gained"`
	StrengthGained int     `json:"strength_gained"`
	HRMin          int     `json:"hr_min"`
	HRMax          int     `json:"hr_max"`
}

// ZoneBreakdown records the time and gains per heart-rate zone.
type ZoneBreakdown []ZoneMinutes

func (zb *ZoneBreakdown) Scan(value interface{}) error {
	if value == nil {
		*zb = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("cannot scan %T into ZoneBreakdown", value)
		}
	}
	return json.Unmarshal(bytes, zb)
}

func (zb ZoneBreakdown) Value() (driver.Value, error) {
	if zb == nil {
		return nil, nil
	}
	return json.Marshal(zb)
}

// TotalMinutes sums the minutes across all zones.
func (zb ZoneBreakdown) TotalMinutes() float64 {
	var total float64
	for _, z := range zb {
		total += z.Minutes
	}
	return total
}

// WorkoutUploadRequest is the client submission for a workout sync.
// Metadata is stored verbatim; clients use it for device details the server
// does not interpret.
type WorkoutUploadRequest struct {
	DeviceID    string         `json:"device_id"`
	WorkoutUUID string         `json:"workout_uuid" binding:"required"`
	Start       time.Time      `json:"start" binding:"required"`
	End         time.Time      `json:"end" binding:"required"`
	Calories    int            `json:"calories"`
	HRSamples   []HRSample     `json:"hr_samples"`
	Visibility  string         `json:"visibility"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

// SyncCheckEntry identifies one client-side workout in a sync status check.
type SyncCheckEntry struct {
	UUID     string    `json:"uuid" binding:"required"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Calories int       `json:"calories"`
}
