package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
)

func createScoredWorkout(t *testing.T, db *gorm.DB, userID uuid.UUID, workoutUUID string, start time.Time, stamina, strength int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Workout{
		UserID:         userID,
		WorkoutUUID:    workoutUUID,
		WorkoutStart:   start,
		WorkoutEnd:     start.Add(30 * time.Minute),
		StaminaGained:  stamina,
		StrengthGained: strength,
		Visibility:     models.VisibilityPublic,
	}).Error)
}

func TestTrailingAverage_SevenIdenticalDays(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db, testLogger())
	user := createTestUser(t, db, "steady")

	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		start := now.AddDate(0, 0, -i).Add(-2 * time.Hour)
		createScoredWorkout(t, db, user.ID, fmt.Sprintf("w-%d", i), start, 40, 20)
	}

	avg, err := svc.TrailingAverage(context.Background(), user.ID, now)
	require.NoError(t, err)
	// Best 5 of 7 days at 60/day, divided by 7.
	assert.InDelta(t, 300.0/7.0, avg, 0.001)
}

func TestTrailingAverage_DropsWorstTwoDays(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db, testLogger())
	user := createTestUser(t, db, "spiky")

	now := time.Now().UTC()
	totals := []int{100, 80, 60, 40, 20, 10, 5}
	for i, total := range totals {
		start := now.AddDate(0, 0, -i).Add(-2 * time.Hour)
		createScoredWorkout(t, db, user.ID, fmt.Sprintf("w-%d", i), start, total, 0)
	}

	avg, err := svc.TrailingAverage(context.Background(), user.ID, now)
	require.NoError(t, err)
	// Drops the 10 and 5 days: (100+80+60+40+20)/7
	assert.InDelta(t, 300.0/7.0, avg, 0.001)
}

func TestTrailingAverage_MissingDaysCountAsZero(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db, testLogger())
	user := createTestUser(t, db, "occasional")

	now := time.Now().UTC()
	// Only 3 active days; the 4 empty days include the two dropped ones.
	for i := 0; i < 3; i++ {
		start := now.AddDate(0, 0, -i).Add(-2 * time.Hour)
		createScoredWorkout(t, db, user.ID, fmt.Sprintf("w-%d", i), start, 70, 0)
	}

	avg, err := svc.TrailingAverage(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.InDelta(t, 210.0/7.0, avg, 0.001)
}

func TestTrailingAverage_IgnoresDuplicatesAndOldWorkouts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db, testLogger())
	user := createTestUser(t, db, "mixed")

	now := time.Now().UTC()
	createScoredWorkout(t, db, user.ID, "recent", now.Add(-2*time.Hour), 50, 0)
	// Outside the 7-day window
	createScoredWorkout(t, db, user.ID, "old", now.AddDate(0, 0, -10), 500, 0)
	// Duplicate flagged
	require.NoError(t, db.Create(&models.Workout{
		UserID:        user.ID,
		WorkoutUUID:   "dup",
		WorkoutStart:  now.Add(-3 * time.Hour),
		WorkoutEnd:    now.Add(-2 * time.Hour),
		StaminaGained: 500,
		IsDuplicate:   true,
		Visibility:    models.VisibilityPublic,
	}).Error)

	avg, err := svc.TrailingAverage(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.InDelta(t, 50.0/7.0, avg, 0.001)
}

func TestGetLeaderboard_RanksByTrailingAverage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db, testLogger())
	strong := createTestUser(t, db, "strong")
	weak := createTestUser(t, db, "weak")

	now := time.Now().UTC()
	createScoredWorkout(t, db, strong.ID, "s-1", now.Add(-2*time.Hour), 100, 0)
	createScoredWorkout(t, db, weak.ID, "w-1", now.Add(-2*time.Hour), 10, 0)

	entries, err := svc.GetLeaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "strong", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "weak", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Greater(t, entries[0].TrailingAverage, entries[1].TrailingAverage)
}
