package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
)

func createRawWorkout(t *testing.T, db *gorm.DB, w *models.Workout) *models.Workout {
	t.Helper()
	require.NoError(t, db.Create(w).Error)
	return w
}

func TestCleanupUserDuplicates_KeepsHighestCalories(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCleanupService(db, testLogger())
	user := createTestUser(t, db, "athlete")

	start := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	end := start.Add(30 * time.Minute)
	loser := createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "a", WorkoutStart: start, WorkoutEnd: end, Calories: 200,
	})
	keeper := createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "b", WorkoutStart: start, WorkoutEnd: end, Calories: 350,
	})

	deleted, err := svc.CleanupUserDuplicates(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	var remaining []models.Workout
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, keeper.ID, remaining[0].ID)
	assert.NotEqual(t, loser.ID, remaining[0].ID)
}

func TestCleanupUserDuplicates_CaloriesTieKeepsOldest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCleanupService(db, testLogger())
	user := createTestUser(t, db, "athlete")

	start := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	end := start.Add(30 * time.Minute)
	oldest := createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "a", WorkoutStart: start, WorkoutEnd: end,
		Calories: 200, CreatedAt: time.Now().UTC().Add(-time.Hour),
	})
	createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "b", WorkoutStart: start, WorkoutEnd: end,
		Calories: 200, CreatedAt: time.Now().UTC(),
	})

	deleted, err := svc.CleanupUserDuplicates(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	var remaining models.Workout
	require.NoError(t, db.First(&remaining, "user_id = ?", user.ID).Error)
	assert.Equal(t, oldest.ID, remaining.ID)
}

func TestCleanupUserDuplicates_OverlapWithoutEqualWindowSurvives(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCleanupService(db, testLogger())
	user := createTestUser(t, db, "athlete")

	start := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	// Overlapping but not identical windows: both stay.
	createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "a", WorkoutStart: start, WorkoutEnd: start.Add(30 * time.Minute),
	})
	createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "b", WorkoutStart: start.Add(10 * time.Minute), WorkoutEnd: start.Add(40 * time.Minute),
	})

	deleted, err := svc.CleanupUserDuplicates(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	var count int64
	require.NoError(t, db.Model(&models.Workout{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCleanupUserDuplicates_DisjointWindowsUntouched(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCleanupService(db, testLogger())
	user := createTestUser(t, db, "athlete")

	start := time.Now().UTC().Add(-4 * time.Hour).Truncate(time.Second)
	createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "a", WorkoutStart: start, WorkoutEnd: start.Add(30 * time.Minute),
	})
	createRawWorkout(t, db, &models.Workout{
		UserID: user.ID, WorkoutUUID: "b", WorkoutStart: start.Add(2 * time.Hour), WorkoutEnd: start.Add(150 * time.Minute),
	})

	deleted, err := svc.CleanupUserDuplicates(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRun_SweepsAllUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCleanupService(db, testLogger())
	u1 := createTestUser(t, db, "u1")
	u2 := createTestUser(t, db, "u2")

	start := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	end := start.Add(30 * time.Minute)
	for _, u := range []*models.User{u1, u2} {
		createRawWorkout(t, db, &models.Workout{UserID: u.ID, WorkoutUUID: "a", WorkoutStart: start, WorkoutEnd: end, Calories: 100})
		createRawWorkout(t, db, &models.Workout{UserID: u.ID, WorkoutUUID: "b", WorkoutStart: start, WorkoutEnd: end, Calories: 50})
	}

	deleted, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}
