package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation_PostgresError(t *testing.T) {
	err := fmt.Errorf("create workout: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key"})
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation_OtherPostgresCode(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", Message: "foreign key violation"}
	assert.False(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation_SQLiteMessage(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: workouts.workout_uuid")))
	assert.False(t, IsUniqueViolation(errors.New("no such table: workouts")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_GivesUpAfterThreeAttempts(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		return errors.New("still failing")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "still failing", err.Error())
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Retry(ctx, func() error {
		attempts++
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
