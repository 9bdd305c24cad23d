package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
)

// CleanupService removes duplicate workout recordings offline. Uploads only
// flag duplicates; this job deletes redundant rows that slipped through
// (e.g. the same session synced from two devices before either committed).
type CleanupService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewCleanupService(db *gorm.DB, logger *logrus.Logger) *CleanupService {
	return &CleanupService{db: db, logger: logger}
}

// Run cleans duplicates for every user that has workouts. Per-user failures
// are logged and do not stop the sweep.
func (s *CleanupService) Run(ctx context.Context) (int, error) {
	var userIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, err
	}

	deleted := 0
	for _, userID := range userIDs {
		n, err := s.CleanupUserDuplicates(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Duplicate cleanup failed for user")
			continue
		}
		deleted += n
	}
	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("Duplicate workout cleanup completed")
	}
	return deleted, nil
}

// CleanupUserDuplicates groups a user's workouts into connected components
// of overlapping [start, end] intervals. Inside a component, rows with
// exactly equal (start, end) are duplicates: the one with the highest
// calories survives, ties broken by earliest created_at.
func (s *CleanupService) CleanupUserDuplicates(ctx context.Context, userID uuid.UUID) (int, error) {
	var workouts []models.Workout
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("workout_start ASC, created_at ASC").
		Find(&workouts).Error; err != nil {
		return 0, err
	}
	if len(workouts) < 2 {
		return 0, nil
	}

	deleted := 0
	for _, component := range overlapComponents(workouts) {
		victims := duplicatesIn(component)
		for _, id := range victims {
			if err := s.db.WithContext(ctx).Delete(&models.Workout{}, "id = ?", id).Error; err != nil {
				s.logger.WithError(err).WithField("workout_id", id).Error("Failed to delete duplicate workout")
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

// overlapComponents sweeps start-sorted workouts into groups of mutually
// reachable overlapping intervals.
func overlapComponents(sorted []models.Workout) [][]models.Workout {
	var components [][]models.Workout
	current := []models.Workout{sorted[0]}
	reach := sorted[0].WorkoutEnd
	for _, w := range sorted[1:] {
		if !w.WorkoutStart.After(reach) {
			current = append(current, w)
			if w.WorkoutEnd.After(reach) {
				reach = w.WorkoutEnd
			}
			continue
		}
		components = append(components, current)
		current = []models.Workout{w}
		reach = w.WorkoutEnd
	}
	return append(components, current)
}

// duplicatesIn returns the ids to delete within one overlap component.
func duplicatesIn(component []models.Workout) []uuid.UUID {
	type window struct {
		start time.Time
		end   time.Time
	}
	groups := make(map[window][]models.Workout)
	for _, w := range component {
		key := window{start: w.WorkoutStart.UTC(), end: w.WorkoutEnd.UTC()}
		groups[key] = append(groups[key], w)
	}

	var victims []uuid.UUID
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Calories != group[j].Calories {
				return group[i].Calories > group[j].Calories
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		for _, w := range group[1:] {
			victims = append(victims, w.ID)
		}
	}
	return victims
}
