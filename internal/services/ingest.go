package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/internal/scoring"
	"github.com/fitleague/fitleague/pkg/utils"
)

// Submissions whose start and end both fall within this window of an
// existing workout are treated as duplicate recordings of the same session
// (e.g. the same workout synced from watch and phone).
const duplicateWindow = 15 * time.Second

// UploadResult is what the uploader gets back.
type UploadResult struct {
	WorkoutID   uuid.UUID     `json:"workout_id"`
	IsDuplicate bool          `json:"is_duplicate"`
	Stats       scoring.Stats `json:"stats"`
}

// WorkoutService ingests workout submissions: dedup, persist, score, then
// hand off to live-game attribution.
type WorkoutService struct {
	db          *gorm.DB
	scorer      scoring.Scorer
	attribution *AttributionService
	bus         EventPublisher
	logger      *logrus.Logger
}

func NewWorkoutService(db *gorm.DB, scorer scoring.Scorer, attribution *AttributionService, bus EventPublisher, logger *logrus.Logger) *WorkoutService {
	return &WorkoutService{
		db:          db,
		scorer:      scorer,
		attribution: attribution,
		bus:         bus,
		logger:      logger,
	}
}

// UploadWorkout runs the ingest pipeline. Dedup and insert failures surface
// to the caller; scoring, attribution, and event publishing failures do not
// roll back the insert.
func (s *WorkoutService) UploadWorkout(ctx context.Context, userID uuid.UUID, req *models.WorkoutUploadRequest) (*UploadResult, error) {
	if req.WorkoutUUID == "" {
		return nil, utils.WrapKind(utils.ErrInvalidInput, "workout_uuid is required")
	}
	if req.End.Before(req.Start) {
		return nil, utils.WrapKind(utils.ErrInvalidInput, "workout end precedes start")
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	samples := scoring.FilterSamples(req.HRSamples)
	duration := req.End.Sub(req.Start).Minutes()

	isDuplicate, err := s.checkDuplicate(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	workout := models.Workout{
		UserID:          userID,
		DeviceID:        req.DeviceID,
		WorkoutUUID:     req.WorkoutUUID,
		WorkoutStart:    req.Start,
		WorkoutEnd:      req.End,
		Calories:        req.Calories,
		HRSamples:       samples,
		DurationMinutes: duration,
		IsDuplicate:     isDuplicate,
		Visibility:      visibility,
		Metadata:        req.Metadata,
	}
	if err := s.db.WithContext(ctx).Create(&workout).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, utils.WrapKind(utils.ErrConflict, "workout %s already synced", req.WorkoutUUID)
		}
		return nil, err
	}

	result := &UploadResult{WorkoutID: workout.ID, IsDuplicate: isDuplicate}
	if isDuplicate {
		s.logger.WithFields(logrus.Fields{
			"workout_id": workout.ID,
			"user_id":    userID,
		}).Info("Workout flagged as time-window duplicate, skipping scoring")
		return result, nil
	}

	stats := s.scoreWorkout(ctx, userID, &workout, samples)
	result.Stats = stats

	// Attribution and fan-out are best-effort; the workout row stays
	// committed whatever happens downstream.
	s.attribution.Attribute(ctx, userID, workout.ID, stats)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err == nil {
		s.bus.PublishToUser(userID, models.NewWorkoutProcessedEvent(userID, user.Username, workout.ID, stats.StaminaGained, stats.StrengthGained))
	} else {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to load user for workout event")
	}

	return result, nil
}

// checkDuplicate applies the two-step dedup policy: exact workout_uuid
// collisions are conflicts, near-identical time windows with a different
// uuid are flagged duplicates.
func (s *WorkoutService) checkDuplicate(ctx context.Context, userID uuid.UUID, req *models.WorkoutUploadRequest) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id = ? AND workout_uuid = ?", userID, req.WorkoutUUID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, utils.WrapKind(utils.ErrConflict, "workout %s already synced", req.WorkoutUUID)
	}

	if err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id = ? AND workout_uuid <> ? AND is_duplicate = ?", userID, req.WorkoutUUID, false).
		Where("workout_start BETWEEN ? AND ?", req.Start.Add(-duplicateWindow), req.Start.Add(duplicateWindow)).
		Where("workout_end BETWEEN ? AND ?", req.End.Add(-duplicateWindow), req.End.Add(duplicateWindow)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// scoreWorkout invokes the scorer and persists the stats. A scoring failure
// leaves the workout with zero stats; it is still visible in history.
func (s *WorkoutService) scoreWorkout(ctx context.Context, userID uuid.UUID, workout *models.Workout, samples []models.HRSample) scoring.Stats {
	var profile models.HealthProfile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"workout_id": workout.ID,
			"user_id":    userID,
		}).Warn("No health profile, persisting workout with zero stats")
		return scoring.Stats{}
	}

	stats, err := s.scorer.Score(&profile, samples)
	if err != nil {
		s.logger.WithError(err).WithField("workout_id", workout.ID).Error("Scoring failed, persisting workout with zero stats")
		return scoring.Stats{}
	}

	if err := s.db.WithContext(ctx).Model(workout).Updates(map[string]interface{}{
		"stamina_gained":  stats.StaminaGained,
		"strength_gained": stats.StrengthGained,
		"zone_breakdown":  stats.ZoneBreakdown,
		"avg_heart_rate":  stats.AvgHeartRate,
		"max_heart_rate":  stats.MaxHeartRate,
		"min_heart_rate":  stats.MinHeartRate,
	}).Error; err != nil {
		s.logger.WithError(err).WithField("workout_id", workout.ID).Error("Failed to persist workout stats")
	}
	return stats
}

// CheckSyncStatus returns the client-side uuids that have not been synced
// yet for this user.
func (s *WorkoutService) CheckSyncStatus(ctx context.Context, userID uuid.UUID, entries []models.SyncCheckEntry) ([]string, error) {
	if len(entries) == 0 {
		return []string{}, nil
	}

	uuids := make([]string, 0, len(entries))
	for _, e := range entries {
		uuids = append(uuids, e.UUID)
	}

	var synced []string
	if err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id = ? AND workout_uuid IN ?", userID, uuids).
		Pluck("workout_uuid", &synced).Error; err != nil {
		return nil, err
	}

	syncedSet := make(map[string]bool, len(synced))
	for _, u := range synced {
		syncedSet[u] = true
	}
	unsynced := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if !syncedSet[u] {
			unsynced = append(unsynced, u)
		}
	}
	return unsynced, nil
}

// GetWorkout returns one workout. Owners always see their workouts; others
// only see public ones.
func (s *WorkoutService) GetWorkout(ctx context.Context, requesterID, workoutID uuid.UUID) (*models.Workout, error) {
	var workout models.Workout
	if err := s.db.WithContext(ctx).First(&workout, "id = ?", workoutID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.WrapKind(utils.ErrNotFound, "workout %s", workoutID)
		}
		return nil, err
	}
	if workout.UserID != requesterID && workout.Visibility != models.VisibilityPublic {
		return nil, utils.WrapKind(utils.ErrForbidden, "workout %s is not public", workoutID)
	}
	return &workout, nil
}

// GetWorkoutHistory lists a user's workouts newest first.
func (s *WorkoutService) GetWorkoutHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Workout, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var workouts []models.Workout
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("workout_start DESC").
		Limit(limit).Offset(offset).
		Find(&workouts).Error; err != nil {
		return nil, 0, err
	}
	return workouts, total, nil
}
