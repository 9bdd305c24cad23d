package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
)

// PlayerPoolService maintains the pool of active users that are not on any
// active team, so team owners can find free agents.
type PlayerPoolService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewPlayerPoolService(db *gorm.DB, logger *logrus.Logger) *PlayerPoolService {
	return &PlayerPoolService{db: db, logger: logger}
}

// RefreshUser reconciles one user's pool row against their memberships.
func (s *PlayerPoolService) RefreshUser(ctx context.Context, userID uuid.UUID) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return s.db.WithContext(ctx).Delete(&models.PlayerPool{}, "user_id = ?", userID).Error
		}
		return err
	}

	var memberships int64
	if err := s.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("user_id = ? AND status = ?", userID, models.MemberStatusActive).
		Count(&memberships).Error; err != nil {
		return err
	}

	if !user.IsActive() || memberships > 0 {
		return s.db.WithContext(ctx).Delete(&models.PlayerPool{}, "user_id = ?", userID).Error
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.PlayerPool{}).
		Where("user_id = ?", userID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return s.db.WithContext(ctx).Model(&models.PlayerPool{}).
			Where("user_id = ?", userID).
			Update("last_active_at", time.Now().UTC()).Error
	}
	return s.db.WithContext(ctx).Create(&models.PlayerPool{
		UserID:       userID,
		LastActiveAt: time.Now().UTC(),
	}).Error
}

// Refresh reconciles the whole pool. Used at startup and by the periodic
// cleanup sweep; per-user failures are logged and skipped.
func (s *PlayerPoolService) Refresh(ctx context.Context) error {
	var userIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Pluck("id", &userIDs).Error; err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.RefreshUser(ctx, userID); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Failed to refresh player pool entry")
		}
	}
	// Rows for users that no longer exist.
	return s.db.WithContext(ctx).
		Where("user_id NOT IN (?)", s.db.Model(&models.User{}).Select("id")).
		Delete(&models.PlayerPool{}).Error
}

// List returns the pool ordered by most recently active.
func (s *PlayerPoolService) List(ctx context.Context, limit int) ([]models.PlayerPool, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var pool []models.PlayerPool
	if err := s.db.WithContext(ctx).
		Order("last_active_at DESC").
		Limit(limit).
		Find(&pool).Error; err != nil {
		return nil, err
	}
	return pool, nil
}
