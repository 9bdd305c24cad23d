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

const trailingWindowDays = 7

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank            int       `json:"rank"`
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	TrailingAverage float64   `json:"trailing_average"`
	WorkoutCount    int       `json:"workout_count"`
}

// LeaderboardService ranks users by their trailing average: the best 5 of
// the last 7 daily score totals, divided by 7. Dropping the two worst days
// keeps a rest day or two from sinking an otherwise active week.
type LeaderboardService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewLeaderboardService(db *gorm.DB, logger *logrus.Logger) *LeaderboardService {
	return &LeaderboardService{db: db, logger: logger}
}

// TrailingAverage computes the ranking metric for one user at the given
// reference time. Days without workouts count as zero and are the first to
// be dropped.
func (s *LeaderboardService) TrailingAverage(ctx context.Context, userID uuid.UUID, now time.Time) (float64, error) {
	daily, _, err := s.dailyTotals(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	sort.Sort(sort.Reverse(sort.IntSlice(daily)))
	best := daily[:trailingWindowDays-2]
	sum := 0
	for _, v := range best {
		sum += v
	}
	return float64(sum) / float64(trailingWindowDays), nil
}

// dailyTotals buckets the user's last 7 days of non-duplicate workouts into
// per-day (stamina+strength) sums, oldest day first.
func (s *LeaderboardService) dailyTotals(ctx context.Context, userID uuid.UUID, now time.Time) ([]int, int, error) {
	now = now.UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := todayStart.AddDate(0, 0, -(trailingWindowDays - 1))

	var workouts []models.Workout
	if err := s.db.WithContext(ctx).
		Select("workout_start", "stamina_gained", "strength_gained").
		Where("user_id = ? AND is_duplicate = ?", userID, false).
		Where("workout_start >= ? AND workout_start < ?", windowStart, todayStart.Add(24*time.Hour)).
		Find(&workouts).Error; err != nil {
		return nil, 0, err
	}

	daily := make([]int, trailingWindowDays)
	for _, w := range workouts {
		day := int(w.WorkoutStart.UTC().Sub(windowStart).Hours() / 24)
		if day < 0 || day >= trailingWindowDays {
			continue
		}
		daily[day] += w.StaminaGained + w.StrengthGained
	}
	return daily, len(workouts), nil
}

// GetLeaderboard ranks all active users by trailing average, descending.
// Username ties break alphabetically so the order is stable.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.UserStatusActive).
		Find(&users).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		daily, count, err := s.dailyTotals(ctx, user.ID, now)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to compute trailing average")
			continue
		}
		sort.Sort(sort.Reverse(sort.IntSlice(daily)))
		sum := 0
		for _, v := range daily[:trailingWindowDays-2] {
			sum += v
		}
		entries = append(entries, LeaderboardEntry{
			UserID:          user.ID,
			Username:        user.Username,
			TrailingAverage: float64(sum) / float64(trailingWindowDays),
			WorkoutCount:    count,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TrailingAverage != entries[j].TrailingAverage {
			return entries[i].TrailingAverage > entries[j].TrailingAverage
		}
		return entries[i].Username < entries[j].Username
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
