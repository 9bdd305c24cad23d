package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fitleague/fitleague/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.HealthProfile{},
		&models.PlayerPool{},
		&models.Workout{},
		&models.League{},
		&models.Season{},
		&models.Team{},
		&models.TeamMember{},
		&models.Game{},
		&models.ScoreEvent{},
		&models.GameSummary{},
		&models.Standing{},
	))
	return db
}

// fakeBus records published events for assertions.
type fakeBus struct {
	mu         sync.Mutex
	global     []models.Event
	userEvents map[uuid.UUID][]models.Event
}

func newFakeBus() *fakeBus {
	return &fakeBus{userEvents: make(map[uuid.UUID][]models.Event)}
}

func (b *fakeBus) PublishGlobal(event models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.global = append(b.global, event)
}

func (b *fakeBus) PublishToUser(userID uuid.UUID, event models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.global = append(b.global, event)
	b.userEvents[userID] = append(b.userEvents[userID], event)
}

func (b *fakeBus) globalOfType(eventType string) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []models.Event
	for _, e := range b.global {
		if e.Type() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProfile(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.HealthProfile {
	t.Helper()
	profile := &models.HealthProfile{
		UserID:    userID,
		Age:       30,
		RestingHR: 60,
		MaxHR:     190,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func createTestTeam(t *testing.T, db *gorm.DB, leagueID, ownerID uuid.UUID, name string) *models.Team {
	t.Helper()
	team := &models.Team{
		Name:        name,
		Color:       "#ff0000",
		OwnerUserID: ownerID,
		LeagueID:    leagueID,
	}
	require.NoError(t, db.Create(team).Error)
	require.NoError(t, db.Create(&models.TeamMember{
		TeamID:   team.ID,
		UserID:   ownerID,
		Role:     models.MemberRoleOwner,
		Status:   models.MemberStatusActive,
		JoinedAt: time.Now().UTC(),
	}).Error)
	return team
}

func addTeamMember(t *testing.T, db *gorm.DB, teamID, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Create(&models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     models.MemberRoleMember,
		Status:   models.MemberStatusActive,
		JoinedAt: time.Now().UTC(),
	}).Error)
}

func createLiveGame(t *testing.T, db *gorm.DB, seasonID, homeTeamID, awayTeamID uuid.UUID) *models.Game {
	t.Helper()
	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	game := &models.Game{
		SeasonID:      seasonID,
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		WeekNumber:    1,
		IsFirstLeg:    true,
		Status:        models.GameStatusInProgress,
		ScheduledTime: start,
		WeekStartDate: start,
		WeekEndDate:   end,
		GameStartTime: &start,
		GameEndTime:   &end,
	}
	require.NoError(t, db.Create(game).Error)
	return game
}
