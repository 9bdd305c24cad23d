package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/internal/scoring"
)

type attributionFixture struct {
	db     *gorm.DB
	bus    *fakeBus
	svc    *AttributionService
	user   *models.User
	league *models.League
	teamA  *models.Team
	teamB  *models.Team
	game   *models.Game
}

func setupAttribution(t *testing.T) *attributionFixture {
	t.Helper()
	db := setupTestDB(t)
	bus := newFakeBus()

	league := &models.League{Name: "Test League"}
	require.NoError(t, db.Create(league).Error)

	user := createTestUser(t, db, "athlete")
	ownerB := createTestUser(t, db, "captain-b")
	teamA := createTestTeam(t, db, league.ID, user.ID, "Team A")
	teamB := createTestTeam(t, db, league.ID, ownerB.ID, "Team B")

	season := &models.Season{LeagueID: league.ID, Name: "S1", StartDate: time.Now().UTC(), IsActive: true}
	require.NoError(t, db.Create(season).Error)

	game := createLiveGame(t, db, season.ID, teamA.ID, teamB.ID)

	return &attributionFixture{
		db:     db,
		bus:    bus,
		svc:    NewAttributionService(db, bus, testLogger()),
		user:   user,
		league: league,
		teamA:  teamA,
		teamB:  teamB,
		game:   game,
	}
}

func TestAttribute_CreditsLiveGame(t *testing.T) {
	f := setupAttribution(t)

	stats := scoring.Stats{StaminaGained: 10, StrengthGained: 6}
	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), stats)

	var game models.Game
	require.NoError(t, f.db.First(&game, "id = ?", f.game.ID).Error)
	assert.Equal(t, 16, game.HomeScore)
	assert.Equal(t, 0, game.AwayScore)
	require.NotNil(t, game.LastScorerID)
	assert.Equal(t, f.user.ID, *game.LastScorerID)
	require.NotNil(t, game.LastScorerName)
	assert.Equal(t, "athlete", *game.LastScorerName)

	var events []models.ScoreEvent
	require.NoError(t, f.db.Where("game_id = ?", f.game.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.TeamSideHome, events[0].TeamSide)
	assert.Equal(t, 16, events[0].ScorePoints)
	assert.Equal(t, f.teamA.ID, events[0].TeamID)

	updates := f.bus.globalOfType(models.EventLiveScoreUpdate)
	require.Len(t, updates, 1)
	update := updates[0].(models.LiveScoreUpdateEvent)
	assert.Equal(t, 16, update.HomeScore)
	assert.Equal(t, "Team A", update.HomeTeamName)
	assert.True(t, update.IsActive)
	assert.GreaterOrEqual(t, update.GameProgress, 0.0)
	assert.LessOrEqual(t, update.GameProgress, 100.0)
}

func TestAttribute_AwaySide(t *testing.T) {
	f := setupAttribution(t)

	awayPlayer := createTestUser(t, f.db, "away-athlete")
	addTeamMember(t, f.db, f.teamB.ID, awayPlayer.ID)

	f.svc.Attribute(context.Background(), awayPlayer.ID, uuid.New(), scoring.Stats{StaminaGained: 7})

	var game models.Game
	require.NoError(t, f.db.First(&game, "id = ?", f.game.ID).Error)
	assert.Equal(t, 0, game.HomeScore)
	assert.Equal(t, 7, game.AwayScore)
}

func TestAttribute_ConcurrentIncrementsAccumulate(t *testing.T) {
	f := setupAttribution(t)

	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{StaminaGained: 10})
	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{StaminaGained: 5, StrengthGained: 1})

	var game models.Game
	require.NoError(t, f.db.First(&game, "id = ?", f.game.ID).Error)
	assert.Equal(t, 16, game.HomeScore)

	// Ledger invariant: aggregate equals the sum of score events.
	var events []models.ScoreEvent
	require.NoError(t, f.db.Where("game_id = ? AND team_side = ?", f.game.ID, models.TeamSideHome).Find(&events).Error)
	sum := 0
	for _, e := range events {
		sum += e.ScorePoints
	}
	assert.Equal(t, game.HomeScore, sum)
}

func TestAttribute_NoLiveGameIsNoop(t *testing.T) {
	f := setupAttribution(t)
	require.NoError(t, f.db.Model(&models.Game{}).
		Where("id = ?", f.game.ID).
		Update("status", models.GameStatusFinished).Error)

	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{StaminaGained: 10})

	var count int64
	require.NoError(t, f.db.Model(&models.ScoreEvent{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.bus.globalOfType(models.EventLiveScoreUpdate))
}

func TestAttribute_ZeroPointsSkipped(t *testing.T) {
	f := setupAttribution(t)

	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{})

	var count int64
	require.NoError(t, f.db.Model(&models.ScoreEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAttribute_InactiveMembershipSkipped(t *testing.T) {
	f := setupAttribution(t)
	require.NoError(t, f.db.Model(&models.TeamMember{}).
		Where("user_id = ?", f.user.ID).
		Update("status", models.MemberStatusInactive).Error)

	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{StaminaGained: 10})

	var game models.Game
	require.NoError(t, f.db.First(&game, "id = ?", f.game.ID).Error)
	assert.Zero(t, game.HomeScore)
}

func TestAttribute_RetriesTransientScoreUpdate(t *testing.T) {
	f := setupAttribution(t)

	// Fail the first two UPDATEs; the contribution must still land.
	failures := 2
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").
		Register("transient_update_failure", func(tx *gorm.DB) {
			if failures > 0 {
				failures--
				_ = tx.AddError(errors.New("database is locked"))
			}
		}))
	defer func() {
		require.NoError(t, f.db.Callback().Update().Remove("transient_update_failure"))
	}()

	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{StaminaGained: 10})

	assert.Zero(t, failures)
	var game models.Game
	require.NoError(t, f.db.First(&game, "id = ?", f.game.ID).Error)
	assert.Equal(t, 10, game.HomeScore)
	require.Len(t, f.bus.globalOfType(models.EventLiveScoreUpdate), 1)
}

func TestAttribute_MultipleSimultaneousGames(t *testing.T) {
	f := setupAttribution(t)

	// Same user's team also plays in a second season's live game.
	season2 := &models.Season{LeagueID: f.league.ID, Name: "S2", StartDate: time.Now().UTC(), IsActive: false}
	require.NoError(t, f.db.Create(season2).Error)
	game2 := createLiveGame(t, f.db, season2.ID, f.teamB.ID, f.teamA.ID)

	f.svc.Attribute(context.Background(), f.user.ID, uuid.New(), scoring.Stats{StaminaGained: 4})

	var g1, g2 models.Game
	require.NoError(t, f.db.First(&g1, "id = ?", f.game.ID).Error)
	require.NoError(t, f.db.First(&g2, "id = ?", game2.ID).Error)
	assert.Equal(t, 4, g1.HomeScore)
	assert.Equal(t, 4, g2.AwayScore) // team A is away in the second game
}
