package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
)

type schedulerFixture struct {
	db     *gorm.DB
	bus    *fakeBus
	svc    *GameScheduler
	season *models.Season
	teamA  *models.Team
	teamB  *models.Team
}

func setupScheduler(t *testing.T) *schedulerFixture {
	t.Helper()
	db := setupTestDB(t)
	bus := newFakeBus()
	logger := testLogger()
	standings := NewStandingsService(db, logger)
	evaluator := NewEvaluationService(db, standings, bus, logger)
	svc := NewGameScheduler(db, evaluator, bus, time.Second, logger)

	league := &models.League{Name: "League"}
	require.NoError(t, db.Create(league).Error)
	owner1 := createTestUser(t, db, "owner1")
	owner2 := createTestUser(t, db, "owner2")
	teamA := createTestTeam(t, db, league.ID, owner1.ID, "Team A")
	teamB := createTestTeam(t, db, league.ID, owner2.ID, "Team B")

	season := &models.Season{LeagueID: league.ID, Name: "S1", StartDate: time.Now().UTC(), IsActive: true}
	require.NoError(t, db.Create(season).Error)
	require.NoError(t, standings.InitStandings(db, season.ID, []uuid.UUID{teamA.ID, teamB.ID}))

	return &schedulerFixture{db: db, bus: bus, svc: svc, season: season, teamA: teamA, teamB: teamB}
}

func (f *schedulerFixture) createScheduledGame(t *testing.T, weekStart, weekEnd time.Time) *models.Game {
	t.Helper()
	game := &models.Game{
		SeasonID:      f.season.ID,
		HomeTeamID:    f.teamA.ID,
		AwayTeamID:    f.teamB.ID,
		WeekNumber:    1,
		IsFirstLeg:    true,
		Status:        models.GameStatusScheduled,
		ScheduledTime: weekStart,
		WeekStartDate: weekStart,
		WeekEndDate:   weekEnd,
	}
	require.NoError(t, f.db.Create(game).Error)
	return game
}

func TestTick_StartsDueGames(t *testing.T) {
	f := setupScheduler(t)
	now := time.Now().UTC()
	game := f.createScheduledGame(t, now.Add(-time.Minute), now.Add(time.Hour))

	result := f.svc.Tick(context.Background())
	require.Empty(t, result.Errors)
	require.Len(t, result.Started, 1)

	var updated models.Game
	require.NoError(t, f.db.First(&updated, "id = ?", game.ID).Error)
	assert.Equal(t, models.GameStatusInProgress, updated.Status)
	require.NotNil(t, updated.GameStartTime)
	require.NotNil(t, updated.GameEndTime)
	assert.Zero(t, updated.HomeScore)

	started := f.bus.globalOfType(models.EventGameStarted)
	require.Len(t, started, 1)
	event := started[0].(models.GameStartedEvent)
	assert.Equal(t, "Team A", event.HomeTeamName)
}

func TestTick_StartIsIdempotent(t *testing.T) {
	f := setupScheduler(t)
	now := time.Now().UTC()
	f.createScheduledGame(t, now.Add(-time.Minute), now.Add(time.Hour))

	first := f.svc.Tick(context.Background())
	require.Len(t, first.Started, 1)

	second := f.svc.Tick(context.Background())
	assert.Empty(t, second.Started)
	assert.Len(t, f.bus.globalOfType(models.EventGameStarted), 1)
}

func TestTick_FutureGamesNotStarted(t *testing.T) {
	f := setupScheduler(t)
	now := time.Now().UTC()
	f.createScheduledGame(t, now.Add(time.Hour), now.Add(2*time.Hour))

	result := f.svc.Tick(context.Background())
	assert.Empty(t, result.Started)
}

func TestTick_FinishesAndEvaluatesExpiredGames(t *testing.T) {
	f := setupScheduler(t)
	now := time.Now().UTC()
	start := now.Add(-2 * time.Hour)
	end := now.Add(-time.Minute)
	game := &models.Game{
		SeasonID:      f.season.ID,
		HomeTeamID:    f.teamA.ID,
		AwayTeamID:    f.teamB.ID,
		Status:        models.GameStatusInProgress,
		WeekStartDate: start,
		WeekEndDate:   end,
		GameStartTime: &start,
		GameEndTime:   &end,
	}
	require.NoError(t, f.db.Create(game).Error)

	result := f.svc.Tick(context.Background())
	require.Empty(t, result.Errors)
	require.Len(t, result.Finished, 1)
	assert.Equal(t, 1, result.Evaluated)

	var updated models.Game
	require.NoError(t, f.db.First(&updated, "id = ?", game.ID).Error)
	assert.Equal(t, models.GameStatusEvaluated, updated.Status)

	assert.Len(t, f.bus.globalOfType(models.EventGameFinished), 1)
	assert.Len(t, f.bus.globalOfType(models.EventGameSummaryCreated), 1)
}

func TestTick_FullLifecycle(t *testing.T) {
	f := setupScheduler(t)
	now := time.Now().UTC()
	game := f.createScheduledGame(t, now.Add(-time.Hour), now.Add(200*time.Millisecond))

	first := f.svc.Tick(context.Background())
	require.Len(t, first.Started, 1)

	// Let the window lapse, then the next tick finishes and evaluates.
	time.Sleep(300 * time.Millisecond)
	second := f.svc.Tick(context.Background())
	require.Len(t, second.Finished, 1)

	var updated models.Game
	require.NoError(t, f.db.First(&updated, "id = ?", game.ID).Error)
	assert.Equal(t, models.GameStatusEvaluated, updated.Status)
}

func TestRegisterSeason_ReplacesAndUnregisters(t *testing.T) {
	f := setupScheduler(t)
	f.season.EvaluationCron = "0 0 22 * * SAT"
	f.season.EvaluationTimezone = "UTC"
	f.season.AutoEvaluationEnabled = true

	f.svc.RegisterSeason(f.season)
	assert.True(t, f.svc.HasSeasonJob(f.season.ID))

	// Re-registering replaces the existing job rather than stacking.
	f.svc.RegisterSeason(f.season)
	assert.True(t, f.svc.HasSeasonJob(f.season.ID))

	f.svc.UnregisterSeason(f.season.ID)
	assert.False(t, f.svc.HasSeasonJob(f.season.ID))
}

func TestRegisterSeason_InvalidCronIsNotFatal(t *testing.T) {
	f := setupScheduler(t)
	f.season.EvaluationCron = "not a cron"
	f.season.AutoEvaluationEnabled = true

	f.svc.RegisterSeason(f.season)
	assert.False(t, f.svc.HasSeasonJob(f.season.ID))
}

func TestRegisterSeason_DisabledSkipsJob(t *testing.T) {
	f := setupScheduler(t)
	f.season.EvaluationCron = "0 0 22 * * SAT"
	f.season.AutoEvaluationEnabled = false

	f.svc.RegisterSeason(f.season)
	assert.False(t, f.svc.HasSeasonJob(f.season.ID))
}
