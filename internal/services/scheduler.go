package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fitleague/fitleague/internal/models"
)

// TickResult accumulates what one scheduler pass did. Per-game errors are
// collected so one broken game never aborts the rest of the tick.
type TickResult struct {
	Started   []uuid.UUID
	Finished  []uuid.UUID
	Evaluated int
	Errors    []error
}

// GameScheduler is the single background process driving the game
// lifecycle: it starts due games, finishes expired ones, and triggers
// evaluation. Each season additionally owns a cron job for auto-evaluation.
type GameScheduler struct {
	db           *gorm.DB
	evaluator    *EvaluationService
	bus          EventPublisher
	logger       *logrus.Logger
	tickInterval time.Duration

	cron   *cron.Cron
	jobsMu sync.Mutex
	jobs   map[uuid.UUID]cron.EntryID

	stopOnce sync.Once
	stop     chan struct{}
}

func NewGameScheduler(db *gorm.DB, evaluator *EvaluationService, bus EventPublisher, tickInterval time.Duration, logger *logrus.Logger) *GameScheduler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &GameScheduler{
		db:           db,
		evaluator:    evaluator,
		bus:          bus,
		logger:       logger,
		tickInterval: tickInterval,
		cron:         cron.New(cron.WithSeconds()),
		jobs:         make(map[uuid.UUID]cron.EntryID),
		stop:         make(chan struct{}),
	}
}

// Run blocks, ticking until the context is cancelled or Stop is called.
// It restores cron jobs for existing seasons before the first tick.
func (s *GameScheduler) Run(ctx context.Context) {
	s.restoreSeasonJobs(ctx)
	s.cron.Start()
	defer s.cron.Stop()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.tickInterval.String()).Info("Game scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Game scheduler stopped")
			return
		case <-s.stop:
			s.logger.Info("Game scheduler stopped")
			return
		case <-ticker.C:
			result := s.Tick(ctx)
			for _, err := range result.Errors {
				s.logger.WithError(err).Error("Scheduler tick error")
			}
		}
	}
}

func (s *GameScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Tick runs the three phases in order. Every phase is idempotent under
// restart: status guards in the WHERE clauses make repeated transitions
// no-ops.
func (s *GameScheduler) Tick(ctx context.Context) TickResult {
	var result TickResult
	now := time.Now().UTC()

	s.startDueGames(ctx, now, &result)
	s.finishExpiredGames(ctx, now, &result)

	outcomes, err := s.evaluator.EvaluateFinished(ctx, nil)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	result.Evaluated = len(outcomes)

	return result
}

func (s *GameScheduler) startDueGames(ctx context.Context, now time.Time, result *TickResult) {
	var games []models.Game
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.GameStatusScheduled).
		Where("week_start_date <= ? AND week_end_date >= ?", now, now).
		Find(&games).Error; err != nil {
		result.Errors = append(result.Errors, err)
		return
	}

	for _, game := range games {
		// The live window ends at the scheduled boundary; finish overwrites
		// game_end_time with the actual wall clock.
		res := s.db.WithContext(ctx).Model(&models.Game{}).
			Where("id = ? AND status = ?", game.ID, models.GameStatusScheduled).
			Updates(map[string]interface{}{
				"status":          models.GameStatusInProgress,
				"game_start_time": now,
				"game_end_time":   game.WeekEndDate,
				"home_score":      0,
				"away_score":      0,
			})
		if res.Error != nil {
			result.Errors = append(result.Errors, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		result.Started = append(result.Started, game.ID)
		s.logger.WithField("game_id", game.ID).Info("Game started")
		s.publishGameStarted(ctx, game.ID, now)
	}
}

func (s *GameScheduler) finishExpiredGames(ctx context.Context, now time.Time, result *TickResult) {
	var games []models.Game
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.GameStatusInProgress).
		Where("week_end_date < ?", now).
		Find(&games).Error; err != nil {
		result.Errors = append(result.Errors, err)
		return
	}

	for _, game := range games {
		res := s.db.WithContext(ctx).Model(&models.Game{}).
			Where("id = ? AND status = ?", game.ID, models.GameStatusInProgress).
			Updates(map[string]interface{}{
				"status":        models.GameStatusFinished,
				"game_end_time": now,
			})
		if res.Error != nil {
			result.Errors = append(result.Errors, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		result.Finished = append(result.Finished, game.ID)
		s.logger.WithField("game_id", game.ID).Info("Game finished")
		s.publishGameFinished(ctx, game.ID, now)
	}
}

func (s *GameScheduler) publishGameStarted(ctx context.Context, gameID uuid.UUID, now time.Time) {
	game, homeTeam, awayTeam, err := s.loadGameTeams(ctx, gameID)
	if err != nil {
		s.logger.WithError(err).WithField("game_id", gameID).Error("Failed to load game for started event")
		return
	}
	event := models.GameStartedEvent{
		EventType:    models.EventGameStarted,
		GameID:       game.ID,
		HomeTeamID:   game.HomeTeamID,
		HomeTeamName: homeTeam.Name,
		AwayTeamID:   game.AwayTeamID,
		AwayTeamName: awayTeam.Name,
		Timestamp:    now,
	}
	if game.GameStartTime != nil {
		event.GameStartTime = *game.GameStartTime
	}
	if game.GameEndTime != nil {
		event.GameEndTime = *game.GameEndTime
	}
	s.bus.PublishGlobal(event)
}

func (s *GameScheduler) publishGameFinished(ctx context.Context, gameID uuid.UUID, now time.Time) {
	game, homeTeam, awayTeam, err := s.loadGameTeams(ctx, gameID)
	if err != nil {
		s.logger.WithError(err).WithField("game_id", gameID).Error("Failed to load game for finished event")
		return
	}
	event := models.GameFinishedEvent{
		EventType:    models.EventGameFinished,
		GameID:       game.ID,
		HomeTeamID:   game.HomeTeamID,
		HomeTeamName: homeTeam.Name,
		AwayTeamID:   game.AwayTeamID,
		AwayTeamName: awayTeam.Name,
		HomeScore:    game.HomeScore,
		AwayScore:    game.AwayScore,
		Timestamp:    now,
	}
	if game.GameEndTime != nil {
		event.GameEndTime = *game.GameEndTime
	}
	s.bus.PublishGlobal(event)
}

func (s *GameScheduler) loadGameTeams(ctx context.Context, gameID uuid.UUID) (*models.Game, *models.Team, *models.Team, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", gameID).Error; err != nil {
		return nil, nil, nil, err
	}
	var homeTeam, awayTeam models.Team
	if err := s.db.WithContext(ctx).First(&homeTeam, "id = ?", game.HomeTeamID).Error; err != nil {
		return nil, nil, nil, err
	}
	if err := s.db.WithContext(ctx).First(&awayTeam, "id = ?", game.AwayTeamID).Error; err != nil {
		return nil, nil, nil, err
	}
	return &game, &homeTeam, &awayTeam, nil
}

// RegisterSeason installs (or replaces) the auto-evaluation cron job for a
// season. An invalid cron expression is logged and skipped; season creation
// must not fail because of it.
func (s *GameScheduler) RegisterSeason(season *models.Season) {
	if !season.AutoEvaluationEnabled || season.EvaluationCron == "" {
		return
	}

	spec := season.EvaluationCron
	if season.EvaluationTimezone != "" {
		spec = "CRON_TZ=" + season.EvaluationTimezone + " " + spec
	}

	seasonID := season.ID
	entryID, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.evaluator.EvaluateFinished(ctx, &seasonID); err != nil {
			s.logger.WithError(err).WithField("season_id", seasonID).Error("Scheduled evaluation failed")
		}
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"season_id": seasonID,
			"cron":      season.EvaluationCron,
		}).Error("Invalid evaluation cron expression, auto-evaluation disabled for season")
		return
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if old, ok := s.jobs[seasonID]; ok {
		s.cron.Remove(old)
	}
	s.jobs[seasonID] = entryID
	s.logger.WithFields(logrus.Fields{
		"season_id": seasonID,
		"cron":      season.EvaluationCron,
	}).Info("Season evaluation job registered")
}

// UnregisterSeason removes a season's cron job if one exists.
func (s *GameScheduler) UnregisterSeason(seasonID uuid.UUID) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if entryID, ok := s.jobs[seasonID]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, seasonID)
		s.logger.WithField("season_id", seasonID).Info("Season evaluation job removed")
	}
}

// HasSeasonJob reports whether a season currently owns a cron job.
func (s *GameScheduler) HasSeasonJob(seasonID uuid.UUID) bool {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	_, ok := s.jobs[seasonID]
	return ok
}

func (s *GameScheduler) restoreSeasonJobs(ctx context.Context) {
	var seasons []models.Season
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND auto_evaluation_enabled = ?", true, true).
		Find(&seasons).Error; err != nil {
		s.logger.WithError(err).Error("Failed to restore season evaluation jobs")
		return
	}
	for i := range seasons {
		s.RegisterSeason(&seasons[i])
	}
}
