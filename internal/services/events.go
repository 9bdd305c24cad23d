package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fitleague/fitleague/internal/models"
)

// Pub/sub channel names.
const (
	GlobalChannel     = "events:global"
	userChannelPrefix = "events:user:"
)

// UserChannel returns the user-scoped channel name for personally relevant
// event duplicates.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

const publishTimeout = 5 * time.Second

// EventPublisher is the fan-out contract the engine publishes through.
// Publishing is fire-and-forget: failures are logged, never propagated.
type EventPublisher interface {
	// PublishGlobal writes the event to events:global.
	PublishGlobal(event models.Event)
	// PublishToUser writes the event to events:global and duplicates it on
	// the user's own channel.
	PublishToUser(userID uuid.UUID, event models.Event)
}

// PublishStats tracks bus throughput.
type PublishStats struct {
	EventsPublished int64 `json:"events_published"`
	EventsFailed    int64 `json:"events_failed"`
	EventsDropped   int64 `json:"events_dropped"`
}

// EventBus publishes JSON-serialized domain events to Redis pub/sub. The
// broker has no persistence; missed messages are acceptable, so a circuit
// breaker sheds load when Redis is unhealthy instead of queueing.
type EventBus struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	breaker     *gobreaker.CircuitBreaker

	// Live score updates can arrive as fast as workouts do; cap the publish
	// rate so a burst of uploads does not flood every connected client.
	liveScoreLimiter *rate.Limiter

	statsMu sync.Mutex
	stats   PublishStats
}

func NewEventBus(redisClient *redis.Client, logger *logrus.Logger) *EventBus {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "event-bus",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Event bus circuit breaker state changed")
		},
	})

	return &EventBus{
		redisClient:      redisClient,
		logger:           logger,
		breaker:          breaker,
		liveScoreLimiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

func (b *EventBus) PublishGlobal(event models.Event) {
	if event.Type() == models.EventLiveScoreUpdate && !b.liveScoreLimiter.Allow() {
		b.statsMu.Lock()
		b.stats.EventsDropped++
		b.statsMu.Unlock()
		b.logger.WithField("event_type", event.Type()).Debug("Live score update dropped by rate limiter")
		return
	}
	b.publish(GlobalChannel, event)
}

func (b *EventBus) PublishToUser(userID uuid.UUID, event models.Event) {
	b.publish(GlobalChannel, event)
	b.publish(UserChannel(userID), event)
}

func (b *EventBus) publish(channel string, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.recordFailure()
		b.logger.WithError(err).WithField("event_type", event.Type()).Error("Failed to serialize event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	_, err = b.breaker.Execute(func() (interface{}, error) {
		if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
			return nil, fmt.Errorf("publish to %s: %w", channel, err)
		}
		return nil, nil
	})
	if err != nil {
		b.recordFailure()
		b.logger.WithError(err).WithFields(logrus.Fields{
			"channel":    channel,
			"event_type": event.Type(),
		}).Error("Failed to publish event")
		return
	}

	b.statsMu.Lock()
	b.stats.EventsPublished++
	b.statsMu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"channel":    channel,
		"event_type": event.Type(),
	}).Debug("Event published")
}

func (b *EventBus) recordFailure() {
	b.statsMu.Lock()
	b.stats.EventsFailed++
	b.statsMu.Unlock()
}

// Stats returns a snapshot of publish counters.
func (b *EventBus) Stats() PublishStats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return b.stats
}
