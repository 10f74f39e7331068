package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mastery-api/internal/observability"
)

// MasteryEventType names the event emitted after an assessment completion is committed.
const MasteryEventType = "mastery.evaluated"

// MasteryEvent is published after an assessment completion is committed.
type MasteryEvent struct {
	Type               string    `json:"type"`
	Source             string    `json:"source"`
	AssessmentID       uint      `json:"assessment_id"`
	StudentID          uint      `json:"student_id"`
	ObjectiveID        uint      `json:"objective_id"`
	Score              float64   `json:"score"`
	PassedWithoutHints bool      `json:"passed_without_hints"`
	MasteryUpdated     bool      `json:"mastery_updated"`
	NewLevel           *string   `json:"new_level"`
	OccurredAt         time.Time `json:"occurred_at"`
	CorrelationID      string    `json:"correlation_id,omitempty"`
}

// MasteryEventPublisher fans mastery events out to downstream consumers such as alerting.
type MasteryEventPublisher interface {
	Publish(ctx context.Context, event MasteryEvent)
}

type masteryEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewMasteryEventPublisher publishes to redis pub/sub and NATS when the clients are configured.
// The NATS subject is the channel with colons replaced by dots.
func NewMasteryEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) MasteryEventPublisher {
	channel := channelBase
	subject := strings.ReplaceAll(channelBase, ":", ".")

	return &masteryEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "mastery_event_publisher").Logger(),
		nodeID:       uuid.NewString(),
	}
}

// Publish never fails the caller; transport errors are logged and counted.
func (p *masteryEventPublisher) Publish(ctx context.Context, event MasteryEvent) {
	event.Type = MasteryEventType
	event.Source = p.nodeID
	if event.CorrelationID == "" {
		event.CorrelationID = observability.CorrelationIDFromContext(ctx)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode mastery event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.MasteryEventsPublished().WithLabelValues("redis", "error").Inc()
			p.logger.Warn().Err(err).Uint("assessment_id", event.AssessmentID).Msg("failed to publish mastery event to redis")
		} else {
			observability.MasteryEventsPublished().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.MasteryEventsPublished().WithLabelValues("nats", "error").Inc()
			p.logger.Warn().Err(err).Uint("assessment_id", event.AssessmentID).Msg("failed to publish mastery event to nats")
		} else {
			observability.MasteryEventsPublished().WithLabelValues("nats", "ok").Inc()
		}
	}
}
