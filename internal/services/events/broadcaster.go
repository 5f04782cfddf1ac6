package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/verdantpeak/cultivation-engine/pkg/state"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeTurnQueued    EventType = "turn.queued"
	EventTypeTurnApplied   EventType = "turn.applied"
	EventTypeTurnFailed    EventType = "turn.failed"
	EventTypeBreakthrough  EventType = "breakthrough"
	EventTypeCombatStarted EventType = "combat.started"
	EventTypeCombatRound   EventType = "combat.round"
	EventTypeCombatEnded   EventType = "combat.ended"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType              `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	RunID     string                 `json:"run_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishTurnQueued publishes a turn.queued event
func (b *Broadcaster) PublishTurnQueued(ctx context.Context, runID uuid.UUID, requestID string) error {
	event := Event{
		Type:      EventTypeTurnQueued,
		RequestID: requestID,
		RunID:     runID.String(),
		Data: map[string]interface{}{
			"status": "queued",
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// PublishTurnApplied publishes a turn.applied event carrying the turn's
// domain events and warnings
func (b *Broadcaster) PublishTurnApplied(ctx context.Context, runID uuid.UUID, requestID string, turn int, outcome *state.TurnOutcome) error {
	event := Event{
		Type:      EventTypeTurnApplied,
		RequestID: requestID,
		RunID:     runID.String(),
		Data: map[string]interface{}{
			"status":   "applied",
			"turn":     turn,
			"events":   outcome.Events,
			"warnings": outcome.Warnings,
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// PublishTurnFailed publishes a turn.failed event
func (b *Broadcaster) PublishTurnFailed(ctx context.Context, runID uuid.UUID, requestID string, errorMsg string) error {
	event := Event{
		Type:      EventTypeTurnFailed,
		RequestID: requestID,
		RunID:     runID.String(),
		Data: map[string]interface{}{
			"status": "failed",
			"error":  errorMsg,
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// PublishBreakthrough publishes a breakthrough event
func (b *Broadcaster) PublishBreakthrough(ctx context.Context, runID uuid.UUID, prevRealm, newRealm string, newStage int) error {
	event := Event{
		Type:  EventTypeBreakthrough,
		RunID: runID.String(),
		Data: map[string]interface{}{
			"previous_realm": prevRealm,
			"new_realm":      newRealm,
			"new_stage":      newStage,
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// PublishCombatStarted publishes a combat.started event
func (b *Broadcaster) PublishCombatStarted(ctx context.Context, runID uuid.UUID, sessionID string, enemyName string) error {
	event := Event{
		Type:  EventTypeCombatStarted,
		RunID: runID.String(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"enemy":      enemyName,
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// PublishCombatRound publishes a combat.round event with the phase
// after the round and both combatants' HP
func (b *Broadcaster) PublishCombatRound(ctx context.Context, runID uuid.UUID, sessionID string, phase string, playerHP, enemyHP int) error {
	event := Event{
		Type:  EventTypeCombatRound,
		RunID: runID.String(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"phase":      phase,
			"player_hp":  playerHP,
			"enemy_hp":   enemyHP,
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// PublishCombatEnded publishes a combat.ended event
func (b *Broadcaster) PublishCombatEnded(ctx context.Context, runID uuid.UUID, sessionID string, phase string) error {
	event := Event{
		Type:  EventTypeCombatEnded,
		RunID: runID.String(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"phase":      phase,
		},
	}
	return b.publishToRun(ctx, runID, event)
}

// publishToRun publishes an event to the run-specific channel
func (b *Broadcaster) publishToRun(ctx context.Context, runID uuid.UUID, event Event) error {
	channel := fmt.Sprintf("run-events:%s", runID.String())

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
