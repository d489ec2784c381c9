package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channels for downstream notification consumers. The ledger itself never
// publishes; route handlers publish after the core reports success.
const (
	ChannelTransactions = "luminaria.transactions"
	ChannelBookings     = "luminaria.bookings"
	ChannelConversions  = "luminaria.conversions"
)

// Event is the envelope delivered over Redis pub/sub.
type Event struct {
	Kind       string    `json:"kind"`
	UserID     uuid.UUID `json:"user_id"`
	Amount     int64     `json:"amount,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes events over Redis pub/sub. A nil client disables
// publishing, so callers never need to branch on configuration.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends the event on the given channel. Delivery is best-effort:
// a failed publish is logged, never surfaced to the request path.
func (p *Publisher) Publish(ctx context.Context, channel string, ev Event) {
	if p == nil || p.client == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to marshal event")
		return
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("channel", channel).Str("kind", ev.Kind).Msg("Failed to publish event")
	}
}
