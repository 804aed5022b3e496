// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

import "time"

// CardEventsQueue is the durable queue carrying card activity.
const CardEventsQueue = "card.events"

// CardEvent is published after a card mutation has been stored and
// audited. It carries enough information for downstream consumers to log
// or notify without querying the primary stores.
type CardEvent struct {
	Action     string    `json:"action"`
	CardID     string    `json:"card_id"`
	ActorID    uint64    `json:"actor_id"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
