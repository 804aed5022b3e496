package model

import (
	"math"
	"time"
)

// AuditAction tags the kind of card mutation recorded in the audit log.
type AuditAction string

const (
	ActionCardCreate    AuditAction = "card.create"
	ActionCardUpdate    AuditAction = "card.update"
	ActionCardDelete    AuditAction = "card.delete"
	ActionCardArchive   AuditAction = "card.archive"
	ActionCardUnarchive AuditAction = "card.unarchive"
)

// EntityCard is the entity type recorded for card mutations.
const EntityCard = "card"

// Snapshot is a partial capture of a card's title, description and
// status. Archive state and timestamps are never part of it.
type Snapshot struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *CardStatus `json:"status,omitempty"`
}

// AuditLogEntry models a row of the append-only `audit_logs` table.
//
// Fields:
//  ID         – auto-increment identifier, monotonic in insertion order.
//  ActorID    – user that performed the mutation.
//  Action     – one of the card.* actions.
//  EntityType – always "card" today.
//  EntityID   – hex ObjectID of the card.
//  Before     – state prior to the mutation, nil when not captured.
//  After      – state after the mutation, nil when not captured.
//  IP         – request origin, empty when unknown.
//  CreatedAt  – when the entry was appended.
type AuditLogEntry struct {
	ID         uint64      `json:"id"`
	ActorID    uint64      `json:"actorId"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entity"`
	EntityID   string      `json:"entityId"`
	Before     *Snapshot   `json:"before"`
	After      *Snapshot   `json:"after"`
	IP         string      `json:"ip,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Page holds the pagination window of a list request. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip. It saturates at
// math.MaxInt instead of overflowing, so a huge page yields an empty
// window rather than a negative skip.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}
