package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a reservation lifecycle transition.
type EventKind string

const (
	EventReserved  EventKind = "reservation.reserved"
	EventPaid      EventKind = "reservation.paid"
	EventCancelled EventKind = "reservation.cancelled"
	EventSwept     EventKind = "reservation.swept"
)

// ReservationEvent is published after a lifecycle transition commits.
type ReservationEvent struct {
	Kind           EventKind   `json:"kind"`
	RiderID        uuid.UUID   `json:"rider_id"`
	ReservationIDs []uuid.UUID `json:"reservation_ids"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
