package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentState records whether a reservation has been paid for.
type PaymentState string

const (
	Unpaid PaymentState = "UNPAID"
	Paid   PaymentState = "PAID"
)

// expiryDays is how long after its trip start an unpaid reservation stays valid.
const expiryDays = 7

// Reservation is one ticket held by one rider on one route.
//
// ExpiresAt is always StartsAt plus seven days. Price is fixed at creation
// and never recomputed. TownFrom, TownTo, and Distance are read-only copies
// of the route, filled in on reads.
type Reservation struct {
	ID        uuid.UUID       `json:"id"`
	RiderID   uuid.UUID       `json:"rider_id"`
	RouteID   uuid.UUID       `json:"route_id"`
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    time.Time       `json:"ends_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Price     decimal.Decimal `json:"price"`
	Payment   PaymentState    `json:"payment"`
	CreatedAt time.Time       `json:"created_at"`

	TownFrom string `json:"town_from,omitempty"`
	TownTo   string `json:"town_to,omitempty"`
	Distance int    `json:"distance,omitempty"`
}

// NewReservation builds an unpaid reservation with its expiry derived from start.
func NewReservation(riderID, routeID uuid.UUID, start, end time.Time, price decimal.Decimal) Reservation {
	return Reservation{
		RiderID:   riderID,
		RouteID:   routeID,
		StartsAt:  start,
		EndsAt:    end,
		ExpiresAt: ExpiryFor(start),
		Price:     price,
		Payment:   Unpaid,
	}
}

// ExpiryFor returns the expiry timestamp for a reservation starting at start.
func ExpiryFor(start time.Time) time.Time {
	return start.AddDate(0, 0, expiryDays)
}

// IsPaid reports whether the reservation has been paid for.
func (r Reservation) IsPaid() bool {
	return r.Payment == Paid
}

// Lapsed reports whether an unpaid reservation should be swept: its stored
// expiry precedes its start. Wall-clock time plays no part, so a trip that
// started long ago stays listed until it is paid or cancelled.
// Paid reservations never lapse.
func (r Reservation) Lapsed() bool {
	if r.IsPaid() {
		return false
	}
	return r.ExpiresAt.Before(r.StartsAt)
}

// DateShift moves a reservation's dates. The start shift is always applied
// (zero means no movement); each end shift only when present.
type DateShift struct {
	StartDays   int
	StartMonths int
	EndDays     *int
	EndMonths   *int
}

// Shift applies s: start by months then days, expiry re-derived from the new
// start, then end by months and by days independently.
func (r *Reservation) Shift(s DateShift) {
	r.StartsAt = addMonths(r.StartsAt, s.StartMonths).AddDate(0, 0, s.StartDays)
	r.ExpiresAt = ExpiryFor(r.StartsAt)
	if s.EndMonths != nil {
		r.EndsAt = addMonths(r.EndsAt, *s.EndMonths)
	}
	if s.EndDays != nil {
		r.EndsAt = r.EndsAt.AddDate(0, 0, *s.EndDays)
	}
}

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month (Jan 31 + 1 month is Feb 28/29, not Mar 3).
func addMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, last)-1)
}
