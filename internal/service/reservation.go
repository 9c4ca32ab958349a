package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/repo"
)

// EventPublisher delivers lifecycle events after the change has committed.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

// ReserveRequest carries a priced trip to be booked Count times.
// Price is taken as quoted; it is not re-derived here.
type ReserveRequest struct {
	RouteID  uuid.UUID
	StartsAt time.Time
	EndsAt   time.Time
	Price    decimal.Decimal
	Count    int
}

// ReservationService runs the reservation lifecycle: reserve, list with
// sweep of lapsed reservations, pay, edit dates, and cancel.
// Every operation is one transaction on the store and acts only on
// reservations owned by the rider passed in.
type ReservationService struct {
	store  repo.Store
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// NewReservationService constructs a ReservationService. A nil events
// publisher disables event delivery.
func NewReservationService(store repo.Store, events EventPublisher, log *slog.Logger) *ReservationService {
	if events == nil {
		events = nopPublisher{}
	}
	return &ReservationService{store: store, events: events, log: log, now: time.Now}
}

// WithClock replaces the time source used for event timestamps.
func (s *ReservationService) WithClock(now func() time.Time) *ReservationService {
	s.now = now
	return s
}

// MaxTicketsPerReserve bounds the copies one Reserve call may create.
const MaxTicketsPerReserve = 50

// Prices are stored with two decimal places and at most eight integer digits.
const priceScale = 2

var priceLimit = decimal.New(1, 8)

// Reserve creates req.Count independent unpaid reservations for riderID.
// A zero count creates nothing and is not an error. A negative count, a count
// above MaxTicketsPerReserve, or a price the store cannot hold exactly is
// domain.ErrInvalidArgument.
func (s *ReservationService) Reserve(ctx context.Context, riderID uuid.UUID, req ReserveRequest) ([]domain.Reservation, error) {
	if req.Count < 0 {
		return nil, fmt.Errorf("%w: number of tickets must not be negative", domain.ErrInvalidArgument)
	}
	if req.Count > MaxTicketsPerReserve {
		return nil, fmt.Errorf("%w: at most %d tickets can be reserved at once", domain.ErrInvalidArgument, MaxTicketsPerReserve)
	}
	if err := checkPrice(req.Price); err != nil {
		return nil, err
	}
	if req.Count == 0 {
		return []domain.Reservation{}, nil
	}

	proto := domain.NewReservation(riderID, req.RouteID, req.StartsAt, req.EndsAt, req.Price)

	var created []domain.Reservation
	err := s.store.InTx(ctx, func(r repo.ReservationRepo) error {
		var err error
		created, err = r.CreateBatch(ctx, proto, req.Count)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.Reserve: %w", err)
	}

	s.publish(ctx, domain.EventReserved, riderID, ids(created))
	return created, nil
}

// List deletes the rider's lapsed unpaid reservations and returns what is
// left, paid and live unpaid alike, in store order.
// Only rows the store actually deleted count as swept; a lapsed row that was
// paid in the meantime is kept and reported as paid.
func (s *ReservationService) List(ctx context.Context, riderID uuid.UUID) ([]domain.Reservation, error) {
	var (
		live  []domain.Reservation
		swept []uuid.UUID
	)
	err := s.store.InTx(ctx, func(r repo.ReservationRepo) error {
		all, err := r.ListByRider(ctx, riderID)
		if err != nil {
			return err
		}

		var lapsed []uuid.UUID
		for _, res := range all {
			if res.Lapsed() {
				lapsed = append(lapsed, res.ID)
			}
		}

		swept, err = r.DeleteUnpaid(ctx, riderID, lapsed)
		if err != nil {
			return err
		}
		gone := make(map[uuid.UUID]bool, len(swept))
		for _, id := range swept {
			gone[id] = true
		}

		live = make([]domain.Reservation, 0, len(all))
		for _, res := range all {
			if gone[res.ID] {
				continue
			}
			if res.Lapsed() {
				res.Payment = domain.Paid
			}
			live = append(live, res)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.List: %w", err)
	}

	if len(swept) > 0 {
		s.log.InfoContext(ctx, "swept lapsed reservations", "rider_id", riderID, "swept", len(swept))
		s.publish(ctx, domain.EventSwept, riderID, swept)
	}
	return live, nil
}

// Pay marks a reservation paid. Paying twice is not an error, and only the
// first payment publishes an event.
// Returns domain.ErrNotFound if the rider has no such reservation.
func (s *ReservationService) Pay(ctx context.Context, riderID, id uuid.UUID) error {
	var transitioned bool
	err := s.store.InTx(ctx, func(r repo.ReservationRepo) error {
		state, err := r.PaymentState(ctx, riderID, id)
		if err != nil {
			return err
		}
		if state == domain.Paid {
			return nil
		}
		if err := r.MarkPaid(ctx, riderID, id); err != nil {
			return err
		}
		transitioned = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.ReservationService.Pay: %w", err)
	}

	if transitioned {
		s.publish(ctx, domain.EventPaid, riderID, []uuid.UUID{id})
	}
	return nil
}

// EditDates shifts a reservation's dates and returns it as stored.
// The price stays as it was. The resulting dates are not checked for order.
// Returns domain.ErrNotFound if the rider has no such reservation.
func (s *ReservationService) EditDates(ctx context.Context, riderID, id uuid.UUID, shift domain.DateShift) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.store.InTx(ctx, func(r repo.ReservationRepo) error {
		res, err := r.GetForUpdate(ctx, riderID, id)
		if err != nil {
			return err
		}
		res.Shift(shift)
		updated, err = r.UpdateDates(ctx, res)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.EditDates: %w", err)
	}
	return updated, nil
}

// Cancel deletes an unpaid reservation.
// Returns domain.ErrNotFound if the rider has no such reservation and
// domain.ErrInvalidState if it has already been paid.
func (s *ReservationService) Cancel(ctx context.Context, riderID, id uuid.UUID) error {
	err := s.store.InTx(ctx, func(r repo.ReservationRepo) error {
		state, err := r.PaymentState(ctx, riderID, id)
		if err != nil {
			return err
		}
		if state == domain.Paid {
			return fmt.Errorf("%w: the ticket is already paid, cannot cancel", domain.ErrInvalidState)
		}
		return r.Delete(ctx, riderID, id)
	})
	if err != nil {
		return fmt.Errorf("service.ReservationService.Cancel: %w", err)
	}

	s.publish(ctx, domain.EventCancelled, riderID, []uuid.UUID{id})
	return nil
}

// publish is best effort: the change is already committed.
func (s *ReservationService) publish(ctx context.Context, kind domain.EventKind, riderID uuid.UUID, reservationIDs []uuid.UUID) {
	event := domain.ReservationEvent{
		Kind:           kind,
		RiderID:        riderID,
		ReservationIDs: reservationIDs,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "publish reservation event failed", "kind", kind, "rider_id", riderID, "error", err)
	}
}

// checkPrice rejects prices the reservations table would round or overflow.
func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidArgument)
	}
	if !p.Equal(p.Round(priceScale)) {
		return fmt.Errorf("%w: price %s has more than %d decimal places", domain.ErrInvalidArgument, p, priceScale)
	}
	if p.GreaterThanOrEqual(priceLimit) {
		return fmt.Errorf("%w: price %s is too large", domain.ErrInvalidArgument, p)
	}
	return nil
}

func ids(rs []domain.Reservation) []uuid.UUID {
	out := make([]uuid.UUID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.ReservationEvent) error { return nil }
