package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/railtix/tickets/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
// Every single-row operation is scoped by riderID: a reservation owned by
// someone else is reported as domain.ErrNotFound.
type ReservationRepo interface {
	// CreateBatch inserts count identical copies of r and returns them.
	// The copies get their own DB-generated ids.
	CreateBatch(ctx context.Context, r domain.Reservation, count int) ([]domain.Reservation, error)

	// ListByRider returns every reservation the rider owns, paid or not.
	ListByRider(ctx context.Context, riderID uuid.UUID) ([]domain.Reservation, error)

	// GetForUpdate reads one reservation and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, riderID, id uuid.UUID) (domain.Reservation, error)

	// PaymentState returns the payment flag of one reservation, locking its row.
	PaymentState(ctx context.Context, riderID, id uuid.UUID) (domain.PaymentState, error)

	// MarkPaid sets the payment flag. Paying twice is not an error.
	MarkPaid(ctx context.Context, riderID, id uuid.UUID) error

	// UpdateDates stores r's start, end, and expiry. Price is never written.
	UpdateDates(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// Delete removes one reservation.
	Delete(ctx context.Context, riderID, id uuid.UUID) error

	// DeleteUnpaid removes the given reservations of riderID, skipping any
	// that are paid by now, and returns the ids actually deleted.
	DeleteUnpaid(ctx context.Context, riderID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

// pgReservationRepo is the Postgres implementation of ReservationRepo.
type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
// The lifecycle service reaches it through Store.InTx; tests may also build one
// directly over a pgx.Tx.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `
	res.id, res.rider_id, res.route_id, res.starts_at, res.ends_at, res.expires_at,
	res.price::text, res.paid, res.created_at, rt.town_from, rt.town_to, rt.distance`

func (r *pgReservationRepo) CreateBatch(ctx context.Context, res domain.Reservation, count int) ([]domain.Reservation, error) {
	const q = `
		WITH res AS (
			INSERT INTO reservations (rider_id, route_id, starts_at, ends_at, expires_at, price)
			SELECT @rider_id::uuid, @route_id::uuid, @starts_at::timestamptz,
			       @ends_at::timestamptz, @expires_at::timestamptz, @price::numeric
			FROM generate_series(1, @count::int)
			RETURNING *
		)
		SELECT ` + reservationColumns + `
		FROM res
		JOIN routes rt ON rt.id = res.route_id`

	args := pgx.NamedArgs{
		"rider_id":   res.RiderID,
		"route_id":   res.RouteID,
		"starts_at":  res.StartsAt,
		"ends_at":    res.EndsAt,
		"expires_at": res.ExpiresAt,
		"price":      res.Price.String(),
		"count":      count,
	}

	out, err := r.queryReservations(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.CreateBatch: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) ListByRider(ctx context.Context, riderID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations res
		JOIN routes rt ON rt.id = res.route_id
		WHERE res.rider_id = @rider_id`

	out, err := r.queryReservations(ctx, q, pgx.NamedArgs{"rider_id": riderID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByRider: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) GetForUpdate(ctx context.Context, riderID, id uuid.UUID) (domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations res
		JOIN routes rt ON rt.id = res.route_id
		WHERE res.id = @id AND res.rider_id = @rider_id
		FOR UPDATE OF res`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "rider_id": riderID})
	out, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetForUpdate: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) PaymentState(ctx context.Context, riderID, id uuid.UUID) (domain.PaymentState, error) {
	const q = `
		SELECT paid FROM reservations
		WHERE id = @id AND rider_id = @rider_id
		FOR UPDATE`

	var paid bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "rider_id": riderID}).Scan(&paid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return "", fmt.Errorf("repo.ReservationRepo.PaymentState: %w", err)
	}
	return paymentState(paid), nil
}

func (r *pgReservationRepo) MarkPaid(ctx context.Context, riderID, id uuid.UUID) error {
	const q = `UPDATE reservations SET paid = true WHERE id = @id AND rider_id = @rider_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "rider_id": riderID})
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.MarkPaid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReservationRepo.MarkPaid: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgReservationRepo) UpdateDates(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		WITH res AS (
			UPDATE reservations
			SET starts_at  = @starts_at,
			    ends_at    = @ends_at,
			    expires_at = @expires_at
			WHERE id = @id AND rider_id = @rider_id
			RETURNING *
		)
		SELECT ` + reservationColumns + `
		FROM res
		JOIN routes rt ON rt.id = res.route_id`

	args := pgx.NamedArgs{
		"id":         res.ID,
		"rider_id":   res.RiderID,
		"starts_at":  res.StartsAt,
		"ends_at":    res.EndsAt,
		"expires_at": res.ExpiresAt,
	}

	out, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateDates: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) Delete(ctx context.Context, riderID, id uuid.UUID) error {
	const q = `DELETE FROM reservations WHERE id = @id AND rider_id = @rider_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "rider_id": riderID})
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReservationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgReservationRepo) DeleteUnpaid(ctx context.Context, riderID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	const q = `
		DELETE FROM reservations
		WHERE rider_id = @rider_id
		  AND id = ANY(@ids::uuid[])
		  AND NOT paid
		RETURNING id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"rider_id": riderID, "ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.DeleteUnpaid: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.UUID])
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.DeleteUnpaid: %w", err)
	}
	deleted := make([]uuid.UUID, len(raw))
	for i, id := range raw {
		deleted[i] = uuid.UUID(id.Bytes)
	}
	return deleted, nil
}

func (r *pgReservationRepo) queryReservations(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// scanReservation maps one row selected with reservationColumns.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res     domain.Reservation
		id      pgtype.UUID
		riderID pgtype.UUID
		routeID pgtype.UUID
		price   string
		paid    bool
	)

	err := s.Scan(&id, &riderID, &routeID, &res.StartsAt, &res.EndsAt, &res.ExpiresAt,
		&price, &paid, &res.CreatedAt, &res.TownFrom, &res.TownTo, &res.Distance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.RiderID = uuid.UUID(riderID.Bytes)
	res.RouteID = uuid.UUID(routeID.Bytes)
	res.Payment = paymentState(paid)
	if res.Price, err = parseMoney(price); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func paymentState(paid bool) domain.PaymentState {
	if paid {
		return domain.Paid
	}
	return domain.Unpaid
}
