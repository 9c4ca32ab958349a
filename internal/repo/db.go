// Package repo contains all database access logic for the rail tickets service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is satisfied by *pgxpool.Pool and pgx.Tx (the latter opens a savepoint).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store runs a unit of work against reservations inside one transaction.
// Either every statement issued through the ReservationRepo handed to fn
// commits, or none do.
type Store interface {
	InTx(ctx context.Context, fn func(ReservationRepo) error) error
}

type pgStore struct {
	db beginner
}

// NewStore constructs a Store over a pool. In tests pass a pgx.Tx; each
// InTx call then runs in a savepoint that the outer rollback discards.
func NewStore(db beginner) Store {
	return &pgStore{db: db}
}

// InTx begins a transaction, hands fn a ReservationRepo bound to it, and
// commits when fn returns nil. Any error rolls the transaction back.
func (s *pgStore) InTx(ctx context.Context, fn func(ReservationRepo) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewReservationRepo(tx))
	})
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseMoney converts a NUMERIC selected as ::text.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	return d, nil
}
