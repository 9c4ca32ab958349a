package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/railtix/tickets/internal/domain"
)

// RouteRepo reads the route catalog. An empty townTo means "any destination
// from townFrom".
type RouteRepo interface {
	// Exists reports whether a train runs from townFrom to townTo.
	Exists(ctx context.Context, townFrom, townTo string) (bool, error)

	// BasePrice returns the undiscounted one-way price of the route.
	// With an empty townTo the cheapest route leaving townFrom is used.
	// Returns domain.ErrNotFound when no such route exists.
	BasePrice(ctx context.Context, townFrom, townTo string) (decimal.Decimal, error)

	// ListDestinations returns one page of town pairs ordered by town_from,
	// town_to, and the total count.
	ListDestinations(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error)
}

// pgRouteRepo is the Postgres implementation of RouteRepo.
type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

func (r *pgRouteRepo) Exists(ctx context.Context, townFrom, townTo string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM routes
			WHERE town_from = @town_from
			  AND (@town_to = '' OR town_to = @town_to)
		)`

	var ok bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"town_from": townFrom, "town_to": townTo}).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("repo.RouteRepo.Exists: %w", err)
	}
	return ok, nil
}

func (r *pgRouteRepo) BasePrice(ctx context.Context, townFrom, townTo string) (decimal.Decimal, error) {
	const q = `
		SELECT base_price::text FROM routes
		WHERE town_from = @town_from
		  AND (@town_to = '' OR town_to = @town_to)
		ORDER BY base_price
		LIMIT 1`

	var raw string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"town_from": townFrom, "town_to": townTo}).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("repo.RouteRepo.BasePrice: %w", err)
	}
	price, err := parseMoney(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("repo.RouteRepo.BasePrice: %w", err)
	}
	return price, nil
}

func (r *pgRouteRepo) ListDestinations(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error) {
	const q = `
		SELECT town_from, town_to, distance, count(*) OVER ()
		FROM routes
		ORDER BY town_from, town_to
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.RouteRepo.ListDestinations: %w", err)
	}
	defer rows.Close()

	var (
		out   = []domain.Destination{}
		total int64
	)
	for rows.Next() {
		var d domain.Destination
		if err := rows.Scan(&d.TownFrom, &d.TownTo, &d.Distance, &total); err != nil {
			return nil, 0, fmt.Errorf("repo.RouteRepo.ListDestinations: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.RouteRepo.ListDestinations: rows: %w", err)
	}
	return out, total, nil
}
