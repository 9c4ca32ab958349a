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

// RiderRepo reads rider profiles. Registration and profile edits belong to
// the identity service and write this table directly.
type RiderRepo interface {
	// GetByID returns domain.ErrNotFound for an unknown rider.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Rider, error)
}

type pgRiderRepo struct {
	db db
}

// NewRiderRepo constructs a RiderRepo backed by the provided db connection.
func NewRiderRepo(db db) RiderRepo {
	return &pgRiderRepo{db: db}
}

func (r *pgRiderRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Rider, error) {
	const q = `SELECT id, username, card_type FROM riders WHERE id = @id`

	var (
		rider domain.Rider
		rid   pgtype.UUID
		card  string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&rid, &rider.Username, &card)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return domain.Rider{}, fmt.Errorf("repo.RiderRepo.GetByID: %w", err)
	}

	rider.ID = uuid.UUID(rid.Bytes)
	if rider.CardType, err = domain.ParseCardType(card); err != nil {
		return domain.Rider{}, fmt.Errorf("repo.RiderRepo.GetByID: stored card type: %w", err)
	}
	return rider, nil
}
