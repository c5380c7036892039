package marketparticipants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository resolves actor ids to registered market participants.
type Repository interface {
	GetOrNull(ctx context.Context, actorID string) (*MarketParticipant, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetOrNull(ctx context.Context, actorID string) (*MarketParticipant, error) {
	const query = `
		SELECT id, actor_id, role, is_active
		FROM market_participants
		WHERE actor_id = $1
	`
	var p MarketParticipant
	err := r.pool.QueryRow(ctx, query, actorID).Scan(&p.ID, &p.ActorID, &p.Role, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("marketparticipants: get %s: %w", actorID, err)
	}
	return &p, nil
}
