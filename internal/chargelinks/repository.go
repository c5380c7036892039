package chargelinks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/platform/db"
)

// ErrNotFound indicates no link matched.
var ErrNotFound = errors.New("charge link not found")

// Repository is the persistence port for charge links.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	ListForCharge(ctx context.Context, id charges.ChargeIdentifier) ([]ChargeLink, error)
	ListForMeteringPoint(ctx context.Context, meteringPointID string) ([]ChargeLink, error)
	Add(ctx context.Context, link ChargeLink) (int64, error)
	AddHistory(ctx context.Context, history LinkHistory) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const linkColumns = `id, charge_id, owner_id, charge_type, metering_point_id, start_time, end_time, factor`

func (r *repository) ListForCharge(ctx context.Context, id charges.ChargeIdentifier) ([]ChargeLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM charge_links
		WHERE charge_id = $1 AND owner_id = $2 AND charge_type = $3
		ORDER BY metering_point_id, start_time
	`, linkColumns)
	rows, err := r.db.Query(ctx, query, id.SenderProvidedChargeID, id.OwnerID, string(id.ChargeType))
	if err != nil {
		return nil, fmt.Errorf("chargelinks: list for charge %s: %w", id.Key(), err)
	}
	return scanLinks(rows)
}

func (r *repository) ListForMeteringPoint(ctx context.Context, meteringPointID string) ([]ChargeLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM charge_links
		WHERE metering_point_id = $1
		ORDER BY start_time
	`, linkColumns)
	rows, err := r.db.Query(ctx, query, meteringPointID)
	if err != nil {
		return nil, fmt.Errorf("chargelinks: list for metering point %s: %w", meteringPointID, err)
	}
	return scanLinks(rows)
}

func scanLinks(rows pgx.Rows) ([]ChargeLink, error) {
	defer rows.Close()
	var out []ChargeLink
	for rows.Next() {
		var l ChargeLink
		if err := rows.Scan(
			&l.ID,
			&l.Charge.SenderProvidedChargeID,
			&l.Charge.OwnerID,
			&l.Charge.ChargeType,
			&l.MeteringPointID,
			&l.StartDateTime,
			&l.EndDateTime,
			&l.Factor,
		); err != nil {
			return nil, fmt.Errorf("chargelinks: scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) Add(ctx context.Context, link ChargeLink) (int64, error) {
	const query = `
		INSERT INTO charge_links (charge_id, owner_id, charge_type, metering_point_id, start_time, end_time, factor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		link.Charge.SenderProvidedChargeID,
		link.Charge.OwnerID,
		string(link.Charge.ChargeType),
		link.MeteringPointID,
		link.StartDateTime,
		link.EndDateTime,
		link.Factor,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("chargelinks: add link: %w", err)
	}
	return id, nil
}

func (r *repository) AddHistory(ctx context.Context, history LinkHistory) error {
	const query = `
		INSERT INTO charge_link_history (charge_id, owner_id, charge_type, metering_point_id, start_time, end_time, factor, sender_id, sender_role, correlation_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		history.Link.Charge.SenderProvidedChargeID,
		history.Link.Charge.OwnerID,
		string(history.Link.Charge.ChargeType),
		history.Link.MeteringPointID,
		history.Link.StartDateTime,
		history.Link.EndDateTime,
		history.Link.Factor,
		history.SenderID,
		string(history.SenderRole),
		history.CorrelationID,
		history.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("chargelinks: add history: %w", err)
	}
	return nil
}
