package charges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridmarket/charges/internal/platform/db"
	"github.com/gridmarket/charges/internal/shared"
)

var (
	ErrNotFound      = errors.New("charge not found")
	ErrAlreadyExists = errors.New("charge already exists")
)

// Repository is the persistence port of the charge aggregate. GetOrNull
// resolves the natural key to the full aggregate including its periods;
// callers mutate the aggregate and hand it back via UpdatePeriods.
// MarkProcessed records an operation id on the same connection, so inside
// WithTx the idempotency record commits and rolls back with the mutation.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetOrNull(ctx context.Context, id ChargeIdentifier) (*Charge, error)
	Add(ctx context.Context, charge *Charge) (int64, error)
	UpdatePeriods(ctx context.Context, charge *Charge) error
	MarkProcessed(ctx context.Context, operationID, chargeKey string) error
	List(ctx context.Context, ownerID string) ([]Charge, error)
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

func (r *repository) GetOrNull(ctx context.Context, id ChargeIdentifier) (*Charge, error) {
	const query = `
		SELECT id, sender_provided_charge_id, owner_id, charge_type, resolution, tax_indicator
		FROM charges
		WHERE sender_provided_charge_id = $1 AND owner_id = $2 AND charge_type = $3
	`
	var c Charge
	err := r.db.QueryRow(ctx, query, id.SenderProvidedChargeID, id.OwnerID, string(id.ChargeType)).Scan(
		&c.ID,
		&c.Identifier.SenderProvidedChargeID,
		&c.Identifier.OwnerID,
		&c.Identifier.ChargeType,
		&c.Resolution,
		&c.TaxIndicator,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("charges: get %s: %w", id.Key(), err)
	}

	periods, err := r.loadPeriods(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Periods = periods
	return &c, nil
}

func (r *repository) loadPeriods(ctx context.Context, chargeID int64) ([]ChargePeriod, error) {
	const query = `
		SELECT id, name, description, vat_classification, transparent_invoicing, start_time, end_time
		FROM charge_periods
		WHERE charge_id = $1
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, chargeID)
	if err != nil {
		return nil, fmt.Errorf("charges: load periods: %w", err)
	}
	defer rows.Close()

	var periods []ChargePeriod
	for rows.Next() {
		var p ChargePeriod
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.VatClassification, &p.TransparentInvoicing, &p.StartDateTime, &p.EndDateTime); err != nil {
			return nil, fmt.Errorf("charges: scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *repository) Add(ctx context.Context, charge *Charge) (int64, error) {
	const query = `
		INSERT INTO charges (sender_provided_charge_id, owner_id, charge_type, resolution, tax_indicator)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		charge.Identifier.SenderProvidedChargeID,
		charge.Identifier.OwnerID,
		string(charge.Identifier.ChargeType),
		string(charge.Resolution),
		charge.TaxIndicator,
	).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, ErrAlreadyExists
		}
		return 0, fmt.Errorf("charges: add %s: %w", charge.Identifier.Key(), err)
	}
	charge.ID = id
	if err := r.writePeriods(ctx, charge); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdatePeriods replaces the stored timeline with the aggregate's current
// periods. The whole replacement rides on the caller's transaction, so no
// partially-applied timeline is ever observable.
func (r *repository) UpdatePeriods(ctx context.Context, charge *Charge) error {
	if charge.ID == 0 {
		return fmt.Errorf("charges: update periods of unsaved charge %s", charge.Identifier.Key())
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM charge_periods WHERE charge_id = $1`, charge.ID); err != nil {
		return fmt.Errorf("charges: clear periods: %w", err)
	}
	return r.writePeriods(ctx, charge)
}

func (r *repository) writePeriods(ctx context.Context, charge *Charge) error {
	const query = `
		INSERT INTO charge_periods (charge_id, name, description, vat_classification, transparent_invoicing, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for i := range charge.Periods {
		p := &charge.Periods[i]
		if err := r.db.QueryRow(ctx, query, charge.ID, p.Name, p.Description, string(p.VatClassification), p.TransparentInvoicing, p.StartDateTime, p.EndDateTime).Scan(&p.ID); err != nil {
			return fmt.Errorf("charges: write period: %w", err)
		}
	}
	return nil
}

// MarkProcessed inserts the operation id keyed by the charge it addressed.
// A duplicate id surfaces as shared.ErrIdempotencyConflict.
func (r *repository) MarkProcessed(ctx context.Context, operationID, chargeKey string) error {
	const query = `
		INSERT INTO processed_operations (operation_id, charge_key, processed_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(ctx, query, operationID, chargeKey, time.Now()); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return shared.ErrIdempotencyConflict
		}
		return fmt.Errorf("charges: mark processed %s: %w", operationID, err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, ownerID string) ([]Charge, error) {
	query := `
		SELECT id, sender_provided_charge_id, owner_id, charge_type, resolution, tax_indicator
		FROM charges
	`
	var args []interface{}
	if ownerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	query += ` ORDER BY owner_id, charge_type, sender_provided_charge_id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("charges: list: %w", err)
	}
	defer rows.Close()

	var out []Charge
	for rows.Next() {
		var c Charge
		if err := rows.Scan(&c.ID, &c.Identifier.SenderProvidedChargeID, &c.Identifier.OwnerID, &c.Identifier.ChargeType, &c.Resolution, &c.TaxIndicator); err != nil {
			return nil, fmt.Errorf("charges: scan charge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
