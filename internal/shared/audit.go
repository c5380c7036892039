package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CommandAudit represents a record stored in command_audit. Every inbound
// charge command leaves exactly one record regardless of its outcome.
type CommandAudit struct {
	CorrelationID string
	SenderID      string
	Decision      string
	Reasons       []string
	Meta          map[string]any
	At            time.Time
}

// Audit decisions.
const (
	DecisionAccepted = "ACCEPTED"
	DecisionRejected = "REJECTED"
)

// AuditLogger writes records into command_audit.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the audit entry.
func (l *AuditLogger) Record(ctx context.Context, rec CommandAudit) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if rec.CorrelationID == "" || rec.Decision == "" {
		return errors.New("command audit requires correlation_id/decision")
	}
	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return err
	}
	reasonsJSON, err := json.Marshal(rec.Reasons)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO command_audit (correlation_id, sender_id, decision, reasons, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, rec.CorrelationID, rec.SenderID, rec.Decision, reasonsJSON, metaJSON, rec.At)
	return err
}
