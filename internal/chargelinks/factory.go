package chargelinks

import (
	"context"
	"fmt"
	"time"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/marketparticipants"
)

// HistoryFactory builds the audit record for an accepted link. The sender
// role is always resolved from the participant registry; recording a
// placeholder role would leave downstream notifications incomplete.
type HistoryFactory struct {
	participants marketparticipants.Repository
	now          func() time.Time
}

// NewHistoryFactory wires the participant lookup.
func NewHistoryFactory(participants marketparticipants.Repository) *HistoryFactory {
	return &HistoryFactory{participants: participants, now: time.Now}
}

// Create resolves the sender and assembles the history record.
func (f *HistoryFactory) Create(ctx context.Context, link ChargeLink, doc charges.Document, correlationID string) (LinkHistory, error) {
	sender, err := f.participants.GetOrNull(ctx, doc.SenderID)
	if err != nil {
		return LinkHistory{}, fmt.Errorf("chargelinks: resolve sender %s: %w", doc.SenderID, err)
	}
	if sender == nil {
		return LinkHistory{}, fmt.Errorf("chargelinks: sender %s not registered", doc.SenderID)
	}
	return LinkHistory{
		Link:          link,
		SenderID:      sender.ActorID,
		SenderRole:    sender.Role,
		RecordedAt:    f.now(),
		CorrelationID: correlationID,
	}, nil
}
