package processing

import (
	"context"
	"time"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/validation"
)

// ValidationError is one rejection reason exposed to downstream consumers:
// the stable rule identifier plus, when the rule checked a single operation
// of a batch, that operation's id.
type ValidationError struct {
	Identifier  validation.RuleIdentifier `json:"identifier"`
	TriggeredBy string                    `json:"triggeredBy,omitempty"`
}

// AcceptedEvent is emitted after a command's mutations are persisted. It
// carries the applied command snapshot for downstream bundling and audit.
type AcceptedEvent struct {
	CorrelationID string          `json:"correlationId"`
	Command       charges.Command `json:"command"`
	AcceptedAt    time.Time       `json:"acceptedAt"`
}

// RejectedEvent is emitted when validation fails. It carries the complete,
// order-preserved list of failed rules; downstream consumers render all
// reasons in one message.
type RejectedEvent struct {
	CorrelationID    string            `json:"correlationId"`
	Command          charges.Command   `json:"command"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RejectedAt       time.Time         `json:"rejectedAt"`
}

// Publisher hands accepted and rejected events to the outbound transport.
// Publishing happens only after successful persistence.
type Publisher interface {
	PublishAccepted(ctx context.Context, event AcceptedEvent) error
	PublishRejected(ctx context.Context, event RejectedEvent) error
}

// errorsFromResult converts failed rules into the external error shape,
// preserving evaluation order.
func errorsFromResult(result validation.Result) []ValidationError {
	rules := result.InvalidRules()
	out := make([]ValidationError, 0, len(rules))
	for _, r := range rules {
		out = append(out, ValidationError{Identifier: r.Identifier, TriggeredBy: r.TriggeredBy})
	}
	return out
}
