package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gridmarket/charges/internal/chargelinks"
	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/processing"
	"github.com/gridmarket/charges/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeChargeCommand carries an inbound charge command to the worker.
	TaskTypeChargeCommand = "charges:command"
	// TaskTypeLinkCommand carries an inbound charge link command.
	TaskTypeLinkCommand = "charges:link-command"
	// TaskTypeChargeNotify fans an accepted command out to downstream
	// subscribers.
	TaskTypeChargeNotify = "charges:notify"
	// TaskTypeChargeReject fans rejection reasons out so senders get one
	// message carrying every failed rule.
	TaskTypeChargeReject = "charges:notify-rejected"
	// TaskTypeIdempotencyCleanup prunes processed operation ids past the
	// retention window.
	TaskTypeIdempotencyCleanup = "charges:idempotency-cleanup"
)

// NewChargeCommandTask wraps a command into an Asynq task.
func NewChargeCommandTask(cmd charges.Command) (*asynq.Task, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeChargeCommand, data), nil
}

// NewLinkCommandTask wraps a link command into an Asynq task.
func NewLinkCommandTask(cmd chargelinks.LinkCommand) (*asynq.Task, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLinkCommand, data), nil
}

// NewChargeNotifyTask wraps an accepted event for downstream notification.
func NewChargeNotifyTask(event processing.AcceptedEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeChargeNotify, data), nil
}

// NewChargeRejectTask wraps a rejected event for downstream notification.
func NewChargeRejectTask(event processing.RejectedEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeChargeReject, data), nil
}

// HandleChargeCommandTask processes TaskTypeChargeCommand tasks. Rejections
// are terminal decisions, not failures; only infrastructure errors are
// retried, and invariant violations skip retry because redelivery would
// reproduce the defect.
func HandleChargeCommandTask(svc *processing.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var cmd charges.Command
		if err := json.Unmarshal(t.Payload(), &cmd); err != nil {
			return fmt.Errorf("decode charge command: %v: %w", err, asynq.SkipRetry)
		}
		outcome, err := svc.Handle(ctx, cmd)
		if err != nil {
			if errors.Is(err, shared.ErrInvariantViolation) {
				logger.Error("charge command hit invariant violation",
					slog.String("correlationId", cmd.CorrelationID),
					slog.Any("error", err),
				)
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		if !outcome.Accepted {
			logger.Info("charge command rejected",
				slog.String("correlationId", outcome.CorrelationID),
				slog.Int("reasons", len(outcome.Errors)),
			)
		}
		return nil
	}
}

// HandleLinkCommandTask processes TaskTypeLinkCommand tasks.
func HandleLinkCommandTask(svc *chargelinks.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var cmd chargelinks.LinkCommand
		if err := json.Unmarshal(t.Payload(), &cmd); err != nil {
			return fmt.Errorf("decode link command: %v: %w", err, asynq.SkipRetry)
		}
		if _, err := svc.Handle(ctx, cmd); err != nil {
			if errors.Is(err, shared.ErrInvariantViolation) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		return nil
	}
}

// HandleChargeNotifyTask forwards accepted commands to downstream consumers
// and drops the read cache so the next list reflects the commit. Document
// bundling and CIM serialization live outside this service, so the handler
// records the hand-off.
func HandleChargeNotifyTask(cache *charges.Cache, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event processing.AcceptedEvent
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			return asynq.SkipRetry
		}
		if err := cache.Bump(ctx); err != nil {
			logger.Warn("bump read cache", slog.Any("error", err))
		}
		logger.Info("charge command handed to notification flow",
			slog.String("correlationId", event.CorrelationID),
			slog.Int("operations", len(event.Command.Operations)),
		)
		return nil
	}
}

// NewIdempotencyCleanupTask builds the scheduled cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// HandleIdempotencyCleanupTask prunes processed operation ids older than
// retention.
func HandleIdempotencyCleanupTask(store *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, retention); err != nil {
			return fmt.Errorf("idempotency cleanup: %w", err)
		}
		logger.Info("idempotency store pruned", slog.Duration("retention", retention))
		return nil
	}
}

// HandleChargeRejectTask forwards rejection reasons to the sender-facing
// notification flow.
func HandleChargeRejectTask(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event processing.RejectedEvent
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			return asynq.SkipRetry
		}
		reasons := make([]string, 0, len(event.ValidationErrors))
		for _, e := range event.ValidationErrors {
			reasons = append(reasons, string(e.Identifier))
		}
		logger.Info("charge command rejection handed to notification flow",
			slog.String("correlationId", event.CorrelationID),
			slog.Any("reasons", reasons),
		)
		return nil
	}
}
