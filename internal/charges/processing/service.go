package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/validation"
	"github.com/gridmarket/charges/internal/shared"
)

// Recorder receives processing decisions for metrics.
type Recorder interface {
	CommandProcessed(decision string)
	RuleRejected(identifier string)
}

// Auditor persists one record per processed command.
type Auditor interface {
	Record(ctx context.Context, rec shared.CommandAudit) error
}

// Outcome is the caller-visible decision for one command.
type Outcome struct {
	CorrelationID string            `json:"correlationId"`
	Accepted      bool              `json:"accepted"`
	Errors        []ValidationError `json:"errors,omitempty"`
}

// Service drives a command through input validation, business validation,
// timeline mutation and event emission. Validation never mutates state;
// mutation happens only after both phases pass, and events are published only
// after the transaction committed.
type Service struct {
	logger    *slog.Logger
	repo      charges.Repository
	factory   *validation.Factory
	publisher Publisher
	locks     *shared.KeyedMutex
	auditor   Auditor
	recorder  Recorder
}

// ServiceConfig collects the orchestrator's collaborators. Auditor and
// recorder are optional.
type ServiceConfig struct {
	Logger     *slog.Logger
	Repository charges.Repository
	Factory    *validation.Factory
	Publisher  Publisher
	Auditor    Auditor
	Recorder   Recorder
}

// NewService constructs the orchestrator.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		logger:    cfg.Logger,
		repo:      cfg.Repository,
		factory:   cfg.Factory,
		publisher: cfg.Publisher,
		locks:     shared.NewKeyedMutex(),
		auditor:   cfg.Auditor,
		recorder:  cfg.Recorder,
	}
}

// Handle processes one command to a terminal decision. A rejected command is
// a normal outcome, not an error; errors signal infrastructure failures or
// invariant violations and leave no partial mutation behind.
func (s *Service) Handle(ctx context.Context, cmd charges.Command) (Outcome, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	if len(cmd.Operations) == 0 {
		return Outcome{}, fmt.Errorf("%w: command without operations", shared.ErrInvariantViolation)
	}

	if result := s.factory.InputRulesFor(cmd).Validate(); result.IsFailed() {
		return s.reject(ctx, cmd, result)
	}

	unlock := s.lockCharges(cmd)
	defer unlock()

	businessRules, err := s.factory.BusinessRulesFor(ctx, cmd)
	if err != nil {
		return Outcome{}, err
	}
	if result := businessRules.Validate(); result.IsFailed() {
		return s.reject(ctx, cmd, result)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo charges.Repository) error {
		for _, op := range cmd.Operations {
			if err := s.applyOperation(ctx, repo, op); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return s.accept(ctx, cmd)
}

// lockCharges serialises the command against other commands addressing the
// same charges. Keys are acquired in sorted order so two batches can never
// deadlock each other.
func (s *Service) lockCharges(cmd charges.Command) func() {
	seen := make(map[string]struct{})
	var keys []string
	for _, op := range cmd.Operations {
		key := op.Identifier().Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	unlocks := make([]func(), 0, len(keys))
	for _, key := range keys {
		unlocks = append(unlocks, s.locks.Lock(key))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// applyOperation re-derives the timeline mutation from the command itself so
// that re-processing a redelivered command converges on the same state. The
// operation id is marked on the surrounding transaction: a rollback discards
// the mark together with the mutation, so a failed batch replays in full.
func (s *Service) applyOperation(ctx context.Context, repo charges.Repository, op charges.Operation) error {
	err := repo.MarkProcessed(ctx, op.OperationID, op.Identifier().Key())
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		s.logger.Info("operation already processed", slog.String("operationId", op.OperationID))
		return nil
	}
	if err != nil {
		return err
	}

	existing, err := repo.GetOrNull(ctx, op.Identifier())
	if err != nil {
		return err
	}

	switch op.Kind {
	case charges.KindCreate:
		if existing == nil {
			charge, err := charges.New(op.Identifier(), op.Resolution, op.TaxIndicator, op.Period())
			if err != nil {
				return err
			}
			_, err = repo.Add(ctx, charge)
			return err
		}
		// A redelivered create against an existing charge converges via the
		// idempotent timeline splice.
		if err := existing.Update(op.Period()); err != nil {
			return err
		}
		return repo.UpdatePeriods(ctx, existing)
	case charges.KindUpdate:
		if existing == nil {
			return fmt.Errorf("%w: update of unknown charge %s after business validation", shared.ErrInvariantViolation, op.Identifier().Key())
		}
		if len(existing.Periods) == 0 {
			return fmt.Errorf("%w: charge %s has no periods", shared.ErrInvariantViolation, op.Identifier().Key())
		}
		tail := existing.Periods[len(existing.Periods)-1]
		if !tail.IsOpenEnded() && op.StartDateTime.Equal(tail.EndDateTime) {
			// Resuming exactly at a stop boundary reverses the stop.
			if err := existing.CancelStop(op.Period()); err != nil {
				return err
			}
		} else if err := existing.Update(op.Period()); err != nil {
			return err
		}
		return repo.UpdatePeriods(ctx, existing)
	case charges.KindStop:
		if existing == nil {
			return fmt.Errorf("%w: stop of unknown charge %s after business validation", shared.ErrInvariantViolation, op.Identifier().Key())
		}
		if err := existing.Stop(op.StartDateTime); err != nil {
			return err
		}
		return repo.UpdatePeriods(ctx, existing)
	default:
		return fmt.Errorf("%w: unknown operation kind %q", shared.ErrInvariantViolation, op.Kind)
	}
}

func (s *Service) accept(ctx context.Context, cmd charges.Command) (Outcome, error) {
	event := AcceptedEvent{
		CorrelationID: cmd.CorrelationID,
		Command:       cmd,
		AcceptedAt:    time.Now(),
	}
	if err := s.publisher.PublishAccepted(ctx, event); err != nil {
		return Outcome{}, fmt.Errorf("processing: publish accepted: %w", err)
	}
	s.audit(ctx, cmd, shared.DecisionAccepted, nil)
	if s.recorder != nil {
		s.recorder.CommandProcessed(shared.DecisionAccepted)
	}
	s.logger.Info("charge command accepted",
		slog.String("correlationId", cmd.CorrelationID),
		slog.Int("operations", len(cmd.Operations)),
	)
	return Outcome{CorrelationID: cmd.CorrelationID, Accepted: true}, nil
}

func (s *Service) reject(ctx context.Context, cmd charges.Command, result validation.Result) (Outcome, error) {
	errs := errorsFromResult(result)
	event := RejectedEvent{
		CorrelationID:    cmd.CorrelationID,
		Command:          cmd,
		ValidationErrors: errs,
		RejectedAt:       time.Now(),
	}
	if err := s.publisher.PublishRejected(ctx, event); err != nil {
		return Outcome{}, fmt.Errorf("processing: publish rejected: %w", err)
	}

	reasons := make([]string, 0, len(errs))
	for _, e := range errs {
		reasons = append(reasons, string(e.Identifier))
		if s.recorder != nil {
			s.recorder.RuleRejected(string(e.Identifier))
		}
	}
	s.audit(ctx, cmd, shared.DecisionRejected, reasons)
	if s.recorder != nil {
		s.recorder.CommandProcessed(shared.DecisionRejected)
	}
	s.logger.Info("charge command rejected",
		slog.String("correlationId", cmd.CorrelationID),
		slog.Any("reasons", reasons),
	)
	return Outcome{CorrelationID: cmd.CorrelationID, Accepted: false, Errors: errs}, nil
}

func (s *Service) audit(ctx context.Context, cmd charges.Command, decision string, reasons []string) {
	if s.auditor == nil {
		return
	}
	rec := shared.CommandAudit{
		CorrelationID: cmd.CorrelationID,
		SenderID:      cmd.Document.SenderID,
		Decision:      decision,
		Reasons:       reasons,
		At:            time.Now(),
	}
	if err := s.auditor.Record(ctx, rec); err != nil {
		s.logger.Warn("record command audit", slog.Any("error", err))
	}
}
