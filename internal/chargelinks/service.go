package chargelinks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/processing"
	"github.com/gridmarket/charges/internal/charges/validation"
	"github.com/gridmarket/charges/internal/shared"
)

// AcceptedEvent is emitted after link mutations are persisted.
type AcceptedEvent struct {
	CorrelationID string      `json:"correlationId"`
	Command       LinkCommand `json:"command"`
	AcceptedAt    time.Time   `json:"acceptedAt"`
}

// RejectedEvent carries the complete, order-preserved rejection reasons.
type RejectedEvent struct {
	CorrelationID    string                       `json:"correlationId"`
	Command          LinkCommand                  `json:"command"`
	ValidationErrors []processing.ValidationError `json:"validationErrors"`
	RejectedAt       time.Time                    `json:"rejectedAt"`
}

// Publisher hands link events to the outbound transport.
type Publisher interface {
	PublishLinkAccepted(ctx context.Context, event AcceptedEvent) error
	PublishLinkRejected(ctx context.Context, event RejectedEvent) error
}

// Outcome is the caller-visible decision for one link command.
type Outcome struct {
	CorrelationID string                       `json:"correlationId"`
	Accepted      bool                         `json:"accepted"`
	Errors        []processing.ValidationError `json:"errors,omitempty"`
}

// Service drives link commands through the same two-phase validation as
// charge commands, then persists links together with their history records.
// Commands addressing the same charge are serialised from overlap validation
// through commit, so two concurrent links can never both see an empty
// timeline and insert overlapping intervals.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	charges   charges.Repository
	history   *HistoryFactory
	publisher Publisher
	locks     *shared.KeyedMutex
}

// NewService constructs the link orchestrator.
func NewService(logger *slog.Logger, repo Repository, chargeRepo charges.Repository, history *HistoryFactory, publisher Publisher) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		charges:   chargeRepo,
		history:   history,
		publisher: publisher,
		locks:     shared.NewKeyedMutex(),
	}
}

// Handle processes one link command to a terminal decision.
func (s *Service) Handle(ctx context.Context, cmd LinkCommand) (Outcome, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}

	if result := s.inputRules(cmd).Validate(); result.IsFailed() {
		return s.reject(ctx, cmd, result)
	}

	unlock := s.lockCharges(cmd)
	defer unlock()

	businessRules, err := s.businessRules(ctx, cmd)
	if err != nil {
		return Outcome{}, err
	}
	if result := businessRules.Validate(); result.IsFailed() {
		return s.reject(ctx, cmd, result)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, op := range cmd.Operations {
			link := op.Link()
			id, err := repo.Add(ctx, link)
			if err != nil {
				return err
			}
			link.ID = id

			history, err := s.history.Create(ctx, link, cmd.Document, cmd.CorrelationID)
			if err != nil {
				return err
			}
			if err := repo.AddHistory(ctx, history); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	event := AcceptedEvent{CorrelationID: cmd.CorrelationID, Command: cmd, AcceptedAt: time.Now()}
	if err := s.publisher.PublishLinkAccepted(ctx, event); err != nil {
		return Outcome{}, fmt.Errorf("chargelinks: publish accepted: %w", err)
	}
	s.logger.Info("charge link command accepted",
		slog.String("correlationId", cmd.CorrelationID),
		slog.Int("operations", len(cmd.Operations)),
	)
	return Outcome{CorrelationID: cmd.CorrelationID, Accepted: true}, nil
}

// lockCharges serialises the command against other link commands addressing
// the same charges. Keys are acquired in sorted order so two batches can
// never deadlock each other.
func (s *Service) lockCharges(cmd LinkCommand) func() {
	seen := make(map[string]struct{})
	var keys []string
	for _, op := range cmd.Operations {
		key := op.ChargeIdentifier().Key()
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

func (s *Service) inputRules(cmd LinkCommand) validation.RuleSet {
	rules := []validation.Rule{
		validation.SenderIsMandatoryRule(cmd.Document),
		validation.RecipientIsMandatoryRule(cmd.Document),
	}
	for _, op := range cmd.Operations {
		rules = append(rules, OperationInputRules(op)...)
	}
	return validation.NewRuleSet(rules...)
}

func (s *Service) businessRules(ctx context.Context, cmd LinkCommand) (validation.RuleSet, error) {
	var rules []validation.Rule
	for _, op := range cmd.Operations {
		existing, err := s.charges.GetOrNull(ctx, op.ChargeIdentifier())
		if err != nil {
			return validation.RuleSet{}, fmt.Errorf("chargelinks: resolve charge %s: %w", op.ChargeIdentifier().Key(), err)
		}
		rules = append(rules, LinkedChargeMustExistRule(op, existing))

		links, err := s.repo.ListForCharge(ctx, op.ChargeIdentifier())
		if err != nil {
			return validation.RuleSet{}, err
		}
		rules = append(rules, UpdateNotYetSupportedRule(op, links))
	}
	return validation.NewRuleSet(rules...), nil
}

func (s *Service) reject(ctx context.Context, cmd LinkCommand, result validation.Result) (Outcome, error) {
	errs := make([]processing.ValidationError, 0)
	for _, r := range result.InvalidRules() {
		errs = append(errs, processing.ValidationError{Identifier: r.Identifier, TriggeredBy: r.TriggeredBy})
	}
	event := RejectedEvent{
		CorrelationID:    cmd.CorrelationID,
		Command:          cmd,
		ValidationErrors: errs,
		RejectedAt:       time.Now(),
	}
	if err := s.publisher.PublishLinkRejected(ctx, event); err != nil {
		return Outcome{}, fmt.Errorf("chargelinks: publish rejected: %w", err)
	}
	s.logger.Info("charge link command rejected",
		slog.String("correlationId", cmd.CorrelationID),
		slog.Int("reasons", len(errs)),
	)
	return Outcome{CorrelationID: cmd.CorrelationID, Accepted: false, Errors: errs}, nil
}

// ListForMeteringPoint exposes the read side for the HTTP surface.
func (s *Service) ListForMeteringPoint(ctx context.Context, meteringPointID string) ([]ChargeLink, error) {
	return s.repo.ListForMeteringPoint(ctx, meteringPointID)
}
