package validation

import (
	"context"
	"fmt"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/marketparticipants"
	"github.com/gridmarket/charges/internal/shared"
)

// Factory assembles the rule set gating a command. Input rules are pure
// functions of the command; business rules need reference data, which the
// factory resolves exactly once per command and hands to the rule
// constructors, keeping all validation I/O in one auditable place.
type Factory struct {
	charges      charges.Repository
	participants marketparticipants.Repository
	zoned        *shared.ZonedTimeService
	bounds       ValidityInterval
}

// NewFactory wires the factory's lookups and configuration.
func NewFactory(
	chargeRepo charges.Repository,
	participantRepo marketparticipants.Repository,
	zoned *shared.ZonedTimeService,
	bounds ValidityInterval,
) *Factory {
	return &Factory{
		charges:      chargeRepo,
		participants: participantRepo,
		zoned:        zoned,
		bounds:       bounds,
	}
}

// InputRulesFor builds the fixed-order structural rule set for a command.
// No I/O happens here or inside Validate.
func (f *Factory) InputRulesFor(cmd charges.Command) RuleSet {
	rules := []Rule{
		SenderIsMandatoryRule(cmd.Document),
		RecipientIsMandatoryRule(cmd.Document),
	}
	for _, op := range cmd.Operations {
		rules = append(rules,
			OperationIDRequiredRule(op),
			OperationIDLengthBoundedRule(op),
			ChargeIDRequiredRule(op),
			ChargeIDLengthBoundedRule(op),
			ChargeTypeIsKnownRule(op),
			StartDateRule(op, f.bounds, f.zoned),
		)
		switch op.Kind {
		case charges.KindCreate, charges.KindUpdate:
			rules = append(rules,
				ResolutionIsRequiredRule(op),
				ResolutionMatchesChargeTypeRule(op),
				PriceListMustStartAndStopAtMidnightRule(op, f.zoned),
				NumberOfPointsMatchTimeIntervalAndResolutionRule(op, f.zoned),
				MaximumPriceRule(op),
				MaximumDigitsAndDecimalsRule(op),
			)
		case charges.KindStop:
			rules = append(rules,
				PriceListMustStartAndStopAtMidnightRule(op, f.zoned),
			)
		}
	}
	return NewRuleSet(rules...)
}

// BusinessRulesFor resolves the sender and the addressed charges once, then
// builds the fixed-order state rule set from the resolved facts.
func (f *Factory) BusinessRulesFor(ctx context.Context, cmd charges.Command) (RuleSet, error) {
	sender, err := f.participants.GetOrNull(ctx, cmd.Document.SenderID)
	if err != nil {
		return RuleSet{}, fmt.Errorf("validation: resolve sender: %w", err)
	}

	rules := []Rule{
		SenderMustBeExistingParticipantRule(sender),
		SenderRoleMustAllowAdministrationRule(sender),
	}

	resolved := make(map[string]*charges.Charge)
	for _, op := range cmd.Operations {
		key := op.Identifier().Key()
		existing, ok := resolved[key]
		if !ok {
			existing, err = f.charges.GetOrNull(ctx, op.Identifier())
			if err != nil {
				return RuleSet{}, fmt.Errorf("validation: resolve charge %s: %w", key, err)
			}
			resolved[key] = existing
		}

		rules = append(rules, ChargeOwnerMustMatchSenderRule(op, cmd.Document))
		switch op.Kind {
		case charges.KindUpdate, charges.KindStop:
			rules = append(rules, ChargeMustExistRule(op, existing))
		}
		if op.Kind != charges.KindStop {
			rules = append(rules, MonthlyPriceSeriesEndDateRule(op, existing, f.zoned))
		}
	}
	return NewRuleSet(rules...), nil
}
