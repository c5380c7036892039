package validation

import (
	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/marketparticipants"
	"github.com/gridmarket/charges/internal/shared"
)

// Business rules are evaluated against reference data the factory resolved
// up front. The constructors take the resolved charge-or-nil and
// participant-or-nil; they never touch a repository themselves.

// SenderMustBeExistingParticipantRule checks the document sender resolves to
// an active market participant.
func SenderMustBeExistingParticipantRule(sender *marketparticipants.MarketParticipant) Rule {
	return Rule{
		Identifier: IdentifierSenderMustBeExistingParticipant,
		IsValid:    sender != nil && sender.IsActive,
	}
}

// SenderRoleMustAllowAdministrationRule checks the resolved sender acts in a
// role that may administer charges.
func SenderRoleMustAllowAdministrationRule(sender *marketparticipants.MarketParticipant) Rule {
	return Rule{
		Identifier: IdentifierSenderRoleMustAllowAdministration,
		IsValid:    sender != nil && sender.MayAdministerCharges(),
	}
}

// ChargeMustExistRule checks the addressed charge was found. Applies to
// update and stop operations; creates address a charge that does not exist
// yet.
func ChargeMustExistRule(op charges.Operation, existing *charges.Charge) Rule {
	return Rule{
		Identifier:  IdentifierChargeDoesNotExist,
		IsValid:     existing != nil,
		TriggeredBy: op.OperationID,
	}
}

// ChargeOwnerMustMatchSenderRule checks the declared owner equals the
// document sender.
func ChargeOwnerMustMatchSenderRule(op charges.Operation, doc charges.Document) Rule {
	return Rule{
		Identifier:  IdentifierChargeOwnerMustMatchSender,
		IsValid:     op.OwnerID == doc.SenderID,
		TriggeredBy: op.OperationID,
	}
}

// MonthlyPriceSeriesEndDateRule checks a monthly price series ends on the
// first of a month, or exactly on the stop date of an already-bounded charge.
func MonthlyPriceSeriesEndDateRule(op charges.Operation, existing *charges.Charge, zoned *shared.ZonedTimeService) Rule {
	rule := Rule{Identifier: IdentifierMonthlyPriceSeriesEndDate, IsValid: true, TriggeredBy: op.OperationID}
	if op.Resolution != charges.ResolutionMonth || len(op.Points) == 0 {
		return rule
	}
	end := op.EffectiveEnd()
	if end.Equal(charges.EndDefault) {
		return rule
	}
	if existing != nil && len(existing.Periods) > 0 {
		tail := existing.Periods[len(existing.Periods)-1]
		if !tail.IsOpenEnded() && end.Equal(tail.EndDateTime) {
			return rule
		}
	}
	rule.IsValid = zoned.IsFirstOfMonth(end)
	return rule
}
