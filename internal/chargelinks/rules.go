package chargelinks

import (
	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/validation"
)

// UpdateNotYetSupportedRule checks a requested link does not intersect any
// existing link of the same charge and metering point. Updating an existing
// association in place is not supported yet, so any overlap rejects the
// operation; a link that merely touches an existing one is a plain addition.
func UpdateNotYetSupportedRule(op LinkOperation, existing []ChargeLink) validation.Rule {
	requested := op.Link()
	valid := true
	for _, link := range existing {
		if link.MeteringPointID != requested.MeteringPointID {
			continue
		}
		if link.Overlaps(requested) {
			valid = false
			break
		}
	}
	return validation.Rule{
		Identifier:  validation.IdentifierUpdateNotYetSupported,
		IsValid:     valid,
		TriggeredBy: op.OperationID,
	}
}

// OperationInputRules builds the structural rules for one link operation in
// the fixed order shared with charge operations.
func OperationInputRules(op LinkOperation) []validation.Rule {
	return []validation.Rule{
		{
			Identifier:  validation.IdentifierOperationIDRequired,
			IsValid:     op.OperationID != "",
			TriggeredBy: op.OperationID,
		},
		{
			Identifier:  validation.IdentifierOperationIDLengthBounded,
			IsValid:     len(op.OperationID) <= 100,
			TriggeredBy: op.OperationID,
		},
		{
			Identifier:  validation.IdentifierChargeIDRequired,
			IsValid:     op.ChargeID != "",
			TriggeredBy: op.OperationID,
		},
		{
			Identifier:  validation.IdentifierChargeIDLengthBounded,
			IsValid:     len(op.ChargeID) <= 10,
			TriggeredBy: op.OperationID,
		},
	}
}

// LinkedChargeMustExistRule checks the charge addressed by the link was
// found.
func LinkedChargeMustExistRule(op LinkOperation, existing *charges.Charge) validation.Rule {
	return validation.Rule{
		Identifier:  validation.IdentifierChargeDoesNotExist,
		IsValid:     existing != nil,
		TriggeredBy: op.OperationID,
	}
}
