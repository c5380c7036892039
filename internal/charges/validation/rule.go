// Package validation implements the rule engine gating every mutation of a
// charge timeline. Rules are pre-evaluated immutable facts: each constructor
// evaluates its predicate eagerly against the command and any already-resolved
// reference data, so rule sets validate without I/O or dynamic dispatch.
package validation

// RuleIdentifier is the stable external vocabulary used to report why a
// command was rejected. Identifiers never change across releases; downstream
// consumers render rejection messages from them.
type RuleIdentifier string

const (
	IdentifierSenderIsMandatory                          RuleIdentifier = "SenderIsMandatory"
	IdentifierRecipientIsMandatory                       RuleIdentifier = "RecipientIsMandatory"
	IdentifierSenderMustBeExistingParticipant            RuleIdentifier = "SenderMustBeAnExistingMarketParticipant"
	IdentifierSenderRoleMustAllowAdministration          RuleIdentifier = "SenderRoleMustBeGridOperatorOrSystemOperator"
	IdentifierOperationIDRequired                        RuleIdentifier = "OperationIdRequired"
	IdentifierOperationIDLengthBounded                   RuleIdentifier = "OperationIdLengthBounded"
	IdentifierChargeIDRequired                           RuleIdentifier = "ChargeIdRequired"
	IdentifierChargeIDLengthBounded                      RuleIdentifier = "ChargeIdLengthBounded"
	IdentifierChargeTypeIsKnown                          RuleIdentifier = "ChargeTypeIsKnown"
	IdentifierResolutionIsRequired                       RuleIdentifier = "ResolutionIsRequired"
	IdentifierResolutionTariffMustBeDailyOrHourly        RuleIdentifier = "ResolutionTariffMustBeDailyOrHourly"
	IdentifierResolutionFeeMustBeDailyOrMonthly          RuleIdentifier = "ResolutionFeeMustBeDailyOrMonthly"
	IdentifierResolutionSubscriptionMustBeDailyOrMonthly RuleIdentifier = "ResolutionSubscriptionMustBeDailyOrMonthly"
	IdentifierTimeLimitsNotFollowed                      RuleIdentifier = "TimeLimitsNotFollowed"
	IdentifierPriceListMustStartAndStopAtMidnight        RuleIdentifier = "PriceListMustStartAndStopAtMidnight"
	IdentifierNumberOfPointsMatchTimeInterval            RuleIdentifier = "NumberOfPointsMatchTimeIntervalAndResolution"
	IdentifierMonthlyPriceSeriesEndDate                  RuleIdentifier = "MonthlyPriceSeriesEndDateMustBeFirstOfMonthOrEqualChargeStopDate"
	IdentifierMaximumPrice                               RuleIdentifier = "MaximumPrice"
	IdentifierMaximumDigitsAndDecimals                   RuleIdentifier = "MaximumDigitsAndDecimals"
	IdentifierChargeDoesNotExist                         RuleIdentifier = "ChargeDoesNotExist"
	IdentifierChargeOwnerMustMatchSender                 RuleIdentifier = "ChargeOwnerMustMatchSender"
	IdentifierUpdateNotYetSupported                      RuleIdentifier = "UpdateNotYetSupported"
	// IdentifierStopChargeLinksNotYetSupported is reserved for the stop flow
	// of charge links, which is not implemented yet.
	IdentifierStopChargeLinksNotYetSupported RuleIdentifier = "StopChargeLinksNotYetSupported"
)

// Rule is a single evaluated validation fact. TriggeredBy carries the
// operation id when the rule checked one operation of a batch, so a failure
// can be attributed without losing the others.
type Rule struct {
	Identifier  RuleIdentifier `json:"identifier"`
	IsValid     bool           `json:"isValid"`
	TriggeredBy string         `json:"triggeredBy,omitempty"`
}