package validation

import (
	"math"
	"strings"
	"time"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/shared"
)

const (
	maxOperationIDLength = 100
	maxChargeIDLength    = 10

	// maximumPrice bounds a single price point.
	maximumPrice = 1_000_000
	// maximumIntegerDigits and maximumDecimals bound price precision.
	maximumIntegerDigits = 8
	maximumDecimals      = 6
)

// ValidityInterval is the configured window, in signed day offsets from the
// zoned "today", within which a charge may start.
type ValidityInterval struct {
	StartDays int
	EndDays   int
}

// SenderIsMandatoryRule checks the document carries a sender.
func SenderIsMandatoryRule(doc charges.Document) Rule {
	return Rule{
		Identifier: IdentifierSenderIsMandatory,
		IsValid:    strings.TrimSpace(doc.SenderID) != "",
	}
}

// RecipientIsMandatoryRule checks the document carries a recipient.
func RecipientIsMandatoryRule(doc charges.Document) Rule {
	return Rule{
		Identifier: IdentifierRecipientIsMandatory,
		IsValid:    strings.TrimSpace(doc.RecipientID) != "",
	}
}

// OperationIDRequiredRule checks the operation identifies itself.
func OperationIDRequiredRule(op charges.Operation) Rule {
	return Rule{
		Identifier:  IdentifierOperationIDRequired,
		IsValid:     strings.TrimSpace(op.OperationID) != "",
		TriggeredBy: op.OperationID,
	}
}

// OperationIDLengthBoundedRule bounds the operation id length.
func OperationIDLengthBoundedRule(op charges.Operation) Rule {
	return Rule{
		Identifier:  IdentifierOperationIDLengthBounded,
		IsValid:     len(op.OperationID) <= maxOperationIDLength,
		TriggeredBy: op.OperationID,
	}
}

// ChargeIDRequiredRule checks the operation addresses a charge.
func ChargeIDRequiredRule(op charges.Operation) Rule {
	return Rule{
		Identifier:  IdentifierChargeIDRequired,
		IsValid:     strings.TrimSpace(op.ChargeID) != "",
		TriggeredBy: op.OperationID,
	}
}

// ChargeIDLengthBoundedRule bounds the sender-provided charge id length.
func ChargeIDLengthBoundedRule(op charges.Operation) Rule {
	return Rule{
		Identifier:  IdentifierChargeIDLengthBounded,
		IsValid:     len(op.ChargeID) <= maxChargeIDLength,
		TriggeredBy: op.OperationID,
	}
}

// ChargeTypeIsKnownRule checks the charge type enumeration.
func ChargeTypeIsKnownRule(op charges.Operation) Rule {
	return Rule{
		Identifier:  IdentifierChargeTypeIsKnown,
		IsValid:     op.ChargeType.IsKnown(),
		TriggeredBy: op.OperationID,
	}
}

// ResolutionIsRequiredRule checks create/update operations declare a price
// series resolution.
func ResolutionIsRequiredRule(op charges.Operation) Rule {
	return Rule{
		Identifier:  IdentifierResolutionIsRequired,
		IsValid:     op.Resolution.IsKnown(),
		TriggeredBy: op.OperationID,
	}
}

// ResolutionMatchesChargeTypeRule checks the resolution allowed for the
// operation's charge type: tariffs price per day or hour, fees and
// subscriptions per day or month.
func ResolutionMatchesChargeTypeRule(op charges.Operation) Rule {
	identifier := IdentifierResolutionTariffMustBeDailyOrHourly
	valid := true
	switch op.ChargeType {
	case charges.ChargeTypeTariff:
		valid = op.Resolution == charges.ResolutionDay || op.Resolution == charges.ResolutionHour
	case charges.ChargeTypeFee:
		identifier = IdentifierResolutionFeeMustBeDailyOrMonthly
		valid = op.Resolution == charges.ResolutionDay || op.Resolution == charges.ResolutionMonth
	case charges.ChargeTypeSubscription:
		identifier = IdentifierResolutionSubscriptionMustBeDailyOrMonthly
		valid = op.Resolution == charges.ResolutionDay || op.Resolution == charges.ResolutionMonth
	}
	return Rule{Identifier: identifier, IsValid: valid, TriggeredBy: op.OperationID}
}

// StartDateRule checks the operation's validity start falls inside the
// configured window around the zoned "today": with offsets {Start, End} the
// start must satisfy today+Start <= start < today+End+1 (both bounds at local
// midnight, the End day itself inclusive).
func StartDateRule(op charges.Operation, bounds ValidityInterval, zoned *shared.ZonedTimeService) Rule {
	today := zoned.TodayAtMidnight()
	periodStart := today.AddDate(0, 0, bounds.StartDays)
	periodEnd := today.AddDate(0, 0, bounds.EndDays+1)
	start := zoned.ResolveLocalLeniently(zoned.InZone(op.StartDateTime))
	return Rule{
		Identifier:  IdentifierTimeLimitsNotFollowed,
		IsValid:     !start.Before(periodStart) && start.Before(periodEnd),
		TriggeredBy: op.OperationID,
	}
}

// PriceListMustStartAndStopAtMidnightRule checks both period boundaries fall
// exactly on local midnight. The open-end sentinel is exempt.
func PriceListMustStartAndStopAtMidnightRule(op charges.Operation, zoned *shared.ZonedTimeService) Rule {
	valid := zoned.IsMidnight(op.StartDateTime)
	if end := op.EffectiveEnd(); valid && !end.Equal(charges.EndDefault) {
		valid = zoned.IsMidnight(end)
	}
	return Rule{
		Identifier:  IdentifierPriceListMustStartAndStopAtMidnight,
		IsValid:     valid,
		TriggeredBy: op.OperationID,
	}
}

// NumberOfPointsMatchTimeIntervalAndResolutionRule checks the price series
// carries exactly one point per resolution step of its interval. Resolution
// steps are counted in the market zone so daylight saving days keep their
// calendar length.
func NumberOfPointsMatchTimeIntervalAndResolutionRule(op charges.Operation, zoned *shared.ZonedTimeService) Rule {
	rule := Rule{Identifier: IdentifierNumberOfPointsMatchTimeInterval, IsValid: true, TriggeredBy: op.OperationID}
	if len(op.Points) == 0 {
		return rule
	}
	end := op.EffectiveEnd()
	if end.Equal(charges.EndDefault) {
		return rule
	}
	rule.IsValid = resolutionSteps(zoned.InZone(op.StartDateTime), zoned.InZone(end), op.Resolution) == len(op.Points)
	return rule
}

// resolutionSteps counts whole resolution units between two zoned instants.
// Returns -1 when the interval is not a whole number of units.
func resolutionSteps(start, end time.Time, resolution charges.Resolution) int {
	steps := 0
	cursor := start
	for cursor.Before(end) {
		switch resolution {
		case charges.ResolutionDay:
			cursor = cursor.AddDate(0, 0, 1)
		case charges.ResolutionMonth:
			cursor = cursor.AddDate(0, 1, 0)
		case charges.ResolutionHour:
			cursor = cursor.Add(time.Hour)
		default:
			return -1
		}
		steps++
	}
	if !cursor.Equal(end) {
		return -1
	}
	return steps
}

// MaximumPriceRule bounds each price point.
func MaximumPriceRule(op charges.Operation) Rule {
	valid := true
	for _, point := range op.Points {
		if point.Price >= maximumPrice || point.Price < 0 {
			valid = false
			break
		}
	}
	return Rule{Identifier: IdentifierMaximumPrice, IsValid: valid, TriggeredBy: op.OperationID}
}

// MaximumDigitsAndDecimalsRule bounds price precision: at most eight integer
// digits and six decimals.
func MaximumDigitsAndDecimalsRule(op charges.Operation) Rule {
	valid := true
	for _, point := range op.Points {
		if !priceWithinPrecision(point.Price) {
			valid = false
			break
		}
	}
	return Rule{Identifier: IdentifierMaximumDigitsAndDecimals, IsValid: valid, TriggeredBy: op.OperationID}
}

func priceWithinPrecision(price float64) bool {
	abs := math.Abs(price)
	if abs >= math.Pow10(maximumIntegerDigits) {
		return false
	}
	scaled := abs * math.Pow10(maximumDecimals)
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}
