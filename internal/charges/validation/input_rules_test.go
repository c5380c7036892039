package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/shared"
)

func utcClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func utcZoned(t *testing.T, now func() time.Time) *shared.ZonedTimeService {
	t.Helper()
	zoned, err := shared.NewZonedTimeServiceAt("UTC", now)
	require.NoError(t, err)
	return zoned
}

func TestSenderAndRecipientAreMandatory(t *testing.T) {
	doc := charges.Document{SenderID: "5790000000001", RecipientID: "5790000000002"}
	require.True(t, SenderIsMandatoryRule(doc).IsValid)
	require.True(t, RecipientIsMandatoryRule(doc).IsValid)

	require.False(t, SenderIsMandatoryRule(charges.Document{SenderID: "  "}).IsValid)
	require.False(t, RecipientIsMandatoryRule(charges.Document{}).IsValid)
}

func TestOperationAndChargeIDBounds(t *testing.T) {
	op := charges.Operation{OperationID: "op-1", ChargeID: "EA-001"}
	require.True(t, OperationIDRequiredRule(op).IsValid)
	require.True(t, OperationIDLengthBoundedRule(op).IsValid)
	require.True(t, ChargeIDRequiredRule(op).IsValid)
	require.True(t, ChargeIDLengthBoundedRule(op).IsValid)

	long := charges.Operation{
		OperationID: strings.Repeat("x", 101),
		ChargeID:    "12345678901",
	}
	require.False(t, OperationIDLengthBoundedRule(long).IsValid)
	require.False(t, ChargeIDLengthBoundedRule(long).IsValid)
	require.False(t, OperationIDRequiredRule(charges.Operation{}).IsValid)
	require.False(t, ChargeIDRequiredRule(charges.Operation{OperationID: "op-1"}).IsValid)
}

func TestChargeTypeIsKnown(t *testing.T) {
	require.True(t, ChargeTypeIsKnownRule(charges.Operation{ChargeType: charges.ChargeTypeFee}).IsValid)
	require.False(t, ChargeTypeIsKnownRule(charges.Operation{ChargeType: "D03"}).IsValid)
}

func TestResolutionMatchesChargeType(t *testing.T) {
	cases := []struct {
		chargeType charges.ChargeType
		resolution charges.Resolution
		identifier RuleIdentifier
		valid      bool
	}{
		{charges.ChargeTypeTariff, charges.ResolutionHour, IdentifierResolutionTariffMustBeDailyOrHourly, true},
		{charges.ChargeTypeTariff, charges.ResolutionDay, IdentifierResolutionTariffMustBeDailyOrHourly, true},
		{charges.ChargeTypeTariff, charges.ResolutionMonth, IdentifierResolutionTariffMustBeDailyOrHourly, false},
		{charges.ChargeTypeFee, charges.ResolutionMonth, IdentifierResolutionFeeMustBeDailyOrMonthly, true},
		{charges.ChargeTypeFee, charges.ResolutionHour, IdentifierResolutionFeeMustBeDailyOrMonthly, false},
		{charges.ChargeTypeSubscription, charges.ResolutionDay, IdentifierResolutionSubscriptionMustBeDailyOrMonthly, true},
		{charges.ChargeTypeSubscription, charges.ResolutionHour, IdentifierResolutionSubscriptionMustBeDailyOrMonthly, false},
	}
	for _, tc := range cases {
		rule := ResolutionMatchesChargeTypeRule(charges.Operation{ChargeType: tc.chargeType, Resolution: tc.resolution})
		require.Equal(t, tc.identifier, rule.Identifier)
		require.Equal(t, tc.valid, rule.IsValid, "%s %s", tc.chargeType, tc.resolution)
	}
}

func TestStartDateRuleWindow(t *testing.T) {
	zoned := utcZoned(t, utcClock(2024, time.March, 1))
	bounds := ValidityInterval{StartDays: -10, EndDays: 5}

	cases := []struct {
		start time.Time
		valid bool
	}{
		{time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, time.February, 19, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		rule := StartDateRule(charges.Operation{OperationID: "op-1", StartDateTime: tc.start}, bounds, zoned)
		require.Equal(t, IdentifierTimeLimitsNotFollowed, rule.Identifier)
		require.Equal(t, tc.valid, rule.IsValid, "start %s", tc.start)
		require.Equal(t, "op-1", rule.TriggeredBy)
	}
}

func TestPriceListMustStartAndStopAtMidnight(t *testing.T) {
	zoned := utcZoned(t, utcClock(2024, time.March, 1))

	open := charges.Operation{StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)}
	require.True(t, PriceListMustStartAndStopAtMidnightRule(open, zoned).IsValid)

	offStart := charges.Operation{StartDateTime: time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC)}
	require.False(t, PriceListMustStartAndStopAtMidnightRule(offStart, zoned).IsValid)

	offEnd := charges.Operation{
		StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC),
	}
	require.False(t, PriceListMustStartAndStopAtMidnightRule(offEnd, zoned).IsValid)

	bounded := charges.Operation{
		StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	require.True(t, PriceListMustStartAndStopAtMidnightRule(bounded, zoned).IsValid)
}

func TestNumberOfPointsMatchTimeIntervalAndResolution(t *testing.T) {
	zoned := utcZoned(t, utcClock(2024, time.March, 1))

	points := func(n int) []charges.PricePoint {
		out := make([]charges.PricePoint, n)
		for i := range out {
			out[i] = charges.PricePoint{Position: i + 1, Price: 0.25}
		}
		return out
	}

	daily := charges.Operation{
		Resolution:    charges.ResolutionDay,
		StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
	}
	daily.Points = points(3)
	require.True(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(daily, zoned).IsValid)
	daily.Points = points(2)
	require.False(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(daily, zoned).IsValid)

	hourly := charges.Operation{
		Resolution:    charges.ResolutionHour,
		StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}
	hourly.Points = points(24)
	require.True(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(hourly, zoned).IsValid)
	hourly.Points = points(23)
	require.False(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(hourly, zoned).IsValid)

	monthly := charges.Operation{
		Resolution:    charges.ResolutionMonth,
		StartDateTime: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	monthly.Points = points(3)
	require.True(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(monthly, zoned).IsValid)

	// Interval not a whole number of units.
	ragged := charges.Operation{
		Resolution:    charges.ResolutionDay,
		StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC),
	}
	ragged.Points = points(2)
	require.False(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(ragged, zoned).IsValid)

	// Open-ended and empty price lists are out of this rule's scope.
	open := charges.Operation{
		Resolution:    charges.ResolutionDay,
		StartDateTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Points:        points(5),
	}
	require.True(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(open, zoned).IsValid)
	require.True(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(charges.Operation{Resolution: charges.ResolutionDay}, zoned).IsValid)
}

func TestPointsCountDaylightSavingDay(t *testing.T) {
	zoned, err := shared.NewZonedTimeServiceAt("Europe/Copenhagen", utcClock(2024, time.March, 1))
	require.NoError(t, err)
	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)

	// 2024-03-31 is the spring transition; the calendar day still counts as
	// one daily step.
	op := charges.Operation{
		Resolution:    charges.ResolutionDay,
		StartDateTime: time.Date(2024, time.March, 31, 0, 0, 0, 0, loc),
		EndDateTime:   time.Date(2024, time.April, 1, 0, 0, 0, 0, loc),
		Points:        []charges.PricePoint{{Position: 1, Price: 1}},
	}
	require.True(t, NumberOfPointsMatchTimeIntervalAndResolutionRule(op, zoned).IsValid)
}

func TestMaximumPrice(t *testing.T) {
	op := func(price float64) charges.Operation {
		return charges.Operation{Points: []charges.PricePoint{{Position: 1, Price: price}}}
	}
	require.True(t, MaximumPriceRule(op(999999.99)).IsValid)
	require.True(t, MaximumPriceRule(op(0)).IsValid)
	require.False(t, MaximumPriceRule(op(1_000_000)).IsValid)
	require.False(t, MaximumPriceRule(op(-0.01)).IsValid)
	require.True(t, MaximumPriceRule(charges.Operation{}).IsValid)
}

func TestMaximumDigitsAndDecimals(t *testing.T) {
	op := func(price float64) charges.Operation {
		return charges.Operation{Points: []charges.PricePoint{{Position: 1, Price: price}}}
	}
	require.True(t, MaximumDigitsAndDecimalsRule(op(1234.5)).IsValid)
	require.True(t, MaximumDigitsAndDecimalsRule(op(0.000001)).IsValid)
	require.True(t, MaximumDigitsAndDecimalsRule(op(99999999)).IsValid)
	require.False(t, MaximumDigitsAndDecimalsRule(op(100000000)).IsValid)
	require.False(t, MaximumDigitsAndDecimalsRule(op(0.0000001)).IsValid)
}
