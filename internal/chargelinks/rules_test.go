package chargelinks

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridmarket/charges/internal/charges"
	"github.com/gridmarket/charges/internal/charges/validation"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func linkIdentifier() charges.ChargeIdentifier {
	return charges.ChargeIdentifier{SenderProvidedChargeID: "EA-001", OwnerID: "5790000000001", ChargeType: charges.ChargeTypeTariff}
}

func TestOverlaps(t *testing.T) {
	base := ChargeLink{StartDateTime: day(2024, time.January, 1), EndDateTime: day(2024, time.June, 1)}

	require.True(t, base.Overlaps(ChargeLink{StartDateTime: day(2024, time.May, 1), EndDateTime: day(2024, time.December, 1)}))
	require.True(t, base.Overlaps(ChargeLink{StartDateTime: day(2023, time.December, 1), EndDateTime: day(2024, time.January, 2)}))
	require.True(t, base.Overlaps(base))

	// Half-open intervals: touching links do not overlap.
	require.False(t, base.Overlaps(ChargeLink{StartDateTime: day(2024, time.June, 1), EndDateTime: day(2024, time.December, 1)}))
	require.False(t, base.Overlaps(ChargeLink{StartDateTime: day(2023, time.June, 1), EndDateTime: day(2024, time.January, 1)}))
}

func TestUpdateNotYetSupportedRule(t *testing.T) {
	existing := []ChargeLink{
		{Charge: linkIdentifier(), MeteringPointID: "571313000000000001", StartDateTime: day(2024, time.January, 1), EndDateTime: day(2024, time.June, 1)},
	}

	overlapping := LinkOperation{
		OperationID:     "op-1",
		ChargeID:        "EA-001",
		ChargeType:      charges.ChargeTypeTariff,
		OwnerID:         "5790000000001",
		MeteringPointID: "571313000000000001",
		StartDateTime:   day(2024, time.May, 1),
		EndDateTime:     day(2024, time.December, 1),
	}
	rule := UpdateNotYetSupportedRule(overlapping, existing)
	require.False(t, rule.IsValid)
	require.Equal(t, validation.IdentifierUpdateNotYetSupported, rule.Identifier)
	require.Equal(t, "op-1", rule.TriggeredBy)

	touching := overlapping
	touching.StartDateTime = day(2024, time.June, 1)
	require.True(t, UpdateNotYetSupportedRule(touching, existing).IsValid)

	otherPoint := overlapping
	otherPoint.MeteringPointID = "571313000000000002"
	require.True(t, UpdateNotYetSupportedRule(otherPoint, existing).IsValid)
}

func TestLinkOperationEffectiveEnd(t *testing.T) {
	op := LinkOperation{StartDateTime: day(2024, time.January, 1)}
	require.Equal(t, charges.EndDefault, op.EffectiveEnd())
	require.True(t, op.Link().EndDateTime.Equal(charges.EndDefault))

	op.EndDateTime = day(2024, time.June, 1)
	require.Equal(t, day(2024, time.June, 1), op.EffectiveEnd())
}

func TestOperationInputRules(t *testing.T) {
	valid := LinkOperation{OperationID: "op-1", ChargeID: "EA-001"}
	for _, rule := range OperationInputRules(valid) {
		require.True(t, rule.IsValid, string(rule.Identifier))
	}

	invalid := LinkOperation{OperationID: strings.Repeat("x", 101), ChargeID: "12345678901"}
	rules := OperationInputRules(invalid)
	require.Len(t, rules, 4)
	require.True(t, rules[0].IsValid)
	require.False(t, rules[1].IsValid)
	require.True(t, rules[2].IsValid)
	require.False(t, rules[3].IsValid)
}

func TestLinkedChargeMustExist(t *testing.T) {
	op := LinkOperation{OperationID: "op-1"}
	require.False(t, LinkedChargeMustExistRule(op, nil).IsValid)
	require.True(t, LinkedChargeMustExistRule(op, &charges.Charge{}).IsValid)
}
