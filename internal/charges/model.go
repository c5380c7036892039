package charges

import (
	"fmt"
	"time"
)

// ChargeType distinguishes the priced products a market participant can own.
type ChargeType string

const (
	ChargeTypeFee          ChargeType = "FEE"
	ChargeTypeTariff       ChargeType = "TARIFF"
	ChargeTypeSubscription ChargeType = "SUBSCRIPTION"
)

// IsKnown reports whether the value belongs to the closed enumeration.
func (t ChargeType) IsKnown() bool {
	switch t {
	case ChargeTypeFee, ChargeTypeTariff, ChargeTypeSubscription:
		return true
	}
	return false
}

// Resolution is the price series granularity of a charge.
type Resolution string

const (
	ResolutionDay   Resolution = "P1D"
	ResolutionHour  Resolution = "PT1H"
	ResolutionMonth Resolution = "P1M"
)

// IsKnown reports whether the value belongs to the closed enumeration.
func (r Resolution) IsKnown() bool {
	switch r {
	case ResolutionDay, ResolutionHour, ResolutionMonth:
		return true
	}
	return false
}

// VatClassification states whether VAT applies to the charge.
type VatClassification string

const (
	VatUnknown VatClassification = "UNKNOWN"
	NoVat      VatClassification = "NO_VAT"
	Vat25      VatClassification = "VAT_25"
)

// EndDefault is the sentinel end of an open-ended period. Using one fixed
// far-future instant instead of a nullable end keeps every period comparison
// a total-order comparison.
var EndDefault = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// ChargeIdentifier is the natural composite key of a charge.
type ChargeIdentifier struct {
	SenderProvidedChargeID string     `json:"chargeId"`
	OwnerID                string     `json:"ownerId"`
	ChargeType             ChargeType `json:"chargeType"`
}

// Key renders the identifier as a single lock/storage key.
func (id ChargeIdentifier) Key() string {
	return fmt.Sprintf("%s|%s|%s", id.OwnerID, id.ChargeType, id.SenderProvidedChargeID)
}

// ChargePeriod is one validity window of a charge's descriptive attributes.
type ChargePeriod struct {
	ID                   int64             `json:"id"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	VatClassification    VatClassification `json:"vatClassification"`
	TransparentInvoicing bool              `json:"transparentInvoicing"`
	StartDateTime        time.Time         `json:"startDateTime"`
	EndDateTime          time.Time         `json:"endDateTime"`
}

// IsOpenEnded reports whether the period ends at the sentinel.
func (p ChargePeriod) IsOpenEnded() bool {
	return p.EndDateTime.Equal(EndDefault)
}

// Charge is the aggregate root. Periods are totally ordered by start, mutually
// non-overlapping and gapless; the tail ends at EndDefault or a concrete stop
// date. All mutation goes through Update, Stop and CancelStop.
type Charge struct {
	ID           int64            `json:"id"`
	Identifier   ChargeIdentifier `json:"identifier"`
	Resolution   Resolution       `json:"resolution"`
	TaxIndicator bool             `json:"taxIndicator"`
	Periods      []ChargePeriod   `json:"periods"`
}

// New creates a charge with its first validity period.
func New(id ChargeIdentifier, resolution Resolution, taxIndicator bool, first ChargePeriod) (*Charge, error) {
	if !first.StartDateTime.Before(first.EndDateTime) {
		return nil, fmt.Errorf("charges: period start %s must precede end %s", first.StartDateTime, first.EndDateTime)
	}
	return &Charge{
		Identifier:   id,
		Resolution:   resolution,
		TaxIndicator: taxIndicator,
		Periods:      []ChargePeriod{first},
	}, nil
}

// PeriodAt returns the period containing the instant, if any.
func (c *Charge) PeriodAt(at time.Time) (ChargePeriod, bool) {
	for _, p := range c.Periods {
		if !at.Before(p.StartDateTime) && at.Before(p.EndDateTime) {
			return p, true
		}
	}
	return ChargePeriod{}, false
}
