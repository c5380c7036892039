package chargelinks

import (
	"time"

	"github.com/gridmarket/charges/internal/charges"
)

// ChargeLink associates a charge with a metering point over a half-open
// interval [StartDateTime, EndDateTime).
type ChargeLink struct {
	ID              int64                    `json:"id"`
	Charge          charges.ChargeIdentifier `json:"charge"`
	MeteringPointID string                   `json:"meteringPointId"`
	StartDateTime   time.Time                `json:"startDateTime"`
	EndDateTime     time.Time                `json:"endDateTime"`
	Factor          int                      `json:"factor"`
}

// Overlaps reports whether two half-open link intervals intersect. Touching
// intervals do not overlap.
func (l ChargeLink) Overlaps(other ChargeLink) bool {
	return l.StartDateTime.Before(other.EndDateTime) && other.StartDateTime.Before(l.EndDateTime)
}

// LinkOperation is one requested link within a command batch.
type LinkOperation struct {
	OperationID     string             `json:"operationId" validate:"required,max=100"`
	ChargeID        string             `json:"chargeId" validate:"required,max=10"`
	ChargeType      charges.ChargeType `json:"chargeType" validate:"required"`
	OwnerID         string             `json:"ownerId" validate:"required"`
	MeteringPointID string             `json:"meteringPointId" validate:"required"`
	StartDateTime   time.Time          `json:"startDateTime"`
	EndDateTime     time.Time          `json:"endDateTime"`
	Factor          int                `json:"factor"`
}

// ChargeIdentifier derives the natural key of the addressed charge.
func (o LinkOperation) ChargeIdentifier() charges.ChargeIdentifier {
	return charges.ChargeIdentifier{
		SenderProvidedChargeID: o.ChargeID,
		OwnerID:                o.OwnerID,
		ChargeType:             o.ChargeType,
	}
}

// EffectiveEnd normalises an absent end date to the open-end sentinel.
func (o LinkOperation) EffectiveEnd() time.Time {
	if o.EndDateTime.IsZero() {
		return charges.EndDefault
	}
	return o.EndDateTime
}

// Link builds the charge link the operation describes.
func (o LinkOperation) Link() ChargeLink {
	return ChargeLink{
		Charge:          o.ChargeIdentifier(),
		MeteringPointID: o.MeteringPointID,
		StartDateTime:   o.StartDateTime,
		EndDateTime:     o.EffectiveEnd(),
		Factor:          o.Factor,
	}
}

// LinkCommand is an inbound charge link request.
type LinkCommand struct {
	CorrelationID string           `json:"correlationId"`
	Document      charges.Document `json:"document" validate:"required"`
	Operations    []LinkOperation  `json:"operations" validate:"required,min=1,dive"`
}

// LinkHistory is the audit record produced for every accepted link, consumed
// by the downstream notification flow.
type LinkHistory struct {
	Link          ChargeLink         `json:"link"`
	SenderID      string             `json:"senderId"`
	SenderRole    charges.MarketRole `json:"senderRole"`
	RecordedAt    time.Time          `json:"recordedAt"`
	CorrelationID string             `json:"correlationId"`
}
