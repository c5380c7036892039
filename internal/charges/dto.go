package charges

import "time"

// BusinessReasonCode classifies the market process a document belongs to.
type BusinessReasonCode string

const (
	ReasonUpdateChargeInformation BusinessReasonCode = "UpdateChargeInformation"
	ReasonUpdateChargePrices      BusinessReasonCode = "UpdateChargePrices"
	ReasonUpdateMasterData        BusinessReasonCode = "UpdateMasterData"
)

// MarketRole is the business process role a participant acts in.
type MarketRole string

const (
	RoleGridOperator   MarketRole = "GridOperator"
	RoleSupplier       MarketRole = "Supplier"
	RoleSystemOperator MarketRole = "SystemOperator"
	RoleMeteringAdmin  MarketRole = "MeteringPointAdministrator"
)

// OperationKind is the requested mutation of a charge timeline.
type OperationKind string

const (
	KindCreate OperationKind = "create"
	KindUpdate OperationKind = "update"
	KindStop   OperationKind = "stop"
)

// Document carries the envelope of an inbound command.
type Document struct {
	SenderID           string             `json:"senderId" validate:"required"`
	SenderRole         MarketRole         `json:"senderRole"`
	RecipientID        string             `json:"recipientId" validate:"required"`
	RecipientRole      MarketRole         `json:"recipientRole"`
	BusinessReasonCode BusinessReasonCode `json:"businessReasonCode" validate:"required"`
	RequestDateTime    time.Time          `json:"requestDateTime"`
}

// PricePoint is one priced position of a price series.
type PricePoint struct {
	Position int       `json:"position"`
	Time     time.Time `json:"time"`
	Price    float64   `json:"price"`
}

// Operation is one requested charge mutation within a command batch. Its
// operation id attributes a validation failure to this operation without
// losing the rest of the batch.
type Operation struct {
	OperationID          string            `json:"operationId" validate:"required,max=100"`
	Kind                 OperationKind     `json:"kind" validate:"required,oneof=create update stop"`
	ChargeID             string            `json:"chargeId" validate:"required,max=10"`
	ChargeType           ChargeType        `json:"chargeType" validate:"required"`
	OwnerID              string            `json:"ownerId" validate:"required"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Resolution           Resolution        `json:"resolution"`
	TaxIndicator         bool              `json:"taxIndicator"`
	TransparentInvoicing bool              `json:"transparentInvoicing"`
	VatClassification    VatClassification `json:"vatClassification"`
	StartDateTime        time.Time         `json:"startDateTime"`
	EndDateTime          time.Time         `json:"endDateTime"`
	Points               []PricePoint      `json:"points,omitempty"`
}

// Identifier derives the natural key the operation addresses.
func (o Operation) Identifier() ChargeIdentifier {
	return ChargeIdentifier{
		SenderProvidedChargeID: o.ChargeID,
		OwnerID:                o.OwnerID,
		ChargeType:             o.ChargeType,
	}
}

// EffectiveEnd normalises an absent end date to the open-end sentinel.
func (o Operation) EffectiveEnd() time.Time {
	if o.EndDateTime.IsZero() {
		return EndDefault
	}
	return o.EndDateTime
}

// Period builds the charge period the operation describes.
func (o Operation) Period() ChargePeriod {
	return ChargePeriod{
		Name:                 o.Name,
		Description:          o.Description,
		VatClassification:    o.VatClassification,
		TransparentInvoicing: o.TransparentInvoicing,
		StartDateTime:        o.StartDateTime,
		EndDateTime:          o.EffectiveEnd(),
	}
}

// Command is an inbound request: one document envelope plus one or more
// operations. It lives for a single orchestration pass and is never retained.
type Command struct {
	CorrelationID string      `json:"correlationId"`
	Document      Document    `json:"document" validate:"required"`
	Operations    []Operation `json:"operations" validate:"required,min=1,dive"`
}
