package marketparticipants

import "github.com/gridmarket/charges/internal/charges"

// MarketParticipant is an actor registered in the market, resolved during
// business validation to check who is allowed to administer a charge.
type MarketParticipant struct {
	ID       int64              `json:"id"`
	ActorID  string             `json:"actorId"`
	Role     charges.MarketRole `json:"role"`
	IsActive bool               `json:"isActive"`
}

// MayAdministerCharges reports whether the participant's role allows charge
// create/update/stop commands.
func (p MarketParticipant) MayAdministerCharges() bool {
	return p.Role == charges.RoleGridOperator || p.Role == charges.RoleSystemOperator
}
