package domain

// ActionType identifies one of the seven Coup actions.
type ActionType string

const (
	ActionIncome      ActionType = "income"
	ActionForeignAid  ActionType = "foreign_aid"
	ActionCoup        ActionType = "coup"
	ActionTax         ActionType = "tax"
	ActionSteal       ActionType = "steal"
	ActionAssassinate ActionType = "assassinate"
	ActionExchange    ActionType = "exchange"
)

// CoupCost is the coin price of a coup, charged when the effect executes.
const CoupCost = 7

// AssassinateCost is the coin price of an assassination, charged when the
// effect executes (an accepted block therefore costs nothing).
const AssassinateCost = 3

// MandatoryCoupThreshold forces coup as the only legal action choice.
const MandatoryCoupThreshold = 10

// StealAmount is the maximum number of coins a steal transfers.
const StealAmount = 2

// ActionSpec is one row of the static action catalog.
type ActionSpec struct {
	// Cost in coins, deducted only when the underlying effect executes.
	Cost int
	// Gain in coins credited to the initiator on execution.
	Gain int
	// RequiresTarget marks actions that name an opposing player.
	RequiresTarget bool
	// BlockableBy lists roles an opponent may claim to block the action.
	BlockableBy []Role
	// ClaimRole is the role the initiator implicitly claims. Empty means
	// the action itself cannot be challenged.
	ClaimRole Role
}

// Challengeable reports whether the action carries a role claim.
func (s ActionSpec) Challengeable() bool {
	return s.ClaimRole != ""
}

// ResolvesImmediately reports whether the action skips response collection
// entirely (neither blockable nor challengeable).
func (s ActionSpec) ResolvesImmediately() bool {
	return len(s.BlockableBy) == 0 && !s.Challengeable()
}

// Catalog is the static action definition table.
var Catalog = map[ActionType]ActionSpec{
	ActionIncome:      {Gain: 1},
	ActionForeignAid:  {Gain: 2, BlockableBy: []Role{RoleDuke}},
	ActionCoup:        {Cost: CoupCost, RequiresTarget: true},
	ActionTax:         {Gain: 3, ClaimRole: RoleDuke},
	ActionSteal:       {RequiresTarget: true, BlockableBy: []Role{RoleCaptain, RoleAmbassador}, ClaimRole: RoleCaptain},
	ActionAssassinate: {Cost: AssassinateCost, RequiresTarget: true, BlockableBy: []Role{RoleContessa}, ClaimRole: RoleAssassin},
	ActionExchange:    {ClaimRole: RoleAmbassador},
}

// Spec looks up the catalog entry for an action type.
func (t ActionType) Spec() (ActionSpec, bool) {
	spec, ok := Catalog[t]
	return spec, ok
}

// CanBlockWith reports whether the given role is a legal block claim for
// the action.
func (s ActionSpec) CanBlockWith(role Role) bool {
	for _, r := range s.BlockableBy {
		if r == role {
			return true
		}
	}
	return false
}
