package model

// ActionType defines the type of a ledger transaction
type ActionType string

const (
	// ActionLoad records an item loaded onto a lorry
	ActionLoad ActionType = "LOAD"
	// ActionUnload records an item taken off a lorry back to the warehouse
	ActionUnload ActionType = "UNLOAD"
	// ActionDelivery records an item handed over to a customer
	ActionDelivery ActionType = "DELIVERY"
	// ActionCollection records an item collected back from a customer
	ActionCollection ActionType = "COLLECTION"
	// ActionRepair records an item moved for repair
	ActionRepair ActionType = "REPAIR"
	// ActionTransfer records an item moved between lorries
	ActionTransfer ActionType = "TRANSFER"
	// ActionAdminAdjustment records a manual correction by an admin
	ActionAdminAdjustment ActionType = "ADMIN_ADJUSTMENT"
)

// StockDirection classifies how an action affects the stock of the lorry it
// was recorded against.
type StockDirection uint

const (
	// DirectionIn means the item is on the lorry after the action
	DirectionIn StockDirection = iota
	// DirectionOut means the item left the lorry with the action
	DirectionOut
	// DirectionAmbiguous means the effect depends on context and must be
	// resolved by an explicit policy; unresolved ambiguous actions count as
	// out of stock
	DirectionAmbiguous
)

// actionDirections is the single place where an action's stock effect is
// decided. Adding an action type without an entry here makes the action
// invalid, not silently excluded.
var actionDirections = map[ActionType]StockDirection{
	ActionLoad:            DirectionIn,
	ActionCollection:      DirectionIn,
	ActionUnload:          DirectionOut,
	ActionDelivery:        DirectionOut,
	ActionRepair:          DirectionAmbiguous,
	ActionTransfer:        DirectionAmbiguous,
	ActionAdminAdjustment: DirectionAmbiguous,
}

// ActionPolicy resolves ambiguous actions to IN or OUT for one reconstruction
// call. Entries for unambiguous actions are ignored.
type ActionPolicy map[ActionType]StockDirection

// Valid reports whether the action is a known ledger action.
func (a ActionType) Valid() bool {
	_, ok := actionDirections[a]
	return ok
}

// Direction returns the statically known stock effect of the action.
func (a ActionType) Direction() StockDirection {
	d, ok := actionDirections[a]
	if !ok {
		return DirectionAmbiguous
	}
	return d
}

// InStock reports whether an item whose latest action is a is on the lorry,
// under the given policy. Ambiguous actions without a policy entry are
// excluded.
func (a ActionType) InStock(policy ActionPolicy) bool {
	d := a.Direction()
	if d == DirectionAmbiguous {
		if resolved, ok := policy[a]; ok {
			d = resolved
		}
	}
	return d == DirectionIn
}

// ActionTypeFromString converts a string to an ActionType, returning false
// for unknown actions.
func ActionTypeFromString(s string) (ActionType, bool) {
	a := ActionType(s)
	return a, a.Valid()
}

// AllActions lists every known ledger action.
func AllActions() []ActionType {
	return []ActionType{
		ActionLoad,
		ActionUnload,
		ActionDelivery,
		ActionCollection,
		ActionRepair,
		ActionTransfer,
		ActionAdminAdjustment,
	}
}
