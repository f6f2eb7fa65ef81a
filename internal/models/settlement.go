package models

// Settlement records that one member actually paid another to clear debt.
// It feeds back into the ledger like an expense: the payer's balance rises and
// the receiver's balance falls by Amount.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// GroupID is the group this settlement belongs to.
	GroupID string `json:"group_id"`

	// FromMemberID is the member who paid (debtor settling up).
	FromMemberID string `json:"from_member_id"`

	// ToMemberID is the member who received payment (creditor being paid).
	ToMemberID string `json:"to_member_id"`

	// Amount is the payment amount in minor currency units.
	Amount int64 `json:"amount"`

	// Note is an optional description for the settlement.
	Note string `json:"note,omitempty"`

	// CreatedAt is the Unix timestamp in milliseconds when the settlement was recorded.
	CreatedAt int64 `json:"created_at"`
}
