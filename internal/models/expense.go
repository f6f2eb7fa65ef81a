package models

// Expense is an immutable expense-split record.
// The payer fronted TotalAmount and each Split says how much of it a member owes.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group whose ledger this expense belongs to.
	GroupID string `json:"group_id"`

	// PayerID is the member who paid the full amount.
	PayerID string `json:"payer_id"`

	// TotalAmount is the amount paid, in minor currency units.
	TotalAmount int64 `json:"total_amount"`

	// Description is free text (e.g., "Groceries").
	Description string `json:"description,omitempty"`

	// Splits is the ordered list of owed shares. Their amounts sum to TotalAmount.
	Splits []Split `json:"splits"`

	// CreatedAt is the Unix timestamp in milliseconds when the expense was recorded.
	CreatedAt int64 `json:"created_at"`
}

// Split is one member's owed share of an Expense.
type Split struct {
	// MemberID identifies the member who owes this share.
	MemberID string `json:"member_id"`

	// Amount is the owed share in minor currency units.
	Amount int64 `json:"amount"`
}

// SplitSum returns the sum of all split amounts.
func (e *Expense) SplitSum() int64 {
	var sum int64
	for _, s := range e.Splits {
		sum += s.Amount
	}
	return sum
}
