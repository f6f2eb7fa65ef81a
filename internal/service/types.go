package service

import "encoding/json"

// Request amounts are json.Number so that non-integral values can be rejected
// with a reason instead of failing to decode. Response amounts are int64 minor units.

// SplitInput is one requested share of an expense.
type SplitInput struct {
	MemberID string      `json:"member_id"`
	Amount   json.Number `json:"amount"`
}

// ExpenseRequest is the body of ValidateExpense and RecordExpense.
// Exactly one of Splits and SplitEvenly may be set.
type ExpenseRequest struct {
	GroupID     string       `json:"group_id"`
	PayerID     string       `json:"payer_id"`
	TotalAmount json.Number  `json:"total_amount"`
	Description string       `json:"description,omitempty"`
	Splits      []SplitInput `json:"splits,omitempty"`
	SplitEvenly []string     `json:"split_evenly,omitempty"`
}

type ValidateExpenseResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type Split struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
}

type Expense struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	PayerID     string  `json:"payer_id"`
	TotalAmount int64   `json:"total_amount"`
	Description string  `json:"description,omitempty"`
	Splits      []Split `json:"splits"`
	CreatedAt   int64   `json:"created_at"`
}

type Settlement struct {
	ID           string `json:"id"`
	GroupID      string `json:"group_id"`
	FromMemberID string `json:"from_member_id"`
	ToMemberID   string `json:"to_member_id"`
	Amount       int64  `json:"amount"`
	Note         string `json:"note,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

type MemberBalance struct {
	MemberID   string `json:"member_id"`
	NetBalance int64  `json:"net_balance"`
	TotalPaid  int64  `json:"total_paid"`
	TotalOwed  int64  `json:"total_owed"`
}

// BalanceSheet is embedded in every response that carries balances.
type BalanceSheet struct {
	GroupID  string           `json:"group_id"`
	Balances []MemberBalance  `json:"balances"`
	Net      map[string]int64 `json:"net"`
}

type RecordExpenseResponse struct {
	Expense *Expense `json:"expense"`
	BalanceSheet
}

type DeleteExpenseRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct {
	BalanceSheet
}

type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	BalanceSheet
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type GetSettlementPlanResponse struct {
	GroupID   string     `json:"group_id"`
	Transfers []Transfer `json:"transfers"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type RecordSettlementRequest struct {
	GroupID      string      `json:"group_id"`
	FromMemberID string      `json:"from_member_id"`
	ToMemberID   string      `json:"to_member_id"`
	Amount       json.Number `json:"amount"`
	Note         string      `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
	BalanceSheet
}

type DeleteSettlementRequest struct {
	GroupID      string `json:"group_id"`
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct {
	BalanceSheet
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

// Split methods accepted by CalculateSplit.
const (
	MethodEven     = "even"
	MethodShares   = "shares"
	MethodItemized = "itemized"
)

type ItemInput struct {
	Description string      `json:"description,omitempty"`
	Amount      json.Number `json:"amount"`
	AssignedTo  []string    `json:"assigned_to"`
}

type CalculateSplitRequest struct {
	TotalAmount  json.Number      `json:"total_amount"`
	Method       string           `json:"method"`
	Participants []string         `json:"participants"`
	Shares       map[string]int64 `json:"shares,omitempty"`
	Items        []ItemInput      `json:"items,omitempty"`
}

type CalculateSplitResponse struct {
	Splits []Split `json:"splits"`
}
