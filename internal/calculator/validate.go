package calculator

import (
	"fmt"
)

// MaxAmount is the largest total or settlement amount accepted, in minor units.
// Split amounts may be negative but their magnitude is bounded by it too.
const MaxAmount int64 = 1_000_000_000_000

// Reason is a machine-readable rejection code for a candidate expense or settlement.
type Reason string

const (
	ReasonInvalidAmount        Reason = "InvalidAmount"
	ReasonUnknownPayer         Reason = "UnknownPayer"
	ReasonEmptySplit           Reason = "EmptySplit"
	ReasonUnknownParticipant   Reason = "UnknownParticipant"
	ReasonSplitMismatch        Reason = "SplitMismatch"
	ReasonDuplicateParticipant Reason = "DuplicateParticipant"
	ReasonSelfTransfer         Reason = "SelfTransfer"
)

// ValidationError is returned when a candidate is rejected. Nothing has been
// changed when it is returned; the caller may fix the input and resubmit.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func reject(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Split is one member's owed share, in minor units.
type Split struct {
	MemberID string
	Amount   int64
}

// ExpenseInput is a proposed expense before it is admitted to a ledger.
type ExpenseInput struct {
	GroupID     string
	PayerID     string
	TotalAmount int64
	Description string
	Splits      []Split
}

// ValidateExpense checks a candidate expense against the group's member IDs.
// Checks run in a fixed order and the first failure is returned:
//  1. total is positive and at most MaxAmount
//  2. payer is a member
//  3. splits are non-empty, every split member is a member and every split
//     amount is within ±MaxAmount
//  4. split amounts sum exactly to the total
//  5. no member appears twice
func ValidateExpense(in ExpenseInput, members []string) error {
	if in.TotalAmount <= 0 || in.TotalAmount > MaxAmount {
		return reject(ReasonInvalidAmount, "total amount %d must be between 1 and %d", in.TotalAmount, MaxAmount)
	}

	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m] = struct{}{}
	}

	if _, ok := memberSet[in.PayerID]; !ok {
		return reject(ReasonUnknownPayer, "payer %q is not a member of the group", in.PayerID)
	}

	if len(in.Splits) == 0 {
		return reject(ReasonEmptySplit, "expense must be split among at least one member")
	}
	for _, s := range in.Splits {
		if _, ok := memberSet[s.MemberID]; !ok {
			return reject(ReasonUnknownParticipant, "participant %q is not a member of the group", s.MemberID)
		}
		if s.Amount < -MaxAmount || s.Amount > MaxAmount {
			return reject(ReasonInvalidAmount, "split amount %d for %q must be within ±%d", s.Amount, s.MemberID, MaxAmount)
		}
	}

	var sum int64
	for _, s := range in.Splits {
		next, ok := addChecked(sum, s.Amount)
		if !ok {
			return reject(ReasonSplitMismatch, "split amounts overflow")
		}
		sum = next
	}
	if sum != in.TotalAmount {
		return reject(ReasonSplitMismatch, "splits sum to %d, total is %d", sum, in.TotalAmount)
	}

	seen := make(map[string]struct{}, len(in.Splits))
	for _, s := range in.Splits {
		if _, dup := seen[s.MemberID]; dup {
			return reject(ReasonDuplicateParticipant, "participant %q appears more than once", s.MemberID)
		}
		seen[s.MemberID] = struct{}{}
	}

	return nil
}

// SettlementInput is a proposed payment between two members.
type SettlementInput struct {
	GroupID      string
	FromMemberID string
	ToMemberID   string
	Amount       int64
	Note         string
}

// ValidateSettlement checks a candidate settlement against the group's member IDs.
func ValidateSettlement(in SettlementInput, members []string) error {
	if in.Amount <= 0 || in.Amount > MaxAmount {
		return reject(ReasonInvalidAmount, "settlement amount %d must be between 1 and %d", in.Amount, MaxAmount)
	}
	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m] = struct{}{}
	}
	if _, ok := memberSet[in.FromMemberID]; !ok {
		return reject(ReasonUnknownPayer, "payer %q is not a member of the group", in.FromMemberID)
	}
	if _, ok := memberSet[in.ToMemberID]; !ok {
		return reject(ReasonUnknownParticipant, "receiver %q is not a member of the group", in.ToMemberID)
	}
	if in.FromMemberID == in.ToMemberID {
		return reject(ReasonSelfTransfer, "member %q cannot settle with themselves", in.FromMemberID)
	}
	return nil
}
