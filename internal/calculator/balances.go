package calculator

import (
	"sort"
)

// ExpenseForBalance is the minimal information about an expense needed for balances.
type ExpenseForBalance struct {
	ID      string
	PayerID string
	Total   int64
	Splits  []Split
}

// SettlementForBalance is the minimal information about a settlement needed for balances.
type SettlementForBalance struct {
	FromMemberID string // Who paid (debtor settling up)
	ToMemberID   string // Who received (creditor being paid)
	Amount       int64
}

// MemberBalance is the position of one member across all live records of a group.
type MemberBalance struct {
	MemberID   string
	NetBalance int64 // Positive = is owed money, negative = owes money
	TotalPaid  int64 // Expense totals paid plus settlements paid
	TotalOwed  int64 // Split shares owed plus settlements received
}

// CalculateGroupBalances derives member balances from a group's live records.
//
// For each expense the payer's balance rises by the total and every split member's
// balance falls by their share. For each settlement the payer's balance rises and
// the receiver's falls by the amount. Members listed in members are always present,
// with zero balances if they have no activity. The result is sorted by member ID.
//
// A record whose splits do not sum to its total, an arithmetic overflow, or a
// non-zero sum of balances is reported as an InvariantError.
func CalculateGroupBalances(members []string, expenses []ExpenseForBalance, settlements []SettlementForBalance) ([]MemberBalance, error) {
	balances := make(map[string]*MemberBalance, len(members))
	get := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{MemberID: id}
			balances[id] = b
		}
		return b
	}
	for _, m := range members {
		get(m)
	}

	for _, e := range expenses {
		var splitSum int64
		for _, s := range e.Splits {
			next, ok := addChecked(splitSum, s.Amount)
			if !ok {
				return nil, invariantf("split-sum", "expense %s split amounts overflow", e.ID)
			}
			splitSum = next
		}
		if splitSum != e.Total {
			return nil, invariantf("split-sum", "expense %s splits sum to %d, total is %d", e.ID, splitSum, e.Total)
		}

		payer := get(e.PayerID)
		paid, ok := addChecked(payer.TotalPaid, e.Total)
		if !ok {
			return nil, invariantf("overflow", "total paid by %s overflows", e.PayerID)
		}
		payer.TotalPaid = paid

		for _, s := range e.Splits {
			b := get(s.MemberID)
			owed, ok := addChecked(b.TotalOwed, s.Amount)
			if !ok {
				return nil, invariantf("overflow", "total owed by %s overflows", s.MemberID)
			}
			b.TotalOwed = owed
		}
	}

	for _, s := range settlements {
		from := get(s.FromMemberID)
		paid, ok := addChecked(from.TotalPaid, s.Amount)
		if !ok {
			return nil, invariantf("overflow", "total paid by %s overflows", s.FromMemberID)
		}
		from.TotalPaid = paid

		to := get(s.ToMemberID)
		owed, ok := addChecked(to.TotalOwed, s.Amount)
		if !ok {
			return nil, invariantf("overflow", "total owed by %s overflows", s.ToMemberID)
		}
		to.TotalOwed = owed
	}

	result := make([]MemberBalance, 0, len(balances))
	net := make(map[string]int64, len(balances))
	for id, b := range balances {
		b.NetBalance = b.TotalPaid - b.TotalOwed
		net[id] = b.NetBalance
		result = append(result, *b)
	}
	if err := CheckZeroSum(net); err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].MemberID < result[j].MemberID
	})
	return result, nil
}

// NetBalances flattens member balances into a member ID -> net balance mapping.
func NetBalances(balances []MemberBalance) map[string]int64 {
	net := make(map[string]int64, len(balances))
	for _, b := range balances {
		net[b.MemberID] = b.NetBalance
	}
	return net
}
