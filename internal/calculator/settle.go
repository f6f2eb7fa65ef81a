package calculator

import (
	"container/heap"
)

// Transfer is a single proposed payment from a debtor to a creditor.
type Transfer struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount int64
}

// position is a member with a non-zero outstanding magnitude.
type position struct {
	member string
	amount int64 // always positive
}

// positionHeap is a max-heap on amount; ties resolve to the smaller member ID.
type positionHeap []position

func (h positionHeap) Len() int { return len(h) }
func (h positionHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].member < h[j].member
}
func (h positionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *positionHeap) Push(x any)   { *h = append(*h, x.(position)) }
func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// PlanSettlement turns net balances into a list of transfers that zeroes them all.
//
// Greedy debt simplification: the largest creditor and the largest debtor are
// matched for min(credit, debt), and whichever side still has a balance goes back
// into play. Each step settles at least one member, so N members with non-zero
// balances need at most N-1 transfers. The output is deterministic for a given
// mapping. It is not guaranteed to be the global minimum.
//
// Balances that do not sum to zero are reported as an InvariantError.
func PlanSettlement(balances map[string]int64) ([]Transfer, error) {
	if err := CheckZeroSum(balances); err != nil {
		return nil, err
	}

	creditors := &positionHeap{}
	debtors := &positionHeap{}
	for member, b := range balances {
		switch {
		case b > 0:
			*creditors = append(*creditors, position{member: member, amount: b})
		case b < 0:
			*debtors = append(*debtors, position{member: member, amount: -b})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	var transfers []Transfer
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(creditors).(position)
		d := heap.Pop(debtors).(position)

		amount := min(c.amount, d.amount)
		transfers = append(transfers, Transfer{From: d.member, To: c.member, Amount: amount})

		c.amount -= amount
		d.amount -= amount
		if c.amount > 0 {
			heap.Push(creditors, c)
		}
		if d.amount > 0 {
			heap.Push(debtors, d)
		}
	}

	if creditors.Len() != 0 || debtors.Len() != 0 {
		return nil, invariantf("settlement", "%d creditors and %d debtors left unsettled", creditors.Len(), debtors.Len())
	}
	return transfers, nil
}
