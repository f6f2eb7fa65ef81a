package calculator

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
)

// Item is a single line item of an itemized expense.
type Item struct {
	Description string
	Amount      int64
	AssignedTo  []string
}

// EvenSplit divides total among participants in the given order.
// Every participant gets total/N; the first total%N participants get one extra unit,
// so the shares always sum to total and differ by at most one unit.
func EvenSplit(total int64, participants []string) ([]Split, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if total < 0 {
		return nil, fmt.Errorf("total cannot be negative")
	}
	if err := checkUnique(participants); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	base := total / n
	remainder := total - base*n

	splits := make([]Split, len(participants))
	for i, p := range participants {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		splits[i] = Split{MemberID: p, Amount: amount}
	}
	return splits, nil
}

// SharesSplit divides total proportionally to the given positive share weights.
// Participants missing from shares count as one share.
func SharesSplit(total int64, participants []string, shares map[string]int64) ([]Split, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if err := checkUnique(participants); err != nil {
		return nil, err
	}

	weights := make([]int64, len(participants))
	for i, p := range participants {
		w, ok := shares[p]
		if !ok {
			w = 1
		}
		if w <= 0 {
			return nil, fmt.Errorf("share for %q must be positive", p)
		}
		weights[i] = w
	}

	amounts, err := Allocate(total, weights)
	if err != nil {
		return nil, err
	}
	return zipSplits(participants, amounts), nil
}

// ItemizedSplit assigns each item to its participants (split evenly among them)
// and distributes the difference between total and the item subtotal (tax, tip,
// fees) proportionally to each participant's item subtotal.
// Without items the total is split evenly among all participants.
func ItemizedSplit(total int64, items []Item, participants []string) ([]Split, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if len(items) == 0 {
		return EvenSplit(total, participants)
	}
	if err := checkUnique(participants); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(participants))
	for i, p := range participants {
		index[p] = i
	}

	subtotals := make([]int64, len(participants))
	var subtotal int64
	for _, item := range items {
		if item.Amount < 0 {
			return nil, fmt.Errorf("item %q has a negative amount", item.Description)
		}
		if len(item.AssignedTo) == 0 {
			return nil, fmt.Errorf("item %q is not assigned to anyone", item.Description)
		}
		shares, err := EvenSplit(item.Amount, item.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("failed to split item %q: %w", item.Description, err)
		}
		for _, s := range shares {
			i, ok := index[s.MemberID]
			if !ok {
				return nil, fmt.Errorf("item %q is assigned to non-participant %q", item.Description, s.MemberID)
			}
			next, ok := addChecked(subtotals[i], s.Amount)
			if !ok {
				return nil, fmt.Errorf("item subtotal of %q overflows", s.MemberID)
			}
			subtotals[i] = next
		}
		next, ok := addChecked(subtotal, item.Amount)
		if !ok {
			return nil, fmt.Errorf("item subtotal overflows at item %q", item.Description)
		}
		subtotal = next
	}

	if subtotal == 0 {
		return nil, fmt.Errorf("subtotal cannot be zero")
	}
	if total < subtotal {
		return nil, fmt.Errorf("total %d is less than item subtotal %d", total, subtotal)
	}

	extra, err := Allocate(total-subtotal, subtotals)
	if err != nil {
		return nil, err
	}
	amounts := make([]int64, len(participants))
	for i := range participants {
		amounts[i] = subtotals[i] + extra[i]
	}
	return zipSplits(participants, amounts), nil
}

// Allocate distributes total over weights using the largest-remainder method.
// Each slot receives floor(total*w/W); leftover units go to the largest
// remainders, earlier slots first on ties. The result always sums to total.
func Allocate(total int64, weights []int64) ([]int64, error) {
	if total < 0 {
		return nil, fmt.Errorf("cannot allocate a negative amount")
	}
	var sumWeights uint64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("weights cannot be negative")
		}
		var carry uint64
		sumWeights, carry = bits.Add64(sumWeights, uint64(w), 0)
		if carry != 0 {
			return nil, fmt.Errorf("weights overflow")
		}
	}
	if sumWeights == 0 {
		return nil, errors.New("weights sum to zero")
	}

	amounts := make([]int64, len(weights))
	remainders := make([]uint64, len(weights))
	var allocated int64
	for i, w := range weights {
		// total*w/sum fits in 64 bits because w <= sum.
		hi, lo := bits.Mul64(uint64(total), uint64(w))
		q, r := bits.Div64(hi, lo, sumWeights)
		amounts[i] = int64(q)
		remainders[i] = r
		allocated += int64(q)
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := int64(0); k < total-allocated; k++ {
		amounts[order[k]]++
	}
	return amounts, nil
}

func zipSplits(participants []string, amounts []int64) []Split {
	splits := make([]Split, len(participants))
	for i, p := range participants {
		splits[i] = Split{MemberID: p, Amount: amounts[i]}
	}
	return splits
}

func checkUnique(participants []string) error {
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("participant %q listed more than once", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}
