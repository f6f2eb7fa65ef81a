package service

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// parseAmount converts a wire amount into minor units. Anything that is not an
// integral number is an InvalidAmount rejection.
func parseAmount(field string, n json.Number) (int64, error) {
	v, err := money.ParseMinor(n.String())
	if err != nil {
		return 0, reject(calculator.ReasonInvalidAmount, fmt.Sprintf("%s: %v", field, err))
	}
	return v, nil
}

// expenseInput converts a request into a calculator input. When SplitEvenly is
// used the participants are sorted by member ID before the even split, so the
// extra units go to the lowest IDs.
func expenseInput(req *ExpenseRequest) (calculator.ExpenseInput, error) {
	total, err := parseAmount("total_amount", req.TotalAmount)
	if err != nil {
		return calculator.ExpenseInput{}, err
	}
	in := calculator.ExpenseInput{
		GroupID:     req.GroupID,
		PayerID:     req.PayerID,
		TotalAmount: total,
		Description: req.Description,
	}

	if len(req.Splits) > 0 && len(req.SplitEvenly) > 0 {
		return in, reject(calculator.ReasonSplitMismatch, "splits and split_evenly are mutually exclusive")
	}

	if len(req.SplitEvenly) > 0 {
		// A non-positive total is reported by the validator.
		if total <= 0 || total > calculator.MaxAmount {
			return in, nil
		}
		participants := slices.Clone(req.SplitEvenly)
		slices.Sort(participants)
		splits, err := calculator.EvenSplit(total, participants)
		if err != nil {
			return in, reject(calculator.ReasonDuplicateParticipant, err.Error())
		}
		in.Splits = splits
		return in, nil
	}

	in.Splits = make([]calculator.Split, len(req.Splits))
	for i, s := range req.Splits {
		amount, err := parseAmount(fmt.Sprintf("splits[%d].amount", i), s.Amount)
		if err != nil {
			return in, err
		}
		in.Splits[i] = calculator.Split{MemberID: s.MemberID, Amount: amount}
	}
	return in, nil
}

func toExpense(e *models.Expense) *Expense {
	splits := make([]Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = Split{MemberID: s.MemberID, Amount: s.Amount}
	}
	return &Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		TotalAmount: e.TotalAmount,
		Description: e.Description,
		Splits:      splits,
		CreatedAt:   e.CreatedAt,
	}
}

func toSettlement(s *models.Settlement) *Settlement {
	return &Settlement{
		ID:           s.ID,
		GroupID:      s.GroupID,
		FromMemberID: s.FromMemberID,
		ToMemberID:   s.ToMemberID,
		Amount:       s.Amount,
		Note:         s.Note,
		CreatedAt:    s.CreatedAt,
	}
}

func toBalanceSheet(snapshot *ledger.Snapshot) BalanceSheet {
	balances := make([]MemberBalance, len(snapshot.Balances))
	for i, b := range snapshot.Balances {
		balances[i] = MemberBalance{
			MemberID:   b.MemberID,
			NetBalance: b.NetBalance,
			TotalPaid:  b.TotalPaid,
			TotalOwed:  b.TotalOwed,
		}
	}
	return BalanceSheet{
		GroupID:  snapshot.GroupID,
		Balances: balances,
		Net:      snapshot.Net(),
	}
}

func toSplits(splits []calculator.Split) []Split {
	out := make([]Split, len(splits))
	for i, s := range splits {
		out[i] = Split{MemberID: s.MemberID, Amount: s.Amount}
	}
	return out
}
