package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

// corruptStore returns a stored expense whose splits do not sum to its total.
type corruptStore struct {
	*memory.Store
}

func (s *corruptStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	expenses, err := s.Store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	bad := &models.Expense{ID: "corrupt", GroupID: groupID, PayerID: "A", TotalAmount: 10,
		Splits: []models.Split{{MemberID: "B", Amount: 9}}}
	return append(expenses, bad), nil
}

func newCorruptLedger(t *testing.T, opts ...Option) (*Ledger, *corruptStore) {
	t.Helper()
	inner := memory.New()
	if err := inner.CreateGroup(context.Background(), &models.Group{ID: "g1",
		Members: []models.Member{{ID: "A"}, {ID: "B"}}}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	store := &corruptStore{Store: inner}
	return New(store, append([]Option{WithLogger(quietLogger())}, opts...)...), store
}

func TestLedger_StrictModePanicsOnViolation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	l, _ := newCorruptLedger(t, WithStrictInvariants(true), WithMetrics(m))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic in strict mode")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, calculator.ErrInvariantViolation) {
			t.Fatalf("panic value = %v, want an invariant violation", r)
		}
		if got := testutil.ToFloat64(m.InvariantViolations.WithLabelValues(opBalances)); got != 1 {
			t.Errorf("violations counted = %v, want 1", got)
		}
	}()

	_, _ = l.Balances(context.Background(), "g1")
}

func TestLedger_LenientModeReturnsViolation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	l, store := newCorruptLedger(t, WithMetrics(m))
	ctx := context.Background()

	_, err := l.Balances(ctx, "g1")
	var invErr *calculator.InvariantError
	if !errors.As(err, &invErr) || invErr.Invariant != "split-sum" {
		t.Fatalf("expected split-sum InvariantError, got %v", err)
	}

	// A violation found while recording blocks the write.
	_, _, err = l.RecordExpense(ctx, "g1", calculator.ExpenseInput{PayerID: "A", TotalAmount: 4,
		Splits: []calculator.Split{{MemberID: "A", Amount: 2}, {MemberID: "B", Amount: 2}}})
	if !errors.Is(err, calculator.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	stored, _ := store.Store.ListExpensesByGroup(ctx, "g1")
	if len(stored) != 0 {
		t.Errorf("expense persisted despite violation: %+v", stored)
	}

	if got := testutil.ToFloat64(m.InvariantViolations.WithLabelValues(opRecordExpense)); got != 1 {
		t.Errorf("record violations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues(opRecordExpense, metrics.OutcomeError)); got != 1 {
		t.Errorf("error outcomes = %v, want 1", got)
	}
}
