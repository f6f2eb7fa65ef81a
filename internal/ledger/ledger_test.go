package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []events.Type
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func setupLedger(t *testing.T, members ...string) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	group := &models.Group{ID: "g1", Name: "Trip"}
	for _, m := range members {
		group.Members = append(group.Members, models.Member{ID: m})
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return New(store, WithLogger(quietLogger())), store
}

func evenExpense(payer string, total int64, participants ...string) calculator.ExpenseInput {
	splits, err := calculator.EvenSplit(total, participants)
	if err != nil {
		panic(err)
	}
	return calculator.ExpenseInput{PayerID: payer, TotalAmount: total, Splits: splits}
}

func TestLedger_RecordAndSettle(t *testing.T) {
	l, _ := setupLedger(t, "A", "B", "C")
	ctx := context.Background()

	expense, snapshot, err := l.RecordExpense(ctx, "g1", evenExpense("A", 90, "A", "B", "C"))
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	if expense.ID == "" || expense.GroupID != "g1" {
		t.Errorf("unexpected expense: %+v", expense)
	}

	want := map[string]int64{"A": 60, "B": -30, "C": -30}
	if got := snapshot.Net(); !reflect.DeepEqual(got, want) {
		t.Errorf("net = %v, want %v", got, want)
	}

	plan, err := l.SettlementPlan(ctx, "g1")
	if err != nil {
		t.Fatalf("SettlementPlan failed: %v", err)
	}
	wantPlan := []calculator.Transfer{{From: "B", To: "A", Amount: 30}, {From: "C", To: "A", Amount: 30}}
	if !reflect.DeepEqual(plan, wantPlan) {
		t.Errorf("plan = %+v, want %+v", plan, wantPlan)
	}

	// Applying the plan as settlements zeroes every balance.
	for _, tr := range plan {
		if _, _, err := l.RecordSettlement(ctx, "g1", calculator.SettlementInput{
			FromMemberID: tr.From, ToMemberID: tr.To, Amount: tr.Amount,
		}); err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}
	}
	snapshot, err = l.Balances(ctx, "g1")
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	for member, b := range snapshot.Net() {
		if b != 0 {
			t.Errorf("%s still has balance %d", member, b)
		}
	}
	plan, err = l.SettlementPlan(ctx, "g1")
	if err != nil {
		t.Fatalf("SettlementPlan failed: %v", err)
	}
	if len(plan) != 0 {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}

func TestLedger_BalancesIncludeIdleMembers(t *testing.T) {
	l, _ := setupLedger(t, "A", "B", "C", "D")
	ctx := context.Background()

	if _, _, err := l.RecordExpense(ctx, "g1", evenExpense("A", 10, "A", "B")); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	snapshot, err := l.Balances(ctx, "g1")
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	want := map[string]int64{"A": 5, "B": -5, "C": 0, "D": 0}
	if got := snapshot.Net(); !reflect.DeepEqual(got, want) {
		t.Errorf("net = %v, want %v", got, want)
	}
}

func TestLedger_DeleteRestoresBalances(t *testing.T) {
	l, _ := setupLedger(t, "A", "B", "C")
	ctx := context.Background()

	if _, _, err := l.RecordExpense(ctx, "g1", evenExpense("B", 100, "A", "B", "C")); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	before, err := l.Balances(ctx, "g1")
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}

	expense, _, err := l.RecordExpense(ctx, "g1", evenExpense("C", 7, "A", "C"))
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	after, err := l.DeleteExpense(ctx, "g1", expense.ID)
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if !reflect.DeepEqual(after.Balances, before.Balances) {
		t.Errorf("balances after delete = %+v, want %+v", after.Balances, before.Balances)
	}

	list, err := l.ListExpenses(ctx, "g1")
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 expense, got %d", len(list))
	}
}

func TestLedger_DistinctRecords(t *testing.T) {
	l, _ := setupLedger(t, "A", "B")
	ctx := context.Background()
	in := evenExpense("A", 10, "A", "B")

	first, _, err := l.RecordExpense(ctx, "g1", in)
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	second, snapshot, err := l.RecordExpense(ctx, "g1", in)
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("identical inputs must create distinct records")
	}
	if got := snapshot.Net()["A"]; got != 10 {
		t.Errorf("A = %d, want 10", got)
	}
}

func TestLedger_NotFound(t *testing.T) {
	l, store := setupLedger(t, "A", "B")
	ctx := context.Background()

	if err := store.CreateGroup(ctx, &models.Group{ID: "g2", Members: []models.Member{{ID: "A"}, {ID: "B"}}}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	other, _, err := l.RecordExpense(ctx, "g2", evenExpense("A", 10, "A", "B"))
	if err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"balances of unknown group", func() error { _, err := l.Balances(ctx, "nope"); return err }, ErrGroupNotFound},
		{"record into unknown group", func() error {
			_, _, err := l.RecordExpense(ctx, "nope", evenExpense("A", 10, "A"))
			return err
		}, ErrGroupNotFound},
		{"delete unknown expense", func() error { _, err := l.DeleteExpense(ctx, "g1", "missing"); return err }, ErrExpenseNotFound},
		{"delete expense of another group", func() error { _, err := l.DeleteExpense(ctx, "g1", other.ID); return err }, ErrExpenseNotFound},
		{"delete unknown settlement", func() error { _, err := l.DeleteSettlement(ctx, "g1", "missing"); return err }, ErrSettlementNotFound},
		{"plan of unknown group", func() error { _, err := l.SettlementPlan(ctx, "nope"); return err }, ErrGroupNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("error %v should also match storage.ErrNotFound", err)
			}
		})
	}

	// The other group's expense was not touched.
	if _, err := store.GetExpense(ctx, other.ID); err != nil {
		t.Errorf("expense of g2 should survive: %v", err)
	}
}

func TestLedger_RejectionLeavesStateUnchanged(t *testing.T) {
	l, store := setupLedger(t, "A", "B", "C")
	ctx := context.Background()

	if _, _, err := l.RecordExpense(ctx, "g1", evenExpense("A", 30, "A", "B", "C")); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}
	before, _ := l.Balances(ctx, "g1")

	tests := []struct {
		name   string
		input  calculator.ExpenseInput
		reason calculator.Reason
	}{
		{"zero total", calculator.ExpenseInput{PayerID: "A", TotalAmount: 0, Splits: []calculator.Split{{MemberID: "A", Amount: 0}}}, calculator.ReasonInvalidAmount},
		{"unknown payer", calculator.ExpenseInput{PayerID: "Z", TotalAmount: 10, Splits: []calculator.Split{{MemberID: "A", Amount: 10}}}, calculator.ReasonUnknownPayer},
		{"empty split", calculator.ExpenseInput{PayerID: "A", TotalAmount: 10}, calculator.ReasonEmptySplit},
		{"unknown participant", calculator.ExpenseInput{PayerID: "A", TotalAmount: 10, Splits: []calculator.Split{{MemberID: "Q", Amount: 10}}}, calculator.ReasonUnknownParticipant},
		{"mismatch", calculator.ExpenseInput{PayerID: "A", TotalAmount: 10, Splits: []calculator.Split{{MemberID: "A", Amount: 4}, {MemberID: "B", Amount: 5}}}, calculator.ReasonSplitMismatch},
		{"duplicate", calculator.ExpenseInput{PayerID: "A", TotalAmount: 10, Splits: []calculator.Split{{MemberID: "A", Amount: 5}, {MemberID: "A", Amount: 5}}}, calculator.ReasonDuplicateParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.ValidateExpense(ctx, "g1", tt.input); !hasReason(err, tt.reason) {
				t.Errorf("ValidateExpense error = %v, want reason %s", err, tt.reason)
			}
			_, _, err := l.RecordExpense(ctx, "g1", tt.input)
			if !hasReason(err, tt.reason) {
				t.Fatalf("RecordExpense error = %v, want reason %s", err, tt.reason)
			}
		})
	}

	stored, _ := store.ListExpensesByGroup(ctx, "g1")
	if len(stored) != 1 {
		t.Errorf("expected 1 stored expense, got %d", len(stored))
	}
	after, _ := l.Balances(ctx, "g1")
	if !reflect.DeepEqual(after.Balances, before.Balances) {
		t.Errorf("balances changed after rejections: %+v", after.Balances)
	}
}

func hasReason(err error, reason calculator.Reason) bool {
	var ve *calculator.ValidationError
	return errors.As(err, &ve) && ve.Reason == reason
}

func TestLedger_SettlementValidation(t *testing.T) {
	l, _ := setupLedger(t, "A", "B")
	ctx := context.Background()

	_, _, err := l.RecordSettlement(ctx, "g1", calculator.SettlementInput{FromMemberID: "A", ToMemberID: "A", Amount: 5})
	if !hasReason(err, calculator.ReasonSelfTransfer) {
		t.Errorf("expected SelfTransfer, got %v", err)
	}
	_, _, err = l.RecordSettlement(ctx, "g1", calculator.SettlementInput{FromMemberID: "A", ToMemberID: "B", Amount: -5})
	if !hasReason(err, calculator.ReasonInvalidAmount) {
		t.Errorf("expected InvalidAmount, got %v", err)
	}

	settlement, snapshot, err := l.RecordSettlement(ctx, "g1", calculator.SettlementInput{FromMemberID: "B", ToMemberID: "A", Amount: 5, Note: "cash"})
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if got := snapshot.Net(); got["B"] != 5 || got["A"] != -5 {
		t.Errorf("net after settlement = %v", got)
	}
	list, err := l.ListSettlements(ctx, "g1")
	if err != nil || len(list) != 1 || list[0].Note != "cash" {
		t.Fatalf("ListSettlements = %+v, %v", list, err)
	}
	snapshot, err = l.DeleteSettlement(ctx, "g1", settlement.ID)
	if err != nil {
		t.Fatalf("DeleteSettlement failed: %v", err)
	}
	if got := snapshot.Net(); got["A"] != 0 || got["B"] != 0 {
		t.Errorf("net after delete = %v", got)
	}
}

// membershipStore overrides the membership reported for a group.
type membershipStore struct {
	*memory.Store
	mu      sync.Mutex
	members map[string][]models.Member
}

func (s *membershipStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if members, ok := s.members[groupID]; ok {
		group.Members = members
	}
	return group, nil
}

func (s *membershipStore) setMembers(groupID string, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Member
	for _, m := range members {
		list = append(list, models.Member{ID: m})
	}
	s.members[groupID] = list
}

func TestLedger_FormerMemberStaysInBalances(t *testing.T) {
	inner := memory.New()
	ctx := context.Background()
	if err := inner.CreateGroup(ctx, &models.Group{ID: "g1", Members: []models.Member{{ID: "A"}, {ID: "B"}}}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	store := &membershipStore{Store: inner, members: map[string][]models.Member{}}
	l := New(store, WithLogger(quietLogger()))

	if _, _, err := l.RecordExpense(ctx, "g1", evenExpense("A", 10, "A", "B")); err != nil {
		t.Fatalf("RecordExpense failed: %v", err)
	}

	// B leaves and C joins; the cached snapshot must not be reused.
	store.setMembers("g1", "A", "C")

	snapshot, err := l.Balances(ctx, "g1")
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	want := map[string]int64{"A": 5, "B": -5, "C": 0}
	if got := snapshot.Net(); !reflect.DeepEqual(got, want) {
		t.Errorf("net = %v, want %v", got, want)
	}

	// B can no longer be charged.
	_, _, err = l.RecordExpense(ctx, "g1", calculator.ExpenseInput{PayerID: "A", TotalAmount: 4,
		Splits: []calculator.Split{{MemberID: "B", Amount: 4}}})
	if !hasReason(err, calculator.ReasonUnknownParticipant) {
		t.Errorf("expected UnknownParticipant for former member, got %v", err)
	}
}

func TestLedger_EventsAndMetrics(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.CreateGroup(ctx, &models.Group{ID: "g1", Members: []models.Member{{ID: "A"}, {ID: "B"}}}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	publisher := &recordingPublisher{err: errors.New("broker down")}
	m := metrics.New(prometheus.NewRegistry())
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l := New(store,
		WithLogger(quietLogger()),
		WithPublisher(publisher),
		WithMetrics(m),
		WithClock(func() time.Time { return fixed }))

	expense, _, err := l.RecordExpense(ctx, "g1", evenExpense("A", 10, "A", "B"))
	if err != nil {
		t.Fatalf("publisher failures must not fail the mutation: %v", err)
	}
	if expense.CreatedAt != fixed.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", expense.CreatedAt, fixed.UnixMilli())
	}
	_, _, _ = l.RecordExpense(ctx, "g1", calculator.ExpenseInput{PayerID: "A", TotalAmount: 10})
	if _, err := l.DeleteExpense(ctx, "g1", expense.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if _, err := l.SettlementPlan(ctx, "g1"); err != nil {
		t.Fatalf("SettlementPlan failed: %v", err)
	}

	wantTypes := []events.Type{events.ExpenseRecorded, events.ExpenseDeleted}
	if got := publisher.types(); !reflect.DeepEqual(got, wantTypes) {
		t.Errorf("events = %v, want %v", got, wantTypes)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues(opRecordExpense, metrics.OutcomeAccepted)); got != 1 {
		t.Errorf("accepted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues(opRecordExpense, metrics.OutcomeRejected)); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.PlanTransfers); got != 1 {
		t.Errorf("plan histogram series = %d, want 1", got)
	}
}

func TestLedger_ConcurrentMutationsKeepZeroSum(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	members := []string{"A", "B", "C", "D", "E"}
	for _, g := range []string{"g1", "g2"} {
		group := &models.Group{ID: g}
		for _, m := range members {
			group.Members = append(group.Members, models.Member{ID: m})
		}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}
	l := New(store, WithLogger(quietLogger()), WithStrictInvariants(true))

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker*2)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			group := fmt.Sprintf("g%d", 1+w%2)
			for i := 0; i < perWorker; i++ {
				payer := members[(w+i)%len(members)]
				expense, _, err := l.RecordExpense(ctx, group, evenExpense(payer, int64(100+w*7+i), members...))
				if err != nil {
					errs <- err
					continue
				}
				if i%5 == 0 {
					if _, err := l.DeleteExpense(ctx, group, expense.ID); err != nil {
						errs <- err
					}
				}
				if _, err := l.Balances(ctx, group); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}

	for _, g := range []string{"g1", "g2"} {
		snapshot, err := l.Balances(ctx, g)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if err := calculator.CheckZeroSum(snapshot.Net()); err != nil {
			t.Errorf("group %s: %v", g, err)
		}
		list, _ := l.ListExpenses(ctx, g)
		if want := workers / 2 * (perWorker - perWorker/5); len(list) != want {
			t.Errorf("group %s has %d expenses, want %d", g, len(list), want)
		}

		// The cached snapshot matches a fresh recomputation.
		l.Invalidate(g)
		fresh, err := l.Balances(ctx, g)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if !reflect.DeepEqual(fresh.Balances, snapshot.Balances) {
			t.Errorf("group %s: cached %+v, fresh %+v", g, snapshot.Balances, fresh.Balances)
		}
	}
}

func TestLedger_ExtremeSplitsRejectedNotEscalated(t *testing.T) {
	store := memory.New()
	if err := store.CreateGroup(context.Background(), &models.Group{ID: "g1",
		Members: []models.Member{{ID: "A"}, {ID: "B"}, {ID: "P"}}}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	l := New(store, WithLogger(quietLogger()), WithStrictInvariants(true))
	ctx := context.Background()

	in := calculator.ExpenseInput{
		PayerID:     "P",
		TotalAmount: 100,
		Splits: []calculator.Split{
			{MemberID: "A", Amount: 5_000_000_000_000_000_000},
			{MemberID: "B", Amount: -5_000_000_000_000_000_000 + 100},
		},
	}

	for i := 0; i < 3; i++ {
		_, _, err := l.RecordExpense(ctx, "g1", in)
		var verr *calculator.ValidationError
		if !errors.As(err, &verr) || verr.Reason != calculator.ReasonInvalidAmount {
			t.Fatalf("attempt %d: error = %v, want InvalidAmount", i, err)
		}
	}

	expenses, err := store.ListExpensesByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("ListExpensesByGroup failed: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("rejected expenses were stored: %d", len(expenses))
	}
	if _, err := l.Balances(ctx, "g1"); err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
}

func TestLedger_UnknownGroupsLeaveNoState(t *testing.T) {
	l, _ := setupLedger(t, "A", "B")
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("missing-%d", i)
		if err := l.ValidateExpense(ctx, id, evenExpense("A", 10, "A")); !errors.Is(err, ErrGroupNotFound) {
			t.Fatalf("ValidateExpense(%s) = %v", id, err)
		}
		if _, _, err := l.RecordExpense(ctx, id, evenExpense("A", 10, "A")); !errors.Is(err, ErrGroupNotFound) {
			t.Fatalf("RecordExpense(%s) = %v", id, err)
		}
		if _, err := l.Balances(ctx, id); !errors.Is(err, ErrGroupNotFound) {
			t.Fatalf("Balances(%s) = %v", id, err)
		}
		if _, err := l.ListSettlements(ctx, id); !errors.Is(err, ErrGroupNotFound) {
			t.Fatalf("ListSettlements(%s) = %v", id, err)
		}
		l.Invalidate(id)
	}
	if n := l.groups.size(); n != 0 {
		t.Fatalf("registry holds %d states for unknown groups", n)
	}

	if _, err := l.Balances(ctx, "g1"); err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if n := l.groups.size(); n != 1 {
		t.Errorf("registry size = %d, want 1", n)
	}
}
