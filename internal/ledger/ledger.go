// Package ledger serializes mutations of group ledgers and keeps their balances
// consistent.
//
// Every accepted mutation goes through the same steps while the group's
// exclusive lock is held: validate against the current membership, compute the
// prospective balances, check invariants, persist, and replace the cached
// snapshot. Events are published after the lock is released.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Operation names used in logs and metrics.
const (
	opRecordExpense    = "record_expense"
	opDeleteExpense    = "delete_expense"
	opRecordSettlement = "record_settlement"
	opDeleteSettlement = "delete_settlement"
	opBalances         = "balances"
	opSettlementPlan   = "settlement_plan"
)

// Ledger is the settlement engine over a storage.Store.
type Ledger struct {
	store     storage.Store
	groups    *registry
	metrics   *metrics.Metrics
	publisher events.Publisher
	logger    *slog.Logger
	strict    bool
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMetrics records mutation and invariant metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithPublisher publishes an event after every accepted mutation.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithStrictInvariants makes invariant violations panic instead of returning an error.
func WithStrictInvariants(strict bool) Option {
	return func(l *Ledger) { l.strict = strict }
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		groups:    newRegistry(),
		publisher: events.NopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Group returns the group with its current membership.
func (l *Ledger) Group(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, translateNotFound(err, ErrGroupNotFound, groupID)
	}
	return group, nil
}

// ValidateExpense checks a candidate expense against the group's current membership
// without changing any state.
func (l *Ledger) ValidateExpense(ctx context.Context, groupID string, in calculator.ExpenseInput) error {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	group, err := l.Group(ctx, groupID)
	if err != nil {
		return err
	}
	in.GroupID = groupID
	return calculator.ValidateExpense(in, group.MemberIDs())
}

// RecordExpense validates and persists a new expense and returns it with the
// resulting balances. Every call creates a distinct record.
func (l *Ledger) RecordExpense(ctx context.Context, groupID string, in calculator.ExpenseInput) (*models.Expense, *Snapshot, error) {
	expense, snapshot, err := l.recordExpense(ctx, groupID, in)
	l.observe(opRecordExpense, err)
	if err != nil {
		return nil, nil, err
	}

	l.logger.InfoContext(ctx, "Expense recorded",
		"group_id", groupID,
		"expense_id", expense.ID,
		"payer_id", expense.PayerID,
		"total_amount", expense.TotalAmount,
		"splits", len(expense.Splits))
	l.publish(ctx, events.New(events.ExpenseRecorded, groupID, expense.ID))
	return expense, snapshot, nil
}

func (l *Ledger) recordExpense(ctx context.Context, groupID string, in calculator.ExpenseInput) (*models.Expense, *Snapshot, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	group, err := l.Group(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	members := group.MemberIDs()

	in.GroupID = groupID
	if err := calculator.ValidateExpense(in, members); err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		GroupID:     groupID,
		PayerID:     in.PayerID,
		TotalAmount: in.TotalAmount,
		Description: in.Description,
		Splits:      make([]models.Split, len(in.Splits)),
		CreatedAt:   l.now().UnixMilli(),
	}
	for i, s := range in.Splits {
		expense.Splits[i] = models.Split{MemberID: s.MemberID, Amount: s.Amount}
	}
	storage.PrepareExpense(expense)

	expenses, settlements, err := l.records(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := l.compute(ctx, opRecordExpense, groupID, members, append(expenses, expense), settlements)
	if err != nil {
		return nil, nil, err
	}

	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return nil, nil, fmt.Errorf("failed to persist expense: %w", err)
	}
	st.set(snapshot, members)

	return expense, snapshot, nil
}

// DeleteExpense removes an expense from the group and returns the resulting balances.
// The balances afterwards are exactly those the group would have without the record.
func (l *Ledger) DeleteExpense(ctx context.Context, groupID, expenseID string) (*Snapshot, error) {
	snapshot, err := l.deleteExpense(ctx, groupID, expenseID)
	l.observe(opDeleteExpense, err)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Expense deleted", "group_id", groupID, "expense_id", expenseID)
	l.publish(ctx, events.New(events.ExpenseDeleted, groupID, expenseID))
	return snapshot, nil
}

func (l *Ledger) deleteExpense(ctx context.Context, groupID, expenseID string) (*Snapshot, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	group, err := l.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := group.MemberIDs()

	target, err := l.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, translateNotFound(err, ErrExpenseNotFound, expenseID)
	}
	if target.GroupID != groupID {
		return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}

	expenses, settlements, err := l.records(ctx, groupID)
	if err != nil {
		return nil, err
	}
	remaining := make([]*models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ID != expenseID {
			remaining = append(remaining, e)
		}
	}
	snapshot, err := l.compute(ctx, opDeleteExpense, groupID, members, remaining, settlements)
	if err != nil {
		return nil, err
	}

	if err := l.store.DeleteExpense(ctx, expenseID); err != nil {
		return nil, translateNotFound(err, ErrExpenseNotFound, expenseID)
	}
	st.set(snapshot, members)

	return snapshot, nil
}

// ListExpenses returns the live expenses of a group, oldest first.
func (l *Ledger) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	if _, err := l.Group(ctx, groupID); err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// Balances returns the current balances of every current and former member of the group.
func (l *Ledger) Balances(ctx context.Context, groupID string) (*Snapshot, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	group, err := l.Group(ctx, groupID)
	if err != nil {
		st.mu.RUnlock()
		return nil, err
	}
	if st.valid(group.MemberIDs()) {
		snapshot := st.snapshot
		st.mu.RUnlock()
		return snapshot, nil
	}
	st.mu.RUnlock()

	// Cache miss: rebuild under the exclusive lock.
	st.mu.Lock()
	defer st.mu.Unlock()

	group, err = l.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := group.MemberIDs()
	if st.valid(members) {
		return st.snapshot, nil
	}

	expenses, settlements, err := l.records(ctx, groupID)
	if err != nil {
		return nil, err
	}
	snapshot, err := l.compute(ctx, opBalances, groupID, members, expenses, settlements)
	if err != nil {
		return nil, err
	}
	st.set(snapshot, members)

	l.logger.DebugContext(ctx, "Snapshot rebuilt",
		"group_id", groupID,
		"expenses", len(expenses),
		"settlements", len(settlements))
	return snapshot, nil
}

// SettlementPlan returns a deterministic list of transfers that zeroes every balance.
func (l *Ledger) SettlementPlan(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	snapshot, err := l.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	transfers, err := calculator.PlanSettlement(snapshot.Net())
	if err != nil {
		return nil, l.violation(ctx, opSettlementPlan, groupID, err)
	}
	l.metrics.Plan(len(transfers))
	return transfers, nil
}

// Invalidate drops the cached snapshot of a group so the next read recomputes it.
// Use it after changing a group's records outside the Ledger.
func (l *Ledger) Invalidate(groupID string) {
	st, ok := l.groups.lookup(groupID)
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snapshot = nil
	st.members = nil
}

// state returns the lock state of a group. State is only created for groups the
// directory knows, so unknown IDs leave nothing behind.
func (l *Ledger) state(ctx context.Context, groupID string) (*groupState, error) {
	if st, ok := l.groups.lookup(groupID); ok {
		return st, nil
	}
	if _, err := l.Group(ctx, groupID); err != nil {
		return nil, err
	}
	return l.groups.get(groupID), nil
}

// records loads the live records of a group.
func (l *Ledger) records(ctx context.Context, groupID string) ([]*models.Expense, []*models.Settlement, error) {
	expenses, err := l.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	settlements, err := l.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settlements: %w", err)
	}
	return expenses, settlements, nil
}

// compute derives a snapshot from a record set, treating any calculator
// failure as an invariant violation.
func (l *Ledger) compute(ctx context.Context, op, groupID string, members []string, expenses []*models.Expense, settlements []*models.Settlement) (*Snapshot, error) {
	forBalance := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		splits := make([]calculator.Split, len(e.Splits))
		for j, s := range e.Splits {
			splits[j] = calculator.Split{MemberID: s.MemberID, Amount: s.Amount}
		}
		forBalance[i] = calculator.ExpenseForBalance{
			ID:      e.ID,
			PayerID: e.PayerID,
			Total:   e.TotalAmount,
			Splits:  splits,
		}
	}
	settlementsForBalance := make([]calculator.SettlementForBalance, len(settlements))
	for i, s := range settlements {
		settlementsForBalance[i] = calculator.SettlementForBalance{
			FromMemberID: s.FromMemberID,
			ToMemberID:   s.ToMemberID,
			Amount:       s.Amount,
		}
	}

	balances, err := calculator.CalculateGroupBalances(members, forBalance, settlementsForBalance)
	if err != nil {
		return nil, l.violation(ctx, op, groupID, err)
	}
	return &Snapshot{GroupID: groupID, Balances: balances}, nil
}

// violation reports an invariant failure. In strict mode it panics after
// logging and counting; otherwise it returns err unchanged.
func (l *Ledger) violation(ctx context.Context, op, groupID string, err error) error {
	l.metrics.InvariantViolation(op)
	l.logger.ErrorContext(ctx, "Ledger invariant violated",
		"operation", op,
		"group_id", groupID,
		"error", err)
	if l.strict {
		panic(err)
	}
	return err
}

// observe counts a finished mutation by outcome.
func (l *Ledger) observe(op string, err error) {
	var validationErr *calculator.ValidationError
	switch {
	case err == nil:
		l.metrics.Mutation(op, metrics.OutcomeAccepted)
	case errors.As(err, &validationErr):
		l.metrics.Mutation(op, metrics.OutcomeRejected)
	default:
		l.metrics.Mutation(op, metrics.OutcomeError)
	}
}

// publish delivers an event; failures are logged and never fail the mutation.
func (l *Ledger) publish(ctx context.Context, event events.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			"group_id", event.GroupID,
			"entity_id", event.EntityID,
			"error", err)
	}
}
