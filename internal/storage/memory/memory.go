// Package memory provides an in-process implementation of storage.Store.
// It is intended for tests and for running the server without persistence.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps all records in maps guarded by a single mutex.
// Values are copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	groups      map[string]*models.Group
	expenses    map[string]*models.Expense
	settlements map[string]*models.Settlement
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		groups:      make(map[string]*models.Group),
		expenses:    make(map[string]*models.Expense),
		settlements: make(map[string]*models.Settlement),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	return &c
}

func cloneExpense(e *models.Expense) *models.Expense {
	c := *e
	c.Splits = slices.Clone(e.Splits)
	return &c
}

func cloneSettlement(st *models.Settlement) *models.Settlement {
	c := *st
	return &c
}

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	storage.PrepareGroup(group)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrAlreadyExists)
	}
	s.groups[group.ID] = cloneGroup(group)
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return cloneGroup(group), nil
}

func (s *Store) AddGroupMembers(ctx context.Context, groupID string, members []models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	for _, m := range members {
		if !group.HasMember(m.ID) {
			group.Members = append(group.Members, m)
		}
	}
	storage.SortMembers(group.Members)
	return nil
}

func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make([]*models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, cloneGroup(g))
	}
	storage.SortGroups(groups)
	return groups, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	storage.PrepareExpense(expense)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[expense.ID]; ok {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrAlreadyExists)
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expense, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return cloneExpense(expense), nil
}

func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var expenses []*models.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			expenses = append(expenses, cloneExpense(e))
		}
	}
	storage.SortExpenses(expenses)
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[expenseID]; !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	delete(s.expenses, expenseID)
	return nil
}

func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	storage.PrepareSettlement(settlement)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settlements[settlement.ID]; ok {
		return fmt.Errorf("settlement %s: %w", settlement.ID, storage.ErrAlreadyExists)
	}
	s.settlements[settlement.ID] = cloneSettlement(settlement)
	return nil
}

func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settlement, ok := s.settlements[settlementID]
	if !ok {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return cloneSettlement(settlement), nil
}

func (s *Store) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var settlements []*models.Settlement
	for _, st := range s.settlements {
		if st.GroupID == groupID {
			settlements = append(settlements, cloneSettlement(st))
		}
	}
	storage.SortSettlements(settlements)
	return settlements, nil
}

func (s *Store) DeleteSettlement(ctx context.Context, settlementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settlements[settlementID]; !ok {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	delete(s.settlements, settlementID)
	return nil
}
