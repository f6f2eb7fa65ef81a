// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned (wrapped) when creating a record whose ID is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// Directory answers membership questions for the ledger.
// It is the read side of the group/member collaborator.
type Directory interface {
	// GetGroup returns the group with its current members ordered by member ID.
	// Returns an error wrapping ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// Store defines the persistence operations the ledger needs.
// This abstraction allows swapping storage backends (SQLite, bbolt, memory)
// without changing the ledger or service layers.
type Store interface {
	Directory

	// CreateGroup persists a new group and its members.
	// The group.ID and group.CreatedAt fields are populated if empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// AddGroupMembers adds members to an existing group. Existing members are
	// left unchanged.
	AddGroupMembers(ctx context.Context, groupID string, members []models.Member) error

	// ListGroups returns all groups ordered by creation time.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// CreateExpense atomically persists an expense with all of its splits.
	// The expense.ID and expense.CreatedAt fields are populated if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID with its ordered splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns the live expenses of a group ordered by
	// creation time, then ID.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// DeleteExpense removes an expense and its splits.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup returns the settlements of a group ordered by
	// creation time, then ID.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// DeleteSettlement removes a settlement by ID.
	DeleteSettlement(ctx context.Context, settlementID string) error

	// Close releases any resources held by the store.
	Close() error
}
