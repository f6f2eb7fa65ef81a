// Package bolt provides a bbolt-backed implementation of the storage.Store interface.
// Records are stored as JSON values keyed by their string ID.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Bucket names.
const (
	bucketGroups      = "groups"
	bucketExpenses    = "expenses"
	bucketSettlements = "settlements"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of a single bbolt file.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the bbolt database at dbPath and initializes buckets.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketGroups, bucketExpenses, bucketSettlements} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func put(tx *bolt.Tx, bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
}

func get(tx *bolt.Tx, bucket, key string, value any) error {
	data := tx.Bucket([]byte(bucket)).Get([]byte(key))
	if data == nil {
		return storage.ErrNotFound
	}
	return json.Unmarshal(data, value)
}

func insert(tx *bolt.Tx, bucket, key string, value any) error {
	if tx.Bucket([]byte(bucket)).Get([]byte(key)) != nil {
		return storage.ErrAlreadyExists
	}
	return put(tx, bucket, key, value)
}

func remove(tx *bolt.Tx, bucket, key string) error {
	b := tx.Bucket([]byte(bucket))
	if b.Get([]byte(key)) == nil {
		return storage.ErrNotFound
	}
	return b.Delete([]byte(key))
}

// CreateGroup persists a new group and its members.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	storage.PrepareGroup(group)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return insert(tx, bucketGroups, group.ID, group)
	})
	if err != nil {
		return fmt.Errorf("group %s: %w", group.ID, err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, bucketGroups, groupID, &group)
	})
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", groupID, err)
	}
	return &group, nil
}

// AddGroupMembers adds members that are not yet part of the group.
func (s *Store) AddGroupMembers(ctx context.Context, groupID string, members []models.Member) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		var group models.Group
		if err := get(tx, bucketGroups, groupID, &group); err != nil {
			return err
		}
		for _, m := range members {
			if !group.HasMember(m.ID) {
				group.Members = append(group.Members, m)
			}
		}
		storage.SortMembers(group.Members)
		return put(tx, bucketGroups, groupID, &group)
	})
	if err != nil {
		return fmt.Errorf("group %s: %w", groupID, err)
	}
	return nil
}

// ListGroups returns all groups ordered by creation time.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketGroups)).ForEach(func(k, v []byte) error {
			var group models.Group
			if err := json.Unmarshal(v, &group); err != nil {
				return fmt.Errorf("failed to unmarshal group: %w", err)
			}
			groups = append(groups, &group)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	storage.SortGroups(groups)
	return groups, nil
}

// CreateExpense persists an expense with its splits as a single value.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	storage.PrepareExpense(expense)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return insert(tx, bucketExpenses, expense.ID, expense)
	})
	if err != nil {
		return fmt.Errorf("expense %s: %w", expense.ID, err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, bucketExpenses, expenseID, &expense)
	})
	if err != nil {
		return nil, fmt.Errorf("expense %s: %w", expenseID, err)
	}
	return &expense, nil
}

// ListExpensesByGroup scans the expenses bucket for the group's records.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketExpenses)).ForEach(func(k, v []byte) error {
			var expense models.Expense
			if err := json.Unmarshal(v, &expense); err != nil {
				return fmt.Errorf("failed to unmarshal expense: %w", err)
			}
			if expense.GroupID == groupID {
				expenses = append(expenses, &expense)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	storage.SortExpenses(expenses)
	return expenses, nil
}

// DeleteExpense removes an expense by ID.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return remove(tx, bucketExpenses, expenseID)
	})
	if err != nil {
		return fmt.Errorf("expense %s: %w", expenseID, err)
	}
	return nil
}

// CreateSettlement persists a settlement.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	storage.PrepareSettlement(settlement)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return insert(tx, bucketSettlements, settlement.ID, settlement)
	})
	if err != nil {
		return fmt.Errorf("settlement %s: %w", settlement.ID, err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, bucketSettlements, settlementID, &settlement)
	})
	if err != nil {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, err)
	}
	return &settlement, nil
}

// ListSettlementsByGroup scans the settlements bucket for the group's records.
func (s *Store) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	var settlements []*models.Settlement
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSettlements)).ForEach(func(k, v []byte) error {
			var settlement models.Settlement
			if err := json.Unmarshal(v, &settlement); err != nil {
				return fmt.Errorf("failed to unmarshal settlement: %w", err)
			}
			if settlement.GroupID == groupID {
				settlements = append(settlements, &settlement)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	storage.SortSettlements(settlements)
	return settlements, nil
}

// DeleteSettlement removes a settlement by ID.
func (s *Store) DeleteSettlement(ctx context.Context, settlementID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return remove(tx, bucketSettlements, settlementID)
	})
	if err != nil {
		return fmt.Errorf("settlement %s: %w", settlementID, err)
	}
	return nil
}
