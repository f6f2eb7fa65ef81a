package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/storage"
)

// notFoundError is a ledger-level not-found sentinel that also matches storage.ErrNotFound.
type notFoundError string

func (e notFoundError) Error() string { return string(e) }

func (e notFoundError) Is(target error) bool { return target == storage.ErrNotFound }

var (
	// ErrGroupNotFound is returned when the directory does not know the group.
	ErrGroupNotFound error = notFoundError("group not found")

	// ErrExpenseNotFound is returned when an expense is absent or belongs to another group.
	ErrExpenseNotFound error = notFoundError("expense not found")

	// ErrSettlementNotFound is returned when a settlement is absent or belongs to another group.
	ErrSettlementNotFound error = notFoundError("settlement not found")
)

// translateNotFound replaces a storage not-found error with the given ledger sentinel.
func translateNotFound(err error, sentinel error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
