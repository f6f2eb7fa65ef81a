package memory

import (
	"context"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	expense := &models.Expense{ID: "e", GroupID: "g", PayerID: "a", TotalAmount: 10,
		Splits: []models.Split{{MemberID: "a", Amount: 10}}}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	expense.Splits[0].Amount = 999

	got, err := store.GetExpense(ctx, "e")
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Splits[0].Amount != 10 {
		t.Errorf("stored split mutated through caller slice: %d", got.Splits[0].Amount)
	}
	got.Splits[0].Amount = 7
	again, _ := store.GetExpense(ctx, "e")
	if again.Splits[0].Amount != 10 {
		t.Errorf("stored split mutated through returned slice: %d", again.Splits[0].Amount)
	}
}
