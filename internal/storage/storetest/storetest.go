// Package storetest holds a conformance suite that every storage.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

// Run exercises the full storage.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("settlements", func(t *testing.T) { testSettlements(t, newStore(t)) })
}

func seedGroup(t *testing.T, store storage.Store, id string, memberIDs ...string) *models.Group {
	t.Helper()
	group := &models.Group{ID: id, Name: "group " + id}
	for _, m := range memberIDs {
		group.Members = append(group.Members, models.Member{ID: m, DisplayName: "Member " + m})
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func testGroups(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	t.Run("CreateGroup generates ID and orders members", func(t *testing.T) {
		group := &models.Group{
			Name:    "Trip",
			Members: []models.Member{{ID: "carol"}, {ID: "alice"}, {ID: "bob"}},
		}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		want := []string{"alice", "bob", "carol"}
		if !reflect.DeepEqual(got.MemberIDs(), want) {
			t.Errorf("members = %v, want %v", got.MemberIDs(), want)
		}
		if got.Name != "Trip" {
			t.Errorf("name = %q, want %q", got.Name, "Trip")
		}
	})

	t.Run("CreateGroup rejects duplicate ID", func(t *testing.T) {
		seedGroup(t, store, "dup", "a")
		err := store.CreateGroup(ctx, &models.Group{ID: "dup", Name: "again"})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("GetGroup unknown", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddGroupMembers keeps existing members", func(t *testing.T) {
		seedGroup(t, store, "grow", "a")
		err := store.AddGroupMembers(ctx, "grow", []models.Member{
			{ID: "c", DisplayName: "Cee"},
			{ID: "a", DisplayName: "renamed"},
		})
		if err != nil {
			t.Fatalf("AddGroupMembers failed: %v", err)
		}
		got, err := store.GetGroup(ctx, "grow")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		want := []models.Member{{ID: "a", DisplayName: "Member a"}, {ID: "c", DisplayName: "Cee"}}
		if !reflect.DeepEqual(got.Members, want) {
			t.Errorf("members = %+v, want %+v", got.Members, want)
		}
	})

	t.Run("AddGroupMembers unknown group", func(t *testing.T) {
		err := store.AddGroupMembers(ctx, "missing", []models.Member{{ID: "x"}})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroups", func(t *testing.T) {
		groups, err := store.ListGroups(ctx)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 3 {
			t.Fatalf("expected 3 groups, got %d", len(groups))
		}
		for _, g := range groups {
			if g.ID == "grow" && len(g.Members) != 2 {
				t.Errorf("group grow has %d members, want 2", len(g.Members))
			}
		}
	})
}

func testExpenses(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()
	seedGroup(t, store, "g1", "a", "b", "c")
	seedGroup(t, store, "g2", "a", "b")

	first := &models.Expense{
		GroupID:     "g1",
		PayerID:     "a",
		TotalAmount: 90,
		Description: "dinner",
		CreatedAt:   1000,
		// Insertion order is kept, not sorted.
		Splits: []models.Split{{MemberID: "c", Amount: 30}, {MemberID: "a", Amount: 30}, {MemberID: "b", Amount: 30}},
	}
	second := &models.Expense{
		ID:          "e-second",
		GroupID:     "g1",
		PayerID:     "b",
		TotalAmount: 10,
		CreatedAt:   2000,
		Splits:      []models.Split{{MemberID: "a", Amount: 10}},
	}
	other := &models.Expense{
		GroupID:     "g2",
		PayerID:     "a",
		TotalAmount: 5,
		CreatedAt:   1500,
		Splits:      []models.Split{{MemberID: "b", Amount: 5}},
	}

	t.Run("CreateExpense and GetExpense", func(t *testing.T) {
		for _, e := range []*models.Expense{second, first, other} {
			if err := store.CreateExpense(ctx, e); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}
		if first.ID == "" {
			t.Fatal("Expected expense ID to be generated")
		}
		if second.ID != "e-second" {
			t.Errorf("explicit ID overwritten: %s", second.ID)
		}

		got, err := store.GetExpense(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !reflect.DeepEqual(got, first) {
			t.Errorf("GetExpense = %+v, want %+v", got, first)
		}
	})

	t.Run("CreateExpense duplicate ID", func(t *testing.T) {
		dup := &models.Expense{ID: "e-second", GroupID: "g1", PayerID: "a", TotalAmount: 1,
			Splits: []models.Split{{MemberID: "a", Amount: 1}}}
		if err := store.CreateExpense(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("ListExpensesByGroup orders by creation", func(t *testing.T) {
		list, err := store.ListExpensesByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 expenses, got %d", len(list))
		}
		if list[0].ID != first.ID || list[1].ID != second.ID {
			t.Errorf("order = [%s %s], want [%s %s]", list[0].ID, list[1].ID, first.ID, second.ID)
		}
		if !reflect.DeepEqual(list[0].Splits, first.Splits) {
			t.Errorf("splits = %+v, want %+v", list[0].Splits, first.Splits)
		}
	})

	t.Run("ListExpensesByGroup empty group", func(t *testing.T) {
		seedGroup(t, store, "empty", "a")
		list, err := store.ListExpensesByGroup(ctx, "empty")
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected no expenses, got %d", len(list))
		}
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, first.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, first.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, first.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		list, err := store.ListExpensesByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(list) != 1 || list[0].ID != second.ID {
			t.Errorf("remaining expenses = %+v", list)
		}
	})
}

func testSettlements(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()
	seedGroup(t, store, "g1", "a", "b")

	withNote := &models.Settlement{GroupID: "g1", FromMemberID: "b", ToMemberID: "a", Amount: 30, Note: "cash", CreatedAt: 10}
	noNote := &models.Settlement{GroupID: "g1", FromMemberID: "a", ToMemberID: "b", Amount: 5, CreatedAt: 20}

	t.Run("CreateSettlement and GetSettlement", func(t *testing.T) {
		for _, s := range []*models.Settlement{noNote, withNote} {
			if err := store.CreateSettlement(ctx, s); err != nil {
				t.Fatalf("CreateSettlement failed: %v", err)
			}
			if s.ID == "" {
				t.Fatal("Expected settlement ID to be generated")
			}
		}
		got, err := store.GetSettlement(ctx, withNote.ID)
		if err != nil {
			t.Fatalf("GetSettlement failed: %v", err)
		}
		if !reflect.DeepEqual(got, withNote) {
			t.Errorf("GetSettlement = %+v, want %+v", got, withNote)
		}
	})

	t.Run("GetSettlement unknown", func(t *testing.T) {
		if _, err := store.GetSettlement(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListSettlementsByGroup", func(t *testing.T) {
		list, err := store.ListSettlementsByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("ListSettlementsByGroup failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != withNote.ID || list[1].ID != noNote.ID {
			t.Fatalf("unexpected settlements: %+v", list)
		}
		if list[1].Note != "" {
			t.Errorf("expected empty note, got %q", list[1].Note)
		}
	})

	t.Run("DeleteSettlement", func(t *testing.T) {
		if err := store.DeleteSettlement(ctx, withNote.ID); err != nil {
			t.Fatalf("DeleteSettlement failed: %v", err)
		}
		if err := store.DeleteSettlement(ctx, withNote.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
