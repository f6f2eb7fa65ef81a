package storage

import (
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// PrepareGroup fills in a generated ID and creation time and replaces Members
// with a copy ordered by ID. The caller's original slice is not reordered.
func PrepareGroup(group *models.Group) {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().UnixMilli()
	}
	group.Members = slices.Clone(group.Members)
	SortMembers(group.Members)
}

// PrepareExpense fills in a generated ID and creation time.
func PrepareExpense(expense *models.Expense) {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().UnixMilli()
	}
}

// PrepareSettlement fills in a generated ID and creation time.
func PrepareSettlement(settlement *models.Settlement) {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().UnixMilli()
	}
}

// SortMembers orders members by ID.
func SortMembers(members []models.Member) {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
}

// SortExpenses orders expenses by creation time, then ID.
func SortExpenses(expenses []*models.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].CreatedAt != expenses[j].CreatedAt {
			return expenses[i].CreatedAt < expenses[j].CreatedAt
		}
		return expenses[i].ID < expenses[j].ID
	})
}

// SortSettlements orders settlements by creation time, then ID.
func SortSettlements(settlements []*models.Settlement) {
	sort.Slice(settlements, func(i, j int) bool {
		if settlements[i].CreatedAt != settlements[j].CreatedAt {
			return settlements[i].CreatedAt < settlements[j].CreatedAt
		}
		return settlements[i].ID < settlements[j].ID
	})
}

// SortGroups orders groups by creation time, then ID.
func SortGroups(groups []*models.Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt != groups[j].CreatedAt {
			return groups[i].CreatedAt < groups[j].CreatedAt
		}
		return groups[i].ID < groups[j].ID
	})
}
