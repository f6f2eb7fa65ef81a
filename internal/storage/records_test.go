package storage

import (
	"reflect"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
)

func TestPrepareGroup(t *testing.T) {
	members := []models.Member{{ID: "carol"}, {ID: "alice"}, {ID: "bob"}}
	group := &models.Group{Name: "Trip", Members: members}

	PrepareGroup(group)

	if group.ID == "" || group.CreatedAt == 0 {
		t.Errorf("expected generated ID and creation time, got %+v", group)
	}
	wantSorted := []models.Member{{ID: "alice"}, {ID: "bob"}, {ID: "carol"}}
	if !reflect.DeepEqual(group.Members, wantSorted) {
		t.Errorf("group members = %+v, want %+v", group.Members, wantSorted)
	}
	wantOriginal := []models.Member{{ID: "carol"}, {ID: "alice"}, {ID: "bob"}}
	if !reflect.DeepEqual(members, wantOriginal) {
		t.Errorf("caller slice reordered to %+v", members)
	}
}

func TestPrepareGroup_KeepsExistingID(t *testing.T) {
	group := &models.Group{ID: "g1", CreatedAt: 42}
	PrepareGroup(group)
	if group.ID != "g1" || group.CreatedAt != 42 {
		t.Errorf("PrepareGroup overwrote fields: %+v", group)
	}
}
