package bolt

import (
	"path/filepath"
	"testing"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storetest"
)

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		store, err := New(filepath.Join(t.TempDir(), "ledger.bolt"))
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		return store
	})
}
