package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/storage/bolt"
	"github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		check   func(t *testing.T, store any)
	}{
		{config.BackendSQLite, func(t *testing.T, s any) {
			if _, ok := s.(*sqlite.SQLiteStore); !ok {
				t.Errorf("got %T, want *sqlite.SQLiteStore", s)
			}
		}},
		{config.BackendBolt, func(t *testing.T, s any) {
			if _, ok := s.(*bolt.Store); !ok {
				t.Errorf("got %T, want *bolt.Store", s)
			}
		}},
		{config.BackendMemory, func(t *testing.T, s any) {
			if _, ok := s.(*memory.Store); !ok {
				t.Errorf("got %T, want *memory.Store", s)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{
				DataBackend:  tt.backend,
				SQLiteDBPath: filepath.Join(dir, "ledger.db"),
				BoltDBPath:   filepath.Join(dir, "ledger.bolt"),
			}
			store, err := OpenStore(cfg, nil)
			if err != nil {
				t.Fatalf("OpenStore failed: %v", err)
			}
			defer store.Close()
			tt.check(t, store)
		})
	}
}

func TestOpenStore_Unknown(t *testing.T) {
	if _, err := OpenStore(&config.Config{DataBackend: "postgres"}, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpen_WithoutBrokerUsesNopPublisher(t *testing.T) {
	res, err := Open(context.Background(), &config.Config{DataBackend: config.BackendMemory}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer res.Cleanup()
	if _, ok := res.Publisher.(events.NopPublisher); !ok {
		t.Errorf("publisher = %T, want events.NopPublisher", res.Publisher)
	}
}
