package ledger

import (
	"slices"
	"sync"

	"github.com/mmynk/splitledger/internal/calculator"
)

// Snapshot is the balance state of one group at a point in time.
// Snapshots are shared between callers and must be treated as read-only.
type Snapshot struct {
	GroupID  string
	Balances []calculator.MemberBalance
}

// Net returns the member ID -> net balance mapping.
func (s *Snapshot) Net() map[string]int64 {
	return calculator.NetBalances(s.Balances)
}

// groupState serializes access to one group and holds its cached snapshot.
type groupState struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	// members is the membership the snapshot was computed against.
	members []string
}

// valid reports whether the cached snapshot was computed for this membership.
func (g *groupState) valid(members []string) bool {
	return g.snapshot != nil && slices.Equal(g.members, members)
}

func (g *groupState) set(snapshot *Snapshot, members []string) {
	g.snapshot = snapshot
	g.members = slices.Clone(members)
}

// registry lazily creates one groupState per group ID.
type registry struct {
	mu     sync.Mutex
	groups map[string]*groupState
}

func newRegistry() *registry {
	return &registry{groups: make(map[string]*groupState)}
}

func (r *registry) lookup(groupID string) (*groupState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.groups[groupID]
	return st, ok
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// get returns the state of groupID, creating it if needed.
func (r *registry) get(groupID string) *groupState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.groups[groupID]
	if !ok {
		st = &groupState{}
		r.groups[groupID] = st
	}
	return st
}
