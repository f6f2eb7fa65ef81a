package models

// Member is a participant of a group.
type Member struct {
	// ID is the opaque identity token of the member, unique within its group.
	ID string `json:"id"`

	// DisplayName is the human-readable name (e.g., "Alice").
	DisplayName string `json:"display_name,omitempty"`
}

// Group is a set of members who share expenses.
// The ledger only reads groups; creating them and managing membership belongs to
// the directory collaborator.
type Group struct {
	// ID is the unique identifier for the group.
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name"`

	// Members is the current membership, ordered by member ID.
	Members []Member `json:"members"`

	// CreatedAt is the Unix timestamp in milliseconds when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// MemberIDs returns the identity tokens of all current members.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// HasMember reports whether memberID currently belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}
