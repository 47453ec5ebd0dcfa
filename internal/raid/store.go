package raid

import (
	"sync"
	"time"
)

// Store owns all session records. Create, Get, and Remove are serialized
// by the store mutex; no other component touches the map directly.
// Sessions are held only in memory for the process lifetime.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new pending session. It fails with
// ErrDuplicateOrganizerActive when the organizer already has a pending
// session (linear scan, fine at this scale).
func (st *Store) Create(id, channelID, activity string, deadline time.Time, organizerID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.sessions {
		if s.organizerID == organizerID {
			return nil, ErrDuplicateOrganizerActive
		}
	}
	s := &Session{
		id:          id,
		channelID:   channelID,
		activity:    activity,
		deadline:    deadline,
		organizerID: organizerID,
		status:      StatusPending,
		createdAt:   time.Now(),
	}
	st.sessions[id] = s
	return s, nil
}

// HasOrganizer reports whether the organizer currently has a pending
// session. Used to reject duplicates before any display I/O happens.
func (st *Store) HasOrganizer(organizerID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.sessions {
		if s.organizerID == organizerID {
			return true
		}
	}
	return false
}

// Get returns the session with the given ID, or nil if absent.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[id]
}

// Remove deletes the session with the given ID. Removing an absent ID is
// a no-op.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of active sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Snapshots returns point-in-time copies of all active sessions, ordered
// by deadline (soonest first).
func (st *Store) Snapshots() []Snapshot {
	st.mu.Lock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.Unlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Deadline.Before(out[j-1].Deadline); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
