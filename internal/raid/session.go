// Package raid implements the raid session state machine: an in-memory
// store of pending sessions, roster rules, the deadline scheduler that
// resolves sessions, notification fan-out, and status rendering.
package raid

import (
	"errors"
	"sync"
	"time"
)

// Status is the lifecycle state of a session. Launched and Cancelled are
// terminal: the session is removed from the store on transition and never
// mutated again.
type Status int

const (
	StatusPending Status = iota
	StatusLaunched
	StatusCancelled
)

// String returns a short name for logging.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLaunched:
		return "launched"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error taxonomy. All errors are local to a single session or request;
// none is fatal to the process.
var (
	// ErrDuplicateOrganizerActive rejects creation when the organizer
	// already has a pending session.
	ErrDuplicateOrganizerActive = errors.New("raid: organizer already has an active raid")

	// ErrUnauthorized rejects a cancel request from a non-organizer.
	ErrUnauthorized = errors.New("raid: only the organizer may cancel")

	// ErrInvalidInput rejects out-of-range duration fields at creation.
	ErrInvalidInput = errors.New("raid: invalid hours/minutes")

	// ErrNotFound reports an operation against an unknown session.
	ErrNotFound = errors.New("raid: session not found")
)

// Session is one active raid-formation event. The display message ID
// doubles as the session identifier. All field access after creation goes
// through the session mutex so that roster operations and scheduler ticks
// never interleave on the same session.
type Session struct {
	mu sync.Mutex

	id           string
	channelID    string
	activity     string
	deadline     time.Time
	organizerID  string
	participants []string
	status       Status
	createdAt    time.Time
}

// ID returns the session identifier (the display message ID).
func (s *Session) ID() string { return s.id }

// ChannelID returns the channel the raid display lives in.
func (s *Session) ChannelID() string { return s.channelID }

// Activity returns the activity label.
func (s *Session) Activity() string { return s.activity }

// Deadline returns the absolute time at which the session resolves.
func (s *Session) Deadline() time.Time { return s.deadline }

// OrganizerID returns the creator's user ID.
func (s *Session) OrganizerID() string { return s.organizerID }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Participants returns a copy of the roster in join order.
func (s *Session) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.participants))
	copy(out, s.participants)
	return out
}

// join appends userID to the roster. It is a silent no-op when the user is
// already present, the roster is at capacity, or the session is no longer
// pending. Returns true if the roster changed.
func (s *Session) join(userID string, capacity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return false
	}
	for _, p := range s.participants {
		if p == userID {
			return false
		}
	}
	if len(s.participants) >= capacity {
		return false
	}
	s.participants = append(s.participants, userID)
	return true
}

// leave removes userID from the roster. Silent no-op when absent or the
// session is no longer pending. Returns true if the roster changed.
func (s *Session) leave(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return false
	}
	for i, p := range s.participants {
		if p == userID {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return true
		}
	}
	return false
}

// transition moves the session from Pending to a terminal state. Returns
// false if the session already left Pending (the transition happens at
// most once).
func (s *Session) transition(to Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPending {
		return false
	}
	s.status = to
	return true
}

// Snapshot is a point-in-time copy of session state for rendering,
// digests, and the dashboard.
type Snapshot struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channel_id"`
	Activity     string    `json:"activity"`
	Deadline     time.Time `json:"deadline"`
	OrganizerID  string    `json:"organizer_id"`
	Participants []string  `json:"participants"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot returns a consistent copy of the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, len(s.participants))
	copy(parts, s.participants)
	return Snapshot{
		ID:           s.id,
		ChannelID:    s.channelID,
		Activity:     s.activity,
		Deadline:     s.deadline,
		OrganizerID:  s.organizerID,
		Participants: parts,
		Status:       s.status.String(),
		CreatedAt:    s.createdAt,
	}
}
