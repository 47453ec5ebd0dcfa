package platform

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter implements Adapter for testing. It records display edits,
// channel messages, replies, and DMs, and allows simulating inbound
// requests via SimulateRequest. Individual operations can be made to fail.
type MockAdapter struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	requests  chan Request

	displayCounter int
	displays       map[string]DisplayState // displayID -> current state
	goneDisplays   map[string]bool         // displayID -> EditDisplay returns ErrDisplayGone
	channelMsgs    []ChannelMessage
	replies        []RequestResponse
	acks           []string
	suggestions    [][]string

	users       map[string]*MockUser // userID -> handle
	failResolve map[string]bool      // userID -> ResolveUser fails
}

// DisplayState is the recorded content of a mock display message.
type DisplayState struct {
	ChannelID string
	Text      string
	Controls  Controls
	Edits     int
}

// ChannelMessage is a recorded SendChannelMessage call.
type ChannelMessage struct {
	ChannelID string
	Text      string
}

// RequestResponse is a recorded Reply call.
type RequestResponse struct {
	RequestID string
	Text      string
}

// MockUser implements UserHandle and records direct messages.
type MockUser struct {
	mu       sync.Mutex
	ID       string
	FailSend bool
	Directs  []string
}

// SendDirect records the DM, or fails if FailSend is set.
func (u *MockUser) SendDirect(ctx context.Context, text string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.FailSend {
		return fmt.Errorf("mock user %s: send direct failed", u.ID)
	}
	u.Directs = append(u.Directs, text)
	return nil
}

// DirectCount returns the number of DMs delivered to the user.
func (u *MockUser) DirectCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Directs)
}

// NewMockAdapter creates a MockAdapter with a buffered request channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		requests:     make(chan Request, 100),
		displays:     make(map[string]DisplayState),
		goneDisplays: make(map[string]bool),
		users:        make(map[string]*MockUser),
		failResolve:  make(map[string]bool),
	}
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the request channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.requests, nil
}

// CreateDisplay records a new display and returns a generated ID.
func (m *MockAdapter) CreateDisplay(ctx context.Context, channelID, text string, controls Controls) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return "", fmt.Errorf("mock adapter: not connected")
	}
	m.displayCounter++
	id := fmt.Sprintf("display-%d", m.displayCounter)
	m.displays[id] = DisplayState{ChannelID: channelID, Text: text, Controls: controls}
	return id, nil
}

// EditDisplay updates a recorded display, or returns ErrDisplayGone if the
// display was marked gone via MarkDisplayGone.
func (m *MockAdapter) EditDisplay(ctx context.Context, displayID, text string, controls Controls) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goneDisplays[displayID] {
		return ErrDisplayGone
	}
	st, ok := m.displays[displayID]
	if !ok {
		return ErrDisplayGone
	}
	st.Text = text
	st.Controls = controls
	st.Edits++
	m.displays[displayID] = st
	return nil
}

// SendChannelMessage records the channel message.
func (m *MockAdapter) SendChannelMessage(ctx context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelMsgs = append(m.channelMsgs, ChannelMessage{ChannelID: channelID, Text: text})
	return nil
}

// ResolveUser returns the mock handle for userID, creating one on first use.
func (m *MockAdapter) ResolveUser(ctx context.Context, userID string) (UserHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failResolve[userID] {
		return nil, fmt.Errorf("mock adapter: user %s unresolvable", userID)
	}
	return m.userLocked(userID), nil
}

func (m *MockAdapter) userLocked(userID string) *MockUser {
	u, ok := m.users[userID]
	if !ok {
		u = &MockUser{ID: userID}
		m.users[userID] = u
	}
	return u
}

// Reply records a user-facing notice.
func (m *MockAdapter) Reply(ctx context.Context, requestID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, RequestResponse{RequestID: requestID, Text: text})
	return nil
}

// Acknowledge records a silent ack.
func (m *MockAdapter) Acknowledge(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, requestID)
	return nil
}

// Suggest records an autocomplete response.
func (m *MockAdapter) Suggest(ctx context.Context, requestID string, choices []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestions = append(m.suggestions, choices)
	return nil
}

// Close shuts down the mock adapter and closes the request channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.requests)
	return nil
}

// --- Test helpers ---

// SimulateRequest feeds a request into the Listen channel as if it came
// from the chat platform.
func (m *MockAdapter) SimulateRequest(req Request) {
	m.requests <- req
}

// MarkDisplayGone makes subsequent EditDisplay calls for displayID return
// ErrDisplayGone.
func (m *MockAdapter) MarkDisplayGone(displayID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goneDisplays[displayID] = true
}

// FailResolve makes ResolveUser fail for userID.
func (m *MockAdapter) FailResolve(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failResolve[userID] = true
}

// User returns the mock handle for userID, creating one on first use.
// Useful for pre-configuring FailSend before a notification fan-out.
func (m *MockAdapter) User(userID string) *MockUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userLocked(userID)
}

// Display returns the recorded state of a display and whether it exists.
func (m *MockAdapter) Display(displayID string) (DisplayState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.displays[displayID]
	return st, ok
}

// ChannelMessages returns a copy of all recorded channel messages.
func (m *MockAdapter) ChannelMessages() []ChannelMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChannelMessage, len(m.channelMsgs))
	copy(out, m.channelMsgs)
	return out
}

// Replies returns a copy of all recorded user-facing notices.
func (m *MockAdapter) Replies() []RequestResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestResponse, len(m.replies))
	copy(out, m.replies)
	return out
}

// LastReply returns the most recent notice, or false if none was sent.
func (m *MockAdapter) LastReply() (RequestResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return RequestResponse{}, false
	}
	return m.replies[len(m.replies)-1], true
}

// AckCount returns the number of silent acknowledgements sent.
func (m *MockAdapter) AckCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acks)
}

// LastSuggestions returns the most recent autocomplete response, or false
// if none was sent.
func (m *MockAdapter) LastSuggestions() ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.suggestions) == 0 {
		return nil, false
	}
	return m.suggestions[len(m.suggestions)-1], true
}
