// Package platform defines the chat-platform surfaces the raid core talks to.
package platform

import (
	"context"
	"errors"
)

// ErrDisplayGone is returned by EditDisplay when the target message no
// longer exists (deleted by a user or by the platform). It is fatal for
// the session that owns the display, never for the process.
var ErrDisplayGone = errors.New("platform: display gone")

// Controls describes the interactive state of a raid display message.
type Controls int

const (
	// ControlsActive renders the Join/Leave/Cancel buttons enabled.
	ControlsActive Controls = iota
	// ControlsDisabled renders the buttons greyed out.
	ControlsDisabled
	// ControlsNone renders no buttons at all.
	ControlsNone
)

// RequestKind identifies the kind of structured command request.
type RequestKind int

const (
	KindCreate RequestKind = iota
	KindJoin
	KindLeave
	KindCancel
	KindAutocomplete
)

// String returns a short name for logging.
func (k RequestKind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindCancel:
		return "cancel"
	case KindAutocomplete:
		return "autocomplete"
	default:
		return "unknown"
	}
}

// Request is a structured command request received from the chat platform.
type Request struct {
	ID        string      // opaque per-request identifier, used to respond
	Kind      RequestKind // what the user asked for
	ChannelID string      // channel the request originated in
	DisplayID string      // raid display message ID (join/leave/cancel)
	UserID    string      // platform user identifier
	UserName  string      // human-readable username

	// Create fields.
	Activity string
	Hours    int
	Minutes  int

	// Autocomplete field.
	Query string
}

// Display is the surface for creating and updating raid status messages.
type Display interface {
	// CreateDisplay posts a new raid display message and returns its ID.
	CreateDisplay(ctx context.Context, channelID, text string, controls Controls) (string, error)

	// EditDisplay replaces the text and controls of an existing display.
	// Returns ErrDisplayGone if the message no longer exists.
	EditDisplay(ctx context.Context, displayID, text string, controls Controls) error

	// SendChannelMessage posts a plain message to a channel.
	SendChannelMessage(ctx context.Context, channelID, text string) error
}

// UserHandle is a resolved platform user that can receive direct messages.
type UserHandle interface {
	// SendDirect delivers a direct message to the user. Failure is
	// non-fatal to the caller.
	SendDirect(ctx context.Context, text string) error
}

// Directory resolves platform user identifiers to deliverable handles.
type Directory interface {
	// ResolveUser looks up a user by ID.
	ResolveUser(ctx context.Context, userID string) (UserHandle, error)
}

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management, command intake,
// interaction responses, and the Display/Directory surfaces for a single
// chat platform.
type Adapter interface {
	Display
	Directory

	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of structured command requests. The channel
	// is closed when the adapter is closed. Listen must only be called
	// after Connect.
	Listen(ctx context.Context) (<-chan Request, error)

	// Reply sends a short user-facing notice in response to a request
	// (visible only to the requesting user where the platform supports it).
	Reply(ctx context.Context, requestID, text string) error

	// Acknowledge silently acknowledges a request that produced no
	// user-facing notice (join/leave presses, including no-ops).
	Acknowledge(ctx context.Context, requestID string) error

	// Suggest answers an autocomplete request with up to 25 choices.
	Suggest(ctx context.Context, requestID string, choices []string) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}
