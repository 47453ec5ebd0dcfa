// Package discord implements the platform Adapter for Discord using the
// Gateway WebSocket and interaction (slash command / button) APIs.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zulandar/fireteam/internal/platform"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 2 * time.Minute
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}
func (r *realSession) ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return r.s.ApplicationCommandBulkOverwrite(appID, guildID, commands, options...)
}
func (r *realSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return r.s.InteractionRespond(interaction, resp, options...)
}
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageEditComplex(m, options...)
}
func (r *realSession) User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error) {
	return r.s.User(userID, options...)
}
func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}

// Adapter implements platform.Adapter for Discord.
type Adapter struct {
	sess     session
	botToken string
	guildID  string

	mu              sync.Mutex
	connected       bool
	closed          bool
	requests        chan platform.Request
	pending         map[string]*discordgo.Interaction // request ID -> interaction awaiting response
	displayChannels map[string]string                 // display message ID -> channel ID
	removeHandlers  []func()

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string // Discord bot token
	GuildID  string // guild the /raid command is registered in
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}

	a := &Adapter{
		botToken:        opts.BotToken,
		guildID:         opts.GuildID,
		requests:        make(chan platform.Request, 100),
		pending:         make(map[string]*discordgo.Interaction),
		displayChannels: make(map[string]string),
		baseBackoff:     baseBackoff,
		maxBackoff:      maxBackoff,
	}

	if opts.Session != nil {
		a.sess = opts.Session
	}

	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection and
// registers the /raid command once the gateway reports ready.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	// Create real session if not injected (production path).
	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuilds
		a.sess = &realSession{s: dg}
	}

	remove := a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
		appID := r.User.ID
		if r.Application != nil && r.Application.ID != "" {
			appID = r.Application.ID
		}
		a.registerCommands(appID)
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	remove = a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	a.connected = true
	return nil
}

// Listen returns a channel of structured command requests. Registers the
// interaction handler on the Gateway session. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan platform.Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	remove := a.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		a.handleInteraction(i)
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	return a.requests, nil
}

// CreateDisplay posts the raid sign-up message and returns its message ID.
func (a *Adapter) CreateDisplay(ctx context.Context, channelID, text string, controls platform.Controls) (string, error) {
	if err := a.requireConnected(); err != nil {
		return "", err
	}

	data := &discordgo.MessageSend{
		Content:    text,
		Components: buildControls(controls),
	}

	var msg *discordgo.Message
	err := a.retryOnRateLimit(ctx, func() error {
		var sendErr error
		msg, sendErr = a.sess.ChannelMessageSendComplex(channelID, data)
		return sendErr
	})
	if err != nil {
		return "", fmt.Errorf("discord: create display: %w", err)
	}

	a.mu.Lock()
	a.displayChannels[msg.ID] = channelID
	a.mu.Unlock()
	return msg.ID, nil
}

// EditDisplay replaces the text and controls of a raid sign-up message.
// Returns platform.ErrDisplayGone when the message or its channel no
// longer exists.
func (a *Adapter) EditDisplay(ctx context.Context, displayID, text string, controls platform.Controls) error {
	if err := a.requireConnected(); err != nil {
		return err
	}

	a.mu.Lock()
	channelID, ok := a.displayChannels[displayID]
	a.mu.Unlock()
	if !ok {
		return platform.ErrDisplayGone
	}

	components := buildControls(controls)
	edit := &discordgo.MessageEdit{
		ID:         displayID,
		Channel:    channelID,
		Content:    &text,
		Components: &components,
	}

	err := a.retryOnRateLimit(ctx, func() error {
		_, editErr := a.sess.ChannelMessageEditComplex(edit)
		return editErr
	})
	if err != nil {
		if isGoneError(err) {
			a.mu.Lock()
			delete(a.displayChannels, displayID)
			a.mu.Unlock()
			return platform.ErrDisplayGone
		}
		return fmt.Errorf("discord: edit display: %w", err)
	}
	return nil
}

// SendChannelMessage posts a plain message to a channel.
func (a *Adapter) SendChannelMessage(ctx context.Context, channelID, text string) error {
	if err := a.requireConnected(); err != nil {
		return err
	}
	err := a.retryOnRateLimit(ctx, func() error {
		_, sendErr := a.sess.ChannelMessageSend(channelID, text)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: send channel message: %w", err)
	}
	return nil
}

// ResolveUser looks up a Discord user by ID.
func (a *Adapter) ResolveUser(ctx context.Context, userID string) (platform.UserHandle, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	var user *discordgo.User
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		user, apiErr = a.sess.User(userID)
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("discord: resolve user %s: %w", userID, err)
	}
	return &userHandle{adapter: a, userID: user.ID}, nil
}

// userHandle implements platform.UserHandle for a resolved Discord user.
type userHandle struct {
	adapter *Adapter
	userID  string
}

// SendDirect opens (or reuses) the user's DM channel and delivers the text.
func (u *userHandle) SendDirect(ctx context.Context, text string) error {
	a := u.adapter
	var ch *discordgo.Channel
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		ch, apiErr = a.sess.UserChannelCreate(u.userID)
		return apiErr
	})
	if err != nil {
		return fmt.Errorf("discord: open DM with %s: %w", u.userID, err)
	}
	err = a.retryOnRateLimit(ctx, func() error {
		_, sendErr := a.sess.ChannelMessageSend(ch.ID, text)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: DM %s: %w", u.userID, err)
	}
	return nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	for _, remove := range a.removeHandlers {
		remove()
	}
	a.removeHandlers = nil
	close(a.requests)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// requireConnected returns an error when the adapter is not connected.
func (a *Adapter) requireConnected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return fmt.Errorf("discord: not connected")
	}
	return nil
}

// isGoneError reports whether err means the target message or channel no
// longer exists.
func isGoneError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == 404
}

// retryOnRateLimit calls fn and retries with exponential backoff on
// Discord rate limit errors. It respects context cancellation.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err // not a rate limit error
		}

		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * a.baseBackoff
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}

		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v",
			attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
