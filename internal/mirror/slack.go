// Package mirror forwards raid resolution announcements to a Slack ops
// channel. Delivery is best-effort: failures are logged and dropped.
package mirror

import (
	"context"
	"fmt"
	"log"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack implements raid.Mirror against the Slack Web API.
type Slack struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a Slack mirror.
type SlackOpts struct {
	Token     string
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack mirror.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("mirror: channel ID is required")
	}
	client := opts.Client
	if client == nil {
		if opts.Token == "" {
			return nil, fmt.Errorf("mirror: token is required")
		}
		client = slackapi.New(opts.Token)
	}
	return &Slack{client: client, channelID: opts.ChannelID}, nil
}

// Announce posts the text to the ops channel. Errors are logged, never
// returned; the mirror must not affect session resolution.
func (s *Slack) Announce(ctx context.Context, text string) {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slackapi.MsgOptionText(text, false))
	if err != nil {
		log.Printf("mirror: post to %s: %v", s.channelID, err)
	}
}
