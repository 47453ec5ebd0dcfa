package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/zulandar/fireteam/internal/platform"
	"github.com/zulandar/fireteam/internal/raid"
	"github.com/zulandar/fireteam/internal/suggest"
)

// Router maps structured platform requests onto raid coordinator
// operations and turns typed errors into user-facing notices. Silent
// no-ops (duplicate join, full roster, unknown display) are acknowledged
// without a notice.
type Router struct {
	coord      *raid.Coordinator
	adapter    platform.Adapter
	activities []string
	out        io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Coordinator *raid.Coordinator
	Adapter     platform.Adapter
	Activities  []string  // autocomplete list; defaults to suggest.DefaultActivities
	Out         io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Coordinator == nil {
		return nil, fmt.Errorf("bot: router: coordinator is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: router: adapter is required")
	}
	activities := opts.Activities
	if len(activities) == 0 {
		activities = suggest.DefaultActivities
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		coord:      opts.Coordinator,
		adapter:    opts.Adapter,
		activities: activities,
		out:        out,
	}, nil
}

// Handle routes a single request.
func (r *Router) Handle(ctx context.Context, req platform.Request) {
	fmt.Fprintf(r.out, "bot: router: recv [%s user=%s display=%s]\n",
		req.Kind, req.UserName, req.DisplayID)

	switch req.Kind {
	case platform.KindAutocomplete:
		r.handleAutocomplete(ctx, req)
	case platform.KindCreate:
		r.handleCreate(ctx, req)
	case platform.KindJoin:
		r.ack(ctx, req.ID, r.coord.Join(ctx, req.DisplayID, req.UserID))
	case platform.KindLeave:
		r.ack(ctx, req.ID, r.coord.Leave(ctx, req.DisplayID, req.UserID))
	case platform.KindCancel:
		r.handleCancel(ctx, req)
	}
}

func (r *Router) handleAutocomplete(ctx context.Context, req platform.Request) {
	choices := suggest.Filter(r.activities, req.Query)
	if err := r.adapter.Suggest(ctx, req.ID, choices); err != nil {
		log.Printf("bot: router: suggest: %v", err)
	}
}

func (r *Router) handleCreate(ctx context.Context, req platform.Request) {
	s, err := r.coord.Create(ctx, req.ChannelID, req.UserID, req.Activity, req.Hours, req.Minutes)
	switch {
	case errors.Is(err, raid.ErrDuplicateOrganizerActive):
		r.reply(ctx, req.ID, "You already have an active raid. Cancel it before creating a new one.")
	case errors.Is(err, raid.ErrInvalidInput):
		r.reply(ctx, req.ID, "Invalid hours/minutes values.")
	case err != nil:
		log.Printf("bot: router: create: %v", err)
		r.reply(ctx, req.ID, "Could not create the raid, try again later.")
	default:
		r.reply(ctx, req.ID, fmt.Sprintf("Raid **%s** is scheduled. Watch the channel for the sign-up message.", s.Activity()))
	}
}

func (r *Router) handleCancel(ctx context.Context, req platform.Request) {
	err := r.coord.Cancel(ctx, req.DisplayID, req.UserID)
	switch {
	case errors.Is(err, raid.ErrUnauthorized):
		r.reply(ctx, req.ID, "Only the organizer can cancel the raid.")
	case errors.Is(err, raid.ErrNotFound):
		r.ack(ctx, req.ID, nil)
	case err != nil:
		log.Printf("bot: router: cancel: %v", err)
		r.ack(ctx, req.ID, nil)
	default:
		r.reply(ctx, req.ID, "You have cancelled the raid.")
	}
}

// ack silently acknowledges a request. A join/leave against an unknown
// display is still acknowledged: the press refers to a dead message.
func (r *Router) ack(ctx context.Context, requestID string, opErr error) {
	if opErr != nil && !errors.Is(opErr, raid.ErrNotFound) {
		log.Printf("bot: router: %v", opErr)
	}
	if err := r.adapter.Acknowledge(ctx, requestID); err != nil {
		log.Printf("bot: router: acknowledge: %v", err)
	}
}

func (r *Router) reply(ctx context.Context, requestID, text string) {
	if err := r.adapter.Reply(ctx, requestID, text); err != nil {
		log.Printf("bot: router: reply: %v", err)
	}
}
