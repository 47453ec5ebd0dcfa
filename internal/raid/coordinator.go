package raid

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/fireteam/internal/platform"
)

// DefaultRosterCapacity is the enforced join cap.
const DefaultRosterCapacity = 3

// DefaultCapacityLabel is the display-only roster denominator. It is
// deliberately independent of the enforced cap.
const DefaultCapacityLabel = 6

// Outcome classifies how a session left the store.
type Outcome string

const (
	OutcomeLaunched  Outcome = "launched"   // full roster at deadline
	OutcomeCalledOff Outcome = "called_off" // short roster at deadline
	OutcomeCancelled Outcome = "cancelled"  // organizer cancel
	OutcomeOrphaned  Outcome = "orphaned"   // display message gone
)

// Recorder persists the outcome of a resolved session. Recording is
// best-effort; implementations log their own failures.
type Recorder interface {
	RecordResolution(ctx context.Context, snap Snapshot, outcome Outcome)
}

// Mirror forwards resolution announcements to a secondary ops channel.
// Best-effort; implementations log their own failures.
type Mirror interface {
	Announce(ctx context.Context, text string)
}

// Coordinator executes the raid session operations: creation, roster
// mutation, organizer cancel, and the scheduler-driven deadline
// resolution. It owns the only paths that mutate session state.
type Coordinator struct {
	store     *Store
	scheduler *Scheduler
	display   platform.Display
	notifier  *Notifier
	renderer  *Renderer
	capacity  int
	recorder  Recorder
	mirror    Mirror
	now       func() time.Time
}

// CoordinatorOpts holds parameters for creating a Coordinator.
type CoordinatorOpts struct {
	Display    platform.Display
	Directory  platform.Directory
	TickPeriod time.Duration // defaults to DefaultTickPeriod
	Capacity   int           // enforced join cap; defaults to DefaultRosterCapacity
	Label      int           // displayed roster denominator; defaults to DefaultCapacityLabel
	Recorder   Recorder      // optional outcome log
	Mirror     Mirror        // optional ops mirror
	Now        func() time.Time
}

// NewCoordinator creates a Coordinator and its store, scheduler, renderer,
// and notifier.
func NewCoordinator(opts CoordinatorOpts) (*Coordinator, error) {
	if opts.Display == nil {
		return nil, fmt.Errorf("raid: coordinator: display is required")
	}
	if opts.Directory == nil {
		return nil, fmt.Errorf("raid: coordinator: directory is required")
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultRosterCapacity
	}
	label := opts.Label
	if label <= 0 {
		label = DefaultCapacityLabel
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	renderer := &Renderer{CapacityLabel: label}
	c := &Coordinator{
		store:    NewStore(),
		display:  opts.Display,
		notifier: NewNotifier(opts.Display, opts.Directory, renderer),
		renderer: renderer,
		capacity: capacity,
		recorder: opts.Recorder,
		mirror:   opts.Mirror,
		now:      now,
	}
	c.scheduler = NewScheduler(opts.TickPeriod, c.HandleTick)
	return c, nil
}

// Scheduler returns the deadline scheduler; the daemon runs its loop.
func (c *Coordinator) Scheduler() *Scheduler { return c.scheduler }

// Capacity returns the enforced join cap.
func (c *Coordinator) Capacity() int { return c.capacity }

// Snapshots returns point-in-time copies of all active sessions ordered by
// deadline.
func (c *Coordinator) Snapshots() []Snapshot { return c.store.Snapshots() }

// Create validates the request, posts the raid display, registers the
// session, and arms its recurring tick. Returns the new session.
func (c *Coordinator) Create(ctx context.Context, channelID, organizerID, activity string, hours, minutes int) (*Session, error) {
	if hours < 0 || minutes < 0 || minutes > 59 {
		return nil, ErrInvalidInput
	}
	if c.store.HasOrganizer(organizerID) {
		return nil, ErrDuplicateOrganizerActive
	}

	now := c.now()
	deadline := now.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)

	text := c.renderer.Render(activity, deadline, nil, now)
	displayID, err := c.display.CreateDisplay(ctx, channelID, text, platform.ControlsActive)
	if err != nil {
		return nil, fmt.Errorf("raid: create display: %w", err)
	}

	s, err := c.store.Create(displayID, channelID, activity, deadline, organizerID)
	if err != nil {
		// Lost a race with a concurrent create by the same organizer.
		// The freshly posted display is retired in place.
		editErr := c.display.EditDisplay(ctx, displayID, c.renderer.RenderCancelled(activity), platform.ControlsNone)
		if editErr != nil && !errors.Is(editErr, platform.ErrDisplayGone) {
			log.Printf("raid: retire duplicate display %s: %v", displayID, editErr)
		}
		return nil, err
	}

	c.scheduler.Add(displayID)
	return s, nil
}

// Join adds the user to the session roster. Already joined, roster full,
// and non-pending sessions are silent no-ops, not errors. Returns
// ErrNotFound for an unknown session.
func (c *Coordinator) Join(ctx context.Context, displayID, userID string) error {
	s := c.store.Get(displayID)
	if s == nil {
		return ErrNotFound
	}
	if s.join(userID, c.capacity) {
		c.refresh(ctx, s)
	}
	return nil
}

// Leave removes the user from the session roster. Absent users are a
// silent no-op. Returns ErrNotFound for an unknown session.
func (c *Coordinator) Leave(ctx context.Context, displayID, userID string) error {
	s := c.store.Get(displayID)
	if s == nil {
		return ErrNotFound
	}
	if s.leave(userID) {
		c.refresh(ctx, s)
	}
	return nil
}

// Cancel terminates a pending session on behalf of its organizer. Returns
// ErrUnauthorized when the requester is not the organizer and ErrNotFound
// for an unknown session.
func (c *Coordinator) Cancel(ctx context.Context, displayID, requesterID string) error {
	s := c.store.Get(displayID)
	if s == nil {
		return ErrNotFound
	}
	if requesterID != s.OrganizerID() {
		return ErrUnauthorized
	}
	if !s.transition(StatusCancelled) {
		return nil // already resolving elsewhere
	}
	c.scheduler.Release(s.ID())

	snap := s.Snapshot()
	text := c.renderer.RenderCancelled(snap.Activity)
	if err := c.display.EditDisplay(ctx, s.ID(), text, platform.ControlsDisabled); err != nil {
		log.Printf("raid: cancel edit %s: %v", s.ID(), err)
	}
	c.store.Remove(s.ID())
	c.record(ctx, snap, OutcomeCancelled)
	c.announce(ctx, fmt.Sprintf("Raid cancelled by organizer: %s", snap.Activity))
	return nil
}

// HandleTick is the scheduler callback: one status re-evaluation for one
// session. Before the deadline it refreshes the display; at or past the
// deadline it resolves the session.
func (c *Coordinator) HandleTick(ctx context.Context, sessionID string) {
	s := c.store.Get(sessionID)
	if s == nil {
		// Session resolved between scheduling and firing.
		c.scheduler.Release(sessionID)
		return
	}

	now := c.now()
	if now.Before(s.Deadline()) {
		c.refresh(ctx, s)
		return
	}
	c.resolve(ctx, s, now)
}

// refresh re-renders the pending display. A gone display terminates the
// session with no notification.
func (c *Coordinator) refresh(ctx context.Context, s *Session) {
	snap := s.Snapshot()
	if snap.Status != StatusPending.String() {
		return
	}
	text := c.renderer.Render(snap.Activity, snap.Deadline, snap.Participants, c.now())
	err := c.display.EditDisplay(ctx, s.ID(), text, platform.ControlsActive)
	if err == nil {
		return
	}
	if errors.Is(err, platform.ErrDisplayGone) {
		c.orphan(ctx, s)
		return
	}
	log.Printf("raid: refresh %s: %v", s.ID(), err)
}

// resolve performs the terminal transition at the deadline: a short roster
// is called off, a full roster launches and notifies. Either way the timer
// is released and the session leaves the store.
func (c *Coordinator) resolve(ctx context.Context, s *Session, now time.Time) {
	snap := s.Snapshot()

	if len(snap.Participants) < c.capacity {
		if !s.transition(StatusCancelled) {
			return
		}
		c.scheduler.Release(s.ID())
		text := c.renderer.RenderCalledOff(snap.Activity, snap.Participants)
		if err := c.display.EditDisplay(ctx, s.ID(), text, platform.ControlsNone); err != nil {
			log.Printf("raid: called-off edit %s: %v", s.ID(), err)
		}
		c.store.Remove(s.ID())
		c.record(ctx, snap, OutcomeCalledOff)
		c.announce(ctx, fmt.Sprintf("Raid called off (%d/%d): %s", len(snap.Participants), c.capacity, snap.Activity))
		return
	}

	if !s.transition(StatusLaunched) {
		return
	}
	c.scheduler.Release(s.ID())

	c.notifier.Send(ctx, snap)

	text := c.renderer.Render(snap.Activity, snap.Deadline, snap.Participants, now)
	if err := c.display.EditDisplay(ctx, s.ID(), text, platform.ControlsNone); err != nil {
		log.Printf("raid: launch edit %s: %v", s.ID(), err)
	}
	c.store.Remove(s.ID())
	c.record(ctx, snap, OutcomeLaunched)
	c.announce(ctx, fmt.Sprintf("Raid launched (%d/%d): %s", len(snap.Participants), c.capacity, snap.Activity))
}

// orphan terminates a session whose display message no longer exists. No
// notification is attempted.
func (c *Coordinator) orphan(ctx context.Context, s *Session) {
	if !s.transition(StatusCancelled) {
		return
	}
	log.Printf("raid: display gone for %s, dropping session", s.ID())
	c.scheduler.Release(s.ID())
	snap := s.Snapshot()
	c.store.Remove(s.ID())
	c.record(ctx, snap, OutcomeOrphaned)
}

func (c *Coordinator) record(ctx context.Context, snap Snapshot, outcome Outcome) {
	if c.recorder != nil {
		c.recorder.RecordResolution(ctx, snap, outcome)
	}
}

func (c *Coordinator) announce(ctx context.Context, text string) {
	if c.mirror != nil {
		c.mirror.Announce(ctx, text)
	}
}
