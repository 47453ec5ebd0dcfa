package raid

import (
	"context"
	"log"

	"github.com/zulandar/fireteam/internal/platform"
)

// DeliveryOutcome records the result of one notification attempt. Outcomes
// are gathered for logging; failures never propagate to the caller.
type DeliveryOutcome struct {
	UserID string
	Err    error
}

// Notifier fans out launch notifications: one channel broadcast mentioning
// every participant, one DM per participant, and one DM to the organizer
// when the organizer did not join. Each delivery is attempted
// independently; a failed recipient is logged and skipped, never retried.
type Notifier struct {
	display  platform.Display
	dir      platform.Directory
	renderer *Renderer
}

// NewNotifier creates a Notifier.
func NewNotifier(display platform.Display, dir platform.Directory, renderer *Renderer) *Notifier {
	return &Notifier{display: display, dir: dir, renderer: renderer}
}

// Send dispatches the launch announcement for a resolved session and
// returns the per-recipient outcomes. The session's state transition has
// already happened; nothing here can undo it.
func (n *Notifier) Send(ctx context.Context, snap Snapshot) []DeliveryOutcome {
	broadcast := n.renderer.RenderLaunchBroadcast(snap.Activity, snap.Participants)
	if err := n.display.SendChannelMessage(ctx, snap.ChannelID, broadcast); err != nil {
		log.Printf("raid: notify: broadcast for %s: %v", snap.ID, err)
	}

	direct := n.renderer.RenderLaunchDirect(snap.Activity)

	recipients := make([]string, 0, len(snap.Participants)+1)
	recipients = append(recipients, snap.Participants...)
	organizerJoined := false
	for _, p := range snap.Participants {
		if p == snap.OrganizerID {
			organizerJoined = true
			break
		}
	}
	if !organizerJoined {
		recipients = append(recipients, snap.OrganizerID)
	}

	outcomes := make([]DeliveryOutcome, 0, len(recipients))
	for _, userID := range recipients {
		err := n.sendDirect(ctx, userID, direct)
		if err != nil {
			log.Printf("raid: notify: direct to %s: %v", userID, err)
		}
		outcomes = append(outcomes, DeliveryOutcome{UserID: userID, Err: err})
	}
	return outcomes
}

// sendDirect resolves one user and delivers one DM.
func (n *Notifier) sendDirect(ctx context.Context, userID, text string) error {
	handle, err := n.dir.ResolveUser(ctx, userID)
	if err != nil {
		return err
	}
	return handle.SendDirect(ctx, text)
}
