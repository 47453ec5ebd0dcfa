package raid

import (
	"fmt"
	"strings"
	"time"
)

// Renderer produces the human-readable status text for a raid display.
// It is pure: output depends only on its arguments and configuration.
type Renderer struct {
	// CapacityLabel is the denominator shown in the roster heading. It is
	// display-only and configured independently of the enforced join cap.
	CapacityLabel int

	// Mention formats a user ID as a platform mention. Defaults to the
	// Discord <@id> form when nil.
	Mention func(userID string) string
}

func (r *Renderer) mention(userID string) string {
	if r.Mention != nil {
		return r.Mention(userID)
	}
	return fmt.Sprintf("<@%s>", userID)
}

// Render builds the pending-state display text: activity headline, time
// remaining, and the roster. Remaining time is whole minutes, floored and
// clamped at zero; a zero remainder produces the "started" branch (actual
// resolution is the scheduler's job, not this function's).
func (r *Renderer) Render(activity string, deadline time.Time, participants []string, now time.Time) string {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	mins := int(remaining / time.Minute)
	hrs := mins / 60
	mins = mins % 60

	var status string
	if hrs == 0 && mins == 0 {
		status = "The activity has started!"
	} else {
		var parts []string
		if hrs > 0 {
			parts = append(parts, fmt.Sprintf("%d hours", hrs))
		}
		if mins > 0 {
			parts = append(parts, fmt.Sprintf("%d minutes", mins))
		}
		status = fmt.Sprintf("Starts in %s.", strings.Join(parts, " and "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n%s\n", activity, status)
	b.WriteString(r.roster(participants))
	return b.String()
}

// RenderCalledOff builds the terminal text for a session that reached its
// deadline without a full roster.
func (r *Renderer) RenderCalledOff(activity string, participants []string) string {
	return fmt.Sprintf("**%s**\n\n**Cancelled:** the raid was called off for lack of participants (%d/%d).",
		activity, len(participants), r.CapacityLabel)
}

// RenderCancelled builds the terminal text for a session cancelled by its
// organizer.
func (r *Renderer) RenderCancelled(activity string) string {
	return fmt.Sprintf("**%s**\n\nThe raid has been cancelled by the organizer.", activity)
}

// RenderLaunchBroadcast builds the channel announcement for a launched
// raid, mentioning every participant.
func (r *Renderer) RenderLaunchBroadcast(activity string, participants []string) string {
	mentions := make([]string, len(participants))
	for i, p := range participants {
		mentions[i] = r.mention(p)
	}
	return fmt.Sprintf("The raid **%s** has started! %s", activity, strings.Join(mentions, " "))
}

// RenderLaunchDirect builds the DM text sent to each participant and the
// organizer when a raid launches.
func (r *Renderer) RenderLaunchDirect(activity string) string {
	return fmt.Sprintf("The raid **%s** has started!", activity)
}

// roster renders the participant section.
func (r *Renderer) roster(participants []string) string {
	if len(participants) == 0 {
		return "No participants yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Participants (%d/%d):\n", len(participants), r.CapacityLabel)
	for i, p := range participants {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, r.mention(p))
	}
	return b.String()
}
