package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/fireteam/internal/raid"
)

// BuildDigest renders the upcoming-raid digest from active session
// snapshots. Returns "" (suppressed) when nothing is pending.
func BuildDigest(snaps []raid.Snapshot, capacity int, now time.Time) string {
	if len(snaps) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Upcoming raids** (%d)\n", len(snaps))
	for _, s := range snaps {
		fmt.Fprintf(&b, "• %s — %s — %d/%d joined\n",
			s.Activity, startsIn(s.Deadline, now), len(s.Participants), capacity)
	}
	return strings.TrimRight(b.String(), "\n")
}

// startsIn renders the time until a deadline in whole minutes, floored
// and clamped at zero.
func startsIn(deadline, now time.Time) string {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	mins := int(remaining / time.Minute)
	if mins == 0 {
		return "starting now"
	}
	hrs := mins / 60
	mins = mins % 60
	if hrs == 0 {
		return fmt.Sprintf("starts in %dm", mins)
	}
	return fmt.Sprintf("starts in %dh%02dm", hrs, mins)
}
