package raid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/fireteam/internal/platform"
)

func launchSnapshot(participants []string, organizer string) Snapshot {
	return Snapshot{
		ID:           "m1",
		ChannelID:    "ch1",
		Activity:     "Last Wish",
		Deadline:     time.Now(),
		OrganizerID:  organizer,
		Participants: participants,
		Status:       StatusLaunched.String(),
	}
}

func TestNotifier_OrganizerNotJoined(t *testing.T) {
	adapter := platform.NewMockAdapter()
	adapter.Connect(context.Background())
	n := NewNotifier(adapter, adapter, testRenderer())

	outcomes := n.Send(context.Background(), launchSnapshot([]string{"u1", "u2", "u3"}, "org1"))

	// 3 participants + the organizer.
	if len(outcomes) != 4 {
		t.Fatalf("expected 4 delivery outcomes, got %d", len(outcomes))
	}
	for _, u := range []string{"u1", "u2", "u3", "org1"} {
		if adapter.User(u).DirectCount() != 1 {
			t.Fatalf("expected exactly one DM to %s, got %d", u, adapter.User(u).DirectCount())
		}
	}
}

func TestNotifier_OrganizerJoined(t *testing.T) {
	adapter := platform.NewMockAdapter()
	adapter.Connect(context.Background())
	n := NewNotifier(adapter, adapter, testRenderer())

	outcomes := n.Send(context.Background(), launchSnapshot([]string{"org1", "u2", "u3"}, "org1"))

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 delivery outcomes, got %d", len(outcomes))
	}
	if adapter.User("org1").DirectCount() != 1 {
		t.Fatalf("organizer should receive exactly one DM, got %d", adapter.User("org1").DirectCount())
	}
}

func TestNotifier_BroadcastMentionsAll(t *testing.T) {
	adapter := platform.NewMockAdapter()
	adapter.Connect(context.Background())
	n := NewNotifier(adapter, adapter, testRenderer())

	n.Send(context.Background(), launchSnapshot([]string{"u1", "u2", "u3"}, "org1"))

	msgs := adapter.ChannelMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(msgs))
	}
	if msgs[0].ChannelID != "ch1" {
		t.Fatalf("broadcast went to %s", msgs[0].ChannelID)
	}
	for _, m := range []string{"<@u1>", "<@u2>", "<@u3>"} {
		if !strings.Contains(msgs[0].Text, m) {
			t.Fatalf("broadcast missing mention %s: %q", m, msgs[0].Text)
		}
	}
}

func TestNotifier_OneFailureDoesNotBlockOthers(t *testing.T) {
	adapter := platform.NewMockAdapter()
	adapter.Connect(context.Background())
	adapter.User("u2").FailSend = true
	n := NewNotifier(adapter, adapter, testRenderer())

	outcomes := n.Send(context.Background(), launchSnapshot([]string{"u1", "u2", "u3"}, "org1"))

	if len(outcomes) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(outcomes))
	}
	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if o.UserID != "u2" {
				t.Fatalf("unexpected failed recipient %s", o.UserID)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failure, got %d", failed)
	}
	for _, u := range []string{"u1", "u3", "org1"} {
		if adapter.User(u).DirectCount() != 1 {
			t.Fatalf("delivery to %s blocked by u2 failure", u)
		}
	}
}

func TestNotifier_UnresolvableUserLoggedNotFatal(t *testing.T) {
	adapter := platform.NewMockAdapter()
	adapter.Connect(context.Background())
	adapter.FailResolve("u1")
	n := NewNotifier(adapter, adapter, testRenderer())

	outcomes := n.Send(context.Background(), launchSnapshot([]string{"u1", "u2", "u3"}, "org1"))

	if outcomes[0].UserID != "u1" || outcomes[0].Err == nil {
		t.Fatalf("expected resolve failure for u1, got %+v", outcomes[0])
	}
	if adapter.User("u2").DirectCount() != 1 {
		t.Fatal("u2 delivery blocked by u1 resolve failure")
	}
}
