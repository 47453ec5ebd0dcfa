package bot

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/fireteam/internal/platform"
	"github.com/zulandar/fireteam/internal/raid"
)

type routerFixture struct {
	adapter *platform.MockAdapter
	coord   *raid.Coordinator
	router  *Router
	out     *bytes.Buffer
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		adapter: platform.NewMockAdapter(),
		out:     &bytes.Buffer{},
	}
	if err := f.adapter.Connect(context.Background()); err != nil {
		t.Fatalf("connect mock: %v", err)
	}
	coord, err := raid.NewCoordinator(raid.CoordinatorOpts{
		Display:   f.adapter,
		Directory: f.adapter,
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	f.coord = coord
	router, err := NewRouter(RouterOpts{
		Coordinator: coord,
		Adapter:     f.adapter,
		Out:         f.out,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	f.router = router
	return f
}

func (f *routerFixture) createRaid(t *testing.T, organizer string) string {
	t.Helper()
	f.router.Handle(context.Background(), platform.Request{
		ID: "req-create", Kind: platform.KindCreate,
		ChannelID: "ch1", UserID: organizer, UserName: organizer,
		Activity: "Last Wish", Hours: 2,
	})
	snaps := f.coord.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("create did not register a session: %d", len(snaps))
	}
	return snaps[0].ID
}

func TestNewRouter_RequiredFields(t *testing.T) {
	if _, err := NewRouter(RouterOpts{}); err == nil {
		t.Fatal("expected error for missing coordinator")
	}
}

func TestRouter_CreateRepliesWithConfirmation(t *testing.T) {
	f := newRouterFixture(t)
	f.createRaid(t, "org1")

	reply, ok := f.adapter.LastReply()
	if !ok {
		t.Fatal("no reply sent")
	}
	if !strings.Contains(reply.Text, "Last Wish") || !strings.Contains(reply.Text, "scheduled") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestRouter_CreateDuplicateOrganizerNotice(t *testing.T) {
	f := newRouterFixture(t)
	f.createRaid(t, "org1")

	f.router.Handle(context.Background(), platform.Request{
		ID: "req-2", Kind: platform.KindCreate,
		ChannelID: "ch1", UserID: "org1", Activity: "King's Fall", Hours: 1,
	})

	reply, _ := f.adapter.LastReply()
	if !strings.Contains(reply.Text, "already have an active raid") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestRouter_CreateInvalidInputNotice(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(context.Background(), platform.Request{
		ID: "req-1", Kind: platform.KindCreate,
		ChannelID: "ch1", UserID: "org1", Activity: "Last Wish", Minutes: 75,
	})

	reply, _ := f.adapter.LastReply()
	if !strings.Contains(reply.Text, "Invalid hours/minutes") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestRouter_JoinAcknowledgesSilently(t *testing.T) {
	f := newRouterFixture(t)
	id := f.createRaid(t, "org1")

	f.router.Handle(context.Background(), platform.Request{
		ID: "req-join", Kind: platform.KindJoin, DisplayID: id, UserID: "u1",
	})

	if f.adapter.AckCount() != 1 {
		t.Fatalf("expected one ack, got %d", f.adapter.AckCount())
	}
	if len(f.coord.Snapshots()[0].Participants) != 1 {
		t.Fatal("join not applied")
	}
}

func TestRouter_JoinUnknownDisplayStillAcked(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(context.Background(), platform.Request{
		ID: "req-join", Kind: platform.KindJoin, DisplayID: "dead-message", UserID: "u1",
	})

	if f.adapter.AckCount() != 1 {
		t.Fatalf("expected one ack, got %d", f.adapter.AckCount())
	}
	if _, ok := f.adapter.LastReply(); ok {
		t.Fatal("unknown display must not produce a notice")
	}
}

func TestRouter_LeaveAcknowledgesSilently(t *testing.T) {
	f := newRouterFixture(t)
	id := f.createRaid(t, "org1")
	f.router.Handle(context.Background(), platform.Request{
		ID: "req-join", Kind: platform.KindJoin, DisplayID: id, UserID: "u1",
	})
	f.router.Handle(context.Background(), platform.Request{
		ID: "req-leave", Kind: platform.KindLeave, DisplayID: id, UserID: "u1",
	})

	if f.adapter.AckCount() != 2 {
		t.Fatalf("expected two acks, got %d", f.adapter.AckCount())
	}
	if len(f.coord.Snapshots()[0].Participants) != 0 {
		t.Fatal("leave not applied")
	}
}

func TestRouter_CancelByOrganizer(t *testing.T) {
	f := newRouterFixture(t)
	id := f.createRaid(t, "org1")

	f.router.Handle(context.Background(), platform.Request{
		ID: "req-cancel", Kind: platform.KindCancel, DisplayID: id, UserID: "org1",
	})

	reply, _ := f.adapter.LastReply()
	if !strings.Contains(reply.Text, "You have cancelled the raid.") {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(f.coord.Snapshots()) != 0 {
		t.Fatal("session not removed")
	}
}

func TestRouter_CancelUnauthorizedNotice(t *testing.T) {
	f := newRouterFixture(t)
	id := f.createRaid(t, "org1")

	f.router.Handle(context.Background(), platform.Request{
		ID: "req-cancel", Kind: platform.KindCancel, DisplayID: id, UserID: "u1",
	})

	reply, _ := f.adapter.LastReply()
	if !strings.Contains(reply.Text, "Only the organizer") {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(f.coord.Snapshots()) != 1 {
		t.Fatal("session removed by unauthorized cancel")
	}
}

func TestRouter_AutocompleteSuggests(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Handle(context.Background(), platform.Request{
		ID: "req-ac", Kind: platform.KindAutocomplete, Query: "wish",
	})

	choices, ok := f.adapter.LastSuggestions()
	if !ok {
		t.Fatal("no suggestions sent")
	}
	if len(choices) != 1 || choices[0] != "Last Wish" {
		t.Fatalf("choices = %v", choices)
	}
}

func TestRouter_LogsRequestsToOut(t *testing.T) {
	f := newRouterFixture(t)
	f.createRaid(t, "org1")

	if !strings.Contains(f.out.String(), "recv [create user=org1") {
		t.Fatalf("out = %q", f.out.String())
	}
}

func TestStartsIn_Formats(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		deadline time.Time
		want     string
	}{
		{now, "starting now"},
		{now.Add(-time.Minute), "starting now"},
		{now.Add(30 * time.Second), "starting now"},
		{now.Add(5 * time.Minute), "starts in 5m"},
		{now.Add(125 * time.Minute), "starts in 2h05m"},
	}
	for _, tc := range cases {
		if got := startsIn(tc.deadline, now); got != tc.want {
			t.Fatalf("startsIn(%v) = %q, want %q", tc.deadline.Sub(now), got, tc.want)
		}
	}
}
