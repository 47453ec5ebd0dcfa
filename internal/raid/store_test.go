package raid

import (
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	st := NewStore()
	s, err := st.Create("m1", "ch1", "Last Wish", time.Now().Add(time.Hour), "org1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Status() != StatusPending {
		t.Fatalf("expected pending, got %v", s.Status())
	}
	if got := st.Get("m1"); got != s {
		t.Fatalf("expected same session from Get")
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", st.Len())
	}
}

func TestStore_DuplicateOrganizerRejected(t *testing.T) {
	st := NewStore()
	if _, err := st.Create("m1", "ch1", "Last Wish", time.Now().Add(time.Hour), "org1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := st.Create("m2", "ch1", "King's Fall", time.Now().Add(time.Hour), "org1")
	if err != ErrDuplicateOrganizerActive {
		t.Fatalf("expected ErrDuplicateOrganizerActive, got %v", err)
	}
	// The existing session is untouched.
	if s := st.Get("m1"); s == nil || s.Activity() != "Last Wish" {
		t.Fatal("existing session altered by rejected create")
	}
	if st.Get("m2") != nil {
		t.Fatal("rejected create left a session behind")
	}
}

func TestStore_DifferentOrganizersCoexist(t *testing.T) {
	st := NewStore()
	if _, err := st.Create("m1", "ch1", "Last Wish", time.Now().Add(time.Hour), "org1"); err != nil {
		t.Fatalf("create org1: %v", err)
	}
	if _, err := st.Create("m2", "ch1", "King's Fall", time.Now().Add(time.Hour), "org2"); err != nil {
		t.Fatalf("create org2: %v", err)
	}
	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.Len())
	}
}

func TestStore_RemoveFreesOrganizer(t *testing.T) {
	st := NewStore()
	if _, err := st.Create("m1", "ch1", "Last Wish", time.Now().Add(time.Hour), "org1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	st.Remove("m1")
	if st.Get("m1") != nil {
		t.Fatal("expected session removed")
	}
	if _, err := st.Create("m2", "ch1", "King's Fall", time.Now().Add(time.Hour), "org1"); err != nil {
		t.Fatalf("organizer should be free after remove: %v", err)
	}
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	st := NewStore()
	st.Remove("nope")
}

func TestStore_HasOrganizer(t *testing.T) {
	st := NewStore()
	if st.HasOrganizer("org1") {
		t.Fatal("empty store should have no organizer")
	}
	st.Create("m1", "ch1", "Last Wish", time.Now().Add(time.Hour), "org1")
	if !st.HasOrganizer("org1") {
		t.Fatal("expected organizer present")
	}
}

func TestStore_SnapshotsOrderedByDeadline(t *testing.T) {
	st := NewStore()
	now := time.Now()
	st.Create("m1", "ch1", "Later", now.Add(2*time.Hour), "org1")
	st.Create("m2", "ch1", "Sooner", now.Add(time.Hour), "org2")

	snaps := st.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Activity != "Sooner" || snaps[1].Activity != "Later" {
		t.Fatalf("expected deadline order, got %s then %s", snaps[0].Activity, snaps[1].Activity)
	}
}
