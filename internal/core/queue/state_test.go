package queue

import (
	"testing"

	"queueflow/internal/core/domain"
)

func TestStatusBadge(t *testing.T) {
	cases := []struct {
		name    string
		arrival *int
		now     int
		want    Badge
	}{
		{"no estimate", nil, 0, BadgeTravelling},
		{"on the way", intPtr(10), 0, BadgeTravelling},
		{"just arrived", intPtr(10), 10, BadgeArrived},
		{"within grace", intPtr(10), 15, BadgeArrived},
		{"past grace", intPtr(10), 16, BadgeLate},
	}

	for _, tt := range cases {
		tok := token(1, domain.LaneOnline, domain.StatusActive)
		if tt.arrival != nil {
			tok.ExpectedArrival = timePtr(at(*tt.arrival))
		}
		if got := StatusBadge(tok, at(tt.now)); got != tt.want {
			t.Fatalf("%s: badge=%s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		servingToken(1, domain.LaneOnline, 5),
		arrivingToken(2, 8),
		arrivingToken(3, 23),
		token(4, domain.LaneOnline, domain.StatusPendingPayment),
	})

	st := Snapshot(l, t0)

	if st.Serving == nil || st.Serving.ID != 1 {
		t.Fatalf("expected token 1 serving")
	}
	if st.NextEligible == nil || st.NextEligible.ID != 2 {
		t.Fatalf("expected token 2 next")
	}
	if len(st.Entries) != 2 || st.Pending != 1 {
		t.Fatalf("expected 2 entries and 1 pending, got %d/%d", len(st.Entries), st.Pending)
	}
	if st.Entries[0].Position != 2 || st.Entries[1].Position != 3 {
		t.Fatalf("unexpected positions %d, %d", st.Entries[0].Position, st.Entries[1].Position)
	}
	if st.CanCallNext {
		t.Fatalf("call-next should wait for token 2")
	}
	assertTime(t, "nextCallAt", st.NextCallAt, at(8))
	assertTime(t, "eta", st.Entries[1].ETA, at(23))
}
