package queue

import (
	"sync"
	"testing"

	"queueflow/internal/core/domain"
)

func TestNewLaneKeepsOwnTokensInOrder(t *testing.T) {
	other := token(9, domain.LaneOnline, domain.StatusActive)
	other.CenterID = 2
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		token(5, domain.LaneOnline, domain.StatusActive),
		token(3, domain.LaneWalkin, domain.StatusActive),
		token(2, domain.LaneOnline, domain.StatusActive),
		other,
	})

	if len(l.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(l.Tokens))
	}
	if l.Tokens[0].ID != 2 || l.Tokens[1].ID != 5 {
		t.Fatalf("tokens not ordered by id: %d, %d", l.Tokens[0].ID, l.Tokens[1].ID)
	}
}

func TestPosition(t *testing.T) {
	cases := []struct {
		name    string
		serving bool
		want    map[uint]int
	}{
		{"nobody serving", false, map[uint]int{2: 1, 4: 2, 7: 3, 8: 0}},
		{"someone serving", true, map[uint]int{2: 2, 4: 3, 7: 4, 8: 0}},
	}

	for _, tt := range cases {
		tokens := []*domain.Token{
			token(2, domain.LaneOnline, domain.StatusActive),
			token(3, domain.LaneOnline, domain.StatusExpired),
			token(4, domain.LaneOnline, domain.StatusActive),
			token(7, domain.LaneOnline, domain.StatusActive),
			token(8, domain.LaneOnline, domain.StatusPendingPayment),
		}
		if tt.serving {
			tokens = append(tokens, token(1, domain.LaneOnline, domain.StatusServing))
		}
		l := NewLane(testCenter(), domain.LaneOnline, tokens)

		for id, want := range tt.want {
			if got := l.Position(id); got != want {
				t.Fatalf("%s: Position(%d)=%d, want %d", tt.name, id, got, want)
			}
		}
		if got := l.Position(99); got != 0 {
			t.Fatalf("%s: unknown token position=%d", tt.name, got)
		}
	}
}

func TestLaneCapacityCountsPendingAndActive(t *testing.T) {
	var tokens []*domain.Token
	for id := uint(1); id <= Capacity-1; id++ {
		tokens = append(tokens, token(id, domain.LaneOnline, domain.StatusActive))
	}
	tokens = append(tokens, token(100, domain.LaneOnline, domain.StatusServing))
	l := NewLane(testCenter(), domain.LaneOnline, tokens)

	if l.Full() {
		t.Fatalf("lane with %d waiting should not be full", l.Waiting())
	}
	l.Add(token(50, domain.LaneOnline, domain.StatusPendingPayment))
	if !l.Full() {
		t.Fatalf("lane with %d waiting should be full", l.Waiting())
	}
}

func TestLaneLocksSerializeWriters(t *testing.T) {
	locks := NewLaneLocks()
	key := LaneKey{CenterID: 1, Lane: domain.LaneOnline}

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(key)
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50, got %d", counter)
	}
}

func TestLaneLocksAreIndependent(t *testing.T) {
	locks := NewLaneLocks()
	unlockOnline := locks.Lock(LaneKey{CenterID: 1, Lane: domain.LaneOnline})
	defer unlockOnline()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(LaneKey{CenterID: 1, Lane: domain.LaneWalkin})
		unlock()
		close(done)
	}()
	<-done
}
