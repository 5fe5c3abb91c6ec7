package queue

import (
	"testing"

	"queueflow/internal/core/domain"
)

func servingToken(id uint, lane domain.Lane, end int) *domain.Token {
	s := token(id, lane, domain.StatusServing)
	s.ActualServiceStart = timePtr(at(end - 15))
	s.ActualServiceEnd = timePtr(at(end))
	return s
}

func arrivingToken(id uint, arrival int) *domain.Token {
	tok := token(id, domain.LaneOnline, domain.StatusActive)
	tok.ExpectedArrival = timePtr(at(arrival))
	tok.EstimatedServiceStart = timePtr(at(arrival))
	tok.EstimatedServiceEnd = timePtr(at(arrival + 15))
	tok.LeaveBy = timePtr(at(arrival - 10))
	return tok
}

func TestCallNextEmptyLaneCompletesServing(t *testing.T) {
	s := servingToken(1, domain.LaneOnline, 5)
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{s})

	res := CallNext(l, t0)

	if res.Outcome != OutcomeEmpty {
		t.Fatalf("expected empty, got %s", res.Outcome)
	}
	if s.Status != domain.StatusCompleted {
		t.Fatalf("expected serving token completed, got %s", s.Status)
	}
	assertTime(t, "completedAt", s.CompletedAt, t0)
	if res.Completed != s || len(res.Changed) != 1 {
		t.Fatalf("expected completed token reported and persisted, got %d changed", len(res.Changed))
	}
}

func TestCallNextDeniesBeforeArrival(t *testing.T) {
	s := servingToken(1, domain.LaneOnline, 5)
	head := arrivingToken(2, 12)
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{s, head})
	before := *head

	res := CallNext(l, t0)

	if res.Outcome != OutcomeDenied {
		t.Fatalf("expected denied, got %s", res.Outcome)
	}
	assertTime(t, "retryAt", res.RetryAt, at(12))
	if head.Status != domain.StatusActive || head.ActualServiceStart != nil || head.ExpectedArrival != before.ExpectedArrival {
		t.Fatalf("denied head was mutated")
	}
	if s.Status != domain.StatusServing {
		t.Fatalf("serving token should stay at the counter on denial, got %s", s.Status)
	}
	if len(res.Changed) != 0 {
		t.Fatalf("denial persisted %d tokens", len(res.Changed))
	}
}

func TestCallNextAdmitsArrivedHead(t *testing.T) {
	s := servingToken(1, domain.LaneOnline, 0)
	head := arrivingToken(2, -3)
	next := arrivingToken(3, 12)
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{s, head, next})

	res := CallNext(l, t0)

	if res.Outcome != OutcomeAdmitted || res.Token != head {
		t.Fatalf("expected head admitted, got %s", res.Outcome)
	}
	if head.Status != domain.StatusServing {
		t.Fatalf("expected Serving, got %s", head.Status)
	}
	assertTime(t, "actualServiceStart", head.ActualServiceStart, t0)
	assertTime(t, "actualServiceEnd", head.ActualServiceEnd, at(15))
	if s.Status != domain.StatusCompleted {
		t.Fatalf("previous serving token not completed: %s", s.Status)
	}
	if next.Status != domain.StatusActive {
		t.Fatalf("next token should keep waiting, got %s", next.Status)
	}
	if len(res.Changed) != 2 {
		t.Fatalf("expected 2 changed tokens, got %d", len(res.Changed))
	}
}

func TestCallNextExpiresLateHeadAndAdmitsNext(t *testing.T) {
	late := arrivingToken(1, -20)
	ready := arrivingToken(2, -5)
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{late, ready})

	res := CallNext(l, t0)

	if late.Status != domain.StatusExpired {
		t.Fatalf("late head should be expired, got %s", late.Status)
	}
	if res.Outcome != OutcomeAdmitted || res.Token != ready {
		t.Fatalf("expected second token admitted, got %s", res.Outcome)
	}
	if len(res.Expired)+len(res.Skipped) != 1 {
		t.Fatalf("expected one token removed, got %d expired %d skipped", len(res.Expired), len(res.Skipped))
	}
}

func TestCallNextRecalculatesOnceAfterDecision(t *testing.T) {
	late := arrivingToken(1, -20)
	ready := arrivingToken(2, -5)
	behind := arrivingToken(3, 30)
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{late, ready, behind})

	res := CallNext(l, t0)

	if res.Token != ready {
		t.Fatalf("expected token 2 admitted")
	}
	// chain reseeds at the new serving end (+15); own earliest arrival is +20
	assertTime(t, "behind start", behind.EstimatedServiceStart, at(20))
	assertMonotone(t, l)
}

func TestCallNextAdmitsLegacyHeadWithoutEstimate(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		token(1, domain.LaneOnline, domain.StatusActive),
	})
	res := CallNext(l, t0)
	if res.Outcome != OutcomeAdmitted {
		t.Fatalf("expected admitted, got %s", res.Outcome)
	}
}

func TestCallNextWalkinLaneIsNotGated(t *testing.T) {
	s := servingToken(1, domain.LaneWalkin, 5)
	w := token(2, domain.LaneWalkin, domain.StatusActive)
	w.ExpectedArrival = timePtr(at(40))
	l := NewLane(testCenter(), domain.LaneWalkin, []*domain.Token{s, w})

	res := CallNext(l, t0)

	if res.Outcome != OutcomeAdmitted || res.Token != w {
		t.Fatalf("walk-in should be admitted immediately, got %s", res.Outcome)
	}
	if s.Status != domain.StatusCompleted {
		t.Fatalf("walk-in serving token not completed")
	}
}

func TestCallNextIsDeterministic(t *testing.T) {
	base := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		servingToken(1, domain.LaneOnline, 2),
		arrivingToken(2, -30),
		arrivingToken(3, -1),
		arrivingToken(4, 20),
	})

	first := CallNext(copyLane(base), t0)
	for i := 0; i < 5; i++ {
		again := CallNext(copyLane(base), t0)
		if again.Outcome != first.Outcome || again.Token.ID != first.Token.ID {
			t.Fatalf("run %d decided %s/%d, first run %s/%d", i, again.Outcome, again.Token.ID, first.Outcome, first.Token.ID)
		}
	}
}

func TestCallNextNeverDoubleServes(t *testing.T) {
	var tokens []*domain.Token
	for id := uint(1); id <= 10; id++ {
		tokens = append(tokens, arrivingToken(id, int(id)*3-20))
	}
	l := NewLane(testCenter(), domain.LaneOnline, tokens)

	now := t0
	for i := 0; i < 20; i++ {
		CallNext(l, now)
		serving := 0
		for _, tok := range l.Tokens {
			if tok.Status == domain.StatusServing {
				serving++
			}
		}
		if serving > 1 {
			t.Fatalf("step %d: %d tokens serving", i, serving)
		}
		now = now.Add(mins(4))
	}
}

func TestDecisionPreview(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{arrivingToken(1, 10)})
	ok, retry := Decision(l, t0)
	if ok {
		t.Fatalf("expected call-next to be blocked")
	}
	assertTime(t, "retryAt", retry, at(10))

	if ok, _ := Decision(l, at(10)); !ok {
		t.Fatalf("expected call-next allowed at arrival")
	}
}

func TestDecisionPreviewsExpiryBeforeNextHead(t *testing.T) {
	late := arrivingToken(1, -20)
	next := arrivingToken(2, 5)
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{late, next})

	ok, retry := Decision(l, t0)
	if ok {
		t.Fatalf("expected call-next to be blocked by token 2")
	}
	// expiring token 1 reschedules token 2 from now
	assertTime(t, "retryAt", retry, at(10))
	if late.Status != domain.StatusActive {
		t.Fatalf("preview changed token 1 to %s", late.Status)
	}

	res := CallNext(l, t0)
	if res.Outcome != OutcomeDenied || res.Token != next {
		t.Fatalf("expected denial on token 2, got %s", res.Outcome)
	}
	assertTime(t, "call-next retryAt", res.RetryAt, at(10))
}
