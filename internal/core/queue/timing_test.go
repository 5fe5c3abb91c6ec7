package queue

import (
	"testing"

	"queueflow/internal/core/domain"
)

func TestScheduleFirstInLaneWithoutLocation(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		token(1, domain.LaneOnline, domain.StatusPendingPayment),
	})
	p1 := l.Find(1)

	changed := activateAt(t, l, p1, t0)
	if len(changed) != 1 || changed[0] != p1 {
		t.Fatalf("expected only the new token to change, got %d tokens", len(changed))
	}

	assertTime(t, "leaveBy", p1.LeaveBy, at(10))
	assertTime(t, "expectedArrival", p1.ExpectedArrival, at(20))
	assertTime(t, "estimatedServiceStart", p1.EstimatedServiceStart, at(20))
	assertTime(t, "estimatedServiceEnd", p1.EstimatedServiceEnd, at(35))
}

func TestScheduleChainsBehindPredecessor(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		token(1, domain.LaneOnline, domain.StatusPendingPayment),
		token(2, domain.LaneOnline, domain.StatusPendingPayment),
	})
	p1, p2 := l.Find(1), l.Find(2)

	activateAt(t, l, p1, t0)
	activateAt(t, l, p2, t0)

	assertTime(t, "p2 start", p2.EstimatedServiceStart, p1.ExpectedArrival.Add(mins(15)))
	assertTime(t, "p2 arrival", p2.ExpectedArrival, at(35))
	assertTime(t, "p2 leaveBy", p2.LeaveBy, at(25))
	assertTime(t, "p2 end", p2.EstimatedServiceEnd, at(50))
}

func TestScheduleUsesOwnArrivalWhenLater(t *testing.T) {
	center := testCenter()
	center.Location = &domain.GeoPoint{Lat: 0, Lon: 0}

	p2 := token(2, domain.LaneOnline, domain.StatusPendingPayment)
	p2.Origin = &domain.GeoPoint{Lat: 1, Lon: 0} // 222 minutes away
	l := NewLane(center, domain.LaneOnline, []*domain.Token{
		token(1, domain.LaneOnline, domain.StatusPendingPayment),
		p2,
	})

	activateAt(t, l, l.Find(1), t0)
	activateAt(t, l, p2, t0)

	assertTime(t, "p2 start", p2.EstimatedServiceStart, at(10+222))
	assertTime(t, "p2 leaveBy", p2.LeaveBy, at(10))
}

func TestScheduleBehindServingToken(t *testing.T) {
	serving := token(1, domain.LaneOnline, domain.StatusServing)
	serving.ActualServiceStart = timePtr(at(25))
	serving.ActualServiceEnd = timePtr(at(40))

	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		serving,
		token(2, domain.LaneOnline, domain.StatusPendingPayment),
	})
	p2 := l.Find(2)
	activateAt(t, l, p2, t0)

	assertTime(t, "start", p2.EstimatedServiceStart, at(40))
	assertTime(t, "arrival", p2.ExpectedArrival, at(40))
	assertTime(t, "leaveBy", p2.LeaveBy, at(30))
}

func TestScheduleLatePaymentPushesLaterTokens(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		token(1, domain.LaneOnline, domain.StatusPendingPayment),
		token(2, domain.LaneOnline, domain.StatusPendingPayment),
	})
	p1, p2 := l.Find(1), l.Find(2)

	activateAt(t, l, p2, t0)
	assertTime(t, "p2 start before", p2.EstimatedServiceStart, at(20))

	changed := activateAt(t, l, p1, at(5))
	if len(changed) != 2 {
		t.Fatalf("expected p1 and p2 to change, got %d", len(changed))
	}
	assertTime(t, "p1 start", p1.EstimatedServiceStart, at(25))
	assertTime(t, "p2 start after", p2.EstimatedServiceStart, at(40))
	assertMonotone(t, l)
}

func TestScheduleLeavesNonOverlappingSuccessors(t *testing.T) {
	l := NewLane(testCenter(), domain.LaneOnline, []*domain.Token{
		token(1, domain.LaneOnline, domain.StatusPendingPayment),
		token(2, domain.LaneOnline, domain.StatusPendingPayment),
	})
	p1, p2 := l.Find(1), l.Find(2)

	activateAt(t, l, p2, t0)
	p2.EstimatedServiceStart = timePtr(at(120))
	p2.EstimatedServiceEnd = timePtr(at(135))

	changed := activateAt(t, l, p1, t0)
	if len(changed) != 1 {
		t.Fatalf("expected only p1 to change, got %d", len(changed))
	}
	assertTime(t, "p2 start", p2.EstimatedServiceStart, at(120))
}

func TestComputeFirstMatchesChainSeededAtNow(t *testing.T) {
	now := at(3)
	first := Compute(now, mins(12), nil, mins(15))
	seeded := Compute(now, mins(12), &now, mins(15))
	if !first.LeaveBy.Equal(seeded.LeaveBy) || !first.ExpectedArrival.Equal(seeded.ExpectedArrival) ||
		!first.ServiceStart.Equal(seeded.ServiceStart) || !first.ServiceEnd.Equal(seeded.ServiceEnd) {
		t.Fatalf("first-in-lane estimate %+v differs from chain seeded at now %+v", first, seeded)
	}
}

func TestWalkinHasNoTravel(t *testing.T) {
	center := testCenter()
	center.Location = &domain.GeoPoint{Lat: 0, Lon: 0}
	w := token(1, domain.LaneWalkin, domain.StatusPendingPayment)
	w.Origin = &domain.GeoPoint{Lat: 1, Lon: 0}

	l := NewLane(center, domain.LaneWalkin, []*domain.Token{w})
	activateAt(t, l, w, t0)

	assertTime(t, "walk-in arrival", w.ExpectedArrival, at(10))
}
