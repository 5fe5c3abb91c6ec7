package queue

import (
	"time"

	"queueflow/internal/core/domain"
)

// ReadinessBuffer is the fixed preparation time before a participant can
// leave for the center.
const ReadinessBuffer = 10 * time.Minute

// Estimate is the projected timeline of one token.
type Estimate struct {
	LeaveBy         time.Time
	ExpectedArrival time.Time
	ServiceStart    time.Time
	ServiceEnd      time.Time
}

// Compute projects a token's timeline. counterFree is when the counter is
// next free after every token ahead; nil means the token is first in its
// lane with nobody at the counter.
func Compute(now time.Time, travel time.Duration, counterFree *time.Time, service time.Duration) Estimate {
	if counterFree == nil {
		leave := now.Add(ReadinessBuffer)
		arrival := leave.Add(travel)
		return Estimate{
			LeaveBy:         leave,
			ExpectedArrival: arrival,
			ServiceStart:    arrival,
			ServiceEnd:      arrival.Add(service),
		}
	}

	start := now.Add(ReadinessBuffer).Add(travel)
	if counterFree.After(start) {
		start = *counterFree
	}
	leave := start.Add(-travel)
	if leave.Before(now) {
		leave = now
	}
	return Estimate{
		LeaveBy:         leave,
		ExpectedArrival: start,
		ServiceStart:    start,
		ServiceEnd:      start.Add(service),
	}
}

// stamp writes the estimate onto t and reports whether anything moved.
func (e Estimate) stamp(t *domain.Token) bool {
	changed := !sameTime(t.LeaveBy, e.LeaveBy) ||
		!sameTime(t.ExpectedArrival, e.ExpectedArrival) ||
		!sameTime(t.EstimatedServiceStart, e.ServiceStart) ||
		!sameTime(t.EstimatedServiceEnd, e.ServiceEnd)

	t.LeaveBy = timePtr(e.LeaveBy)
	t.ExpectedArrival = timePtr(e.ExpectedArrival)
	t.EstimatedServiceStart = timePtr(e.ServiceStart)
	t.EstimatedServiceEnd = timePtr(e.ServiceEnd)
	return changed
}

// Schedule stamps estimates on a token that has just become Active and
// pushes back any later Active token whose window would now overlap.
// It returns every token whose estimates changed, t first.
func Schedule(l *Lane, t *domain.Token, now time.Time) []*domain.Token {
	service := l.Service()
	free := chainEnd(l, t.ID, now)
	Compute(now, l.Travel(t), free, service).stamp(t)

	changed := []*domain.Token{t}
	next := *t.EstimatedServiceEnd
	for _, u := range l.Active() {
		if u.ID <= t.ID {
			continue
		}
		if u.EstimatedServiceStart == nil || u.EstimatedServiceEnd == nil || u.EstimatedServiceStart.Before(next) {
			if Compute(now, l.Travel(u), &next, service).stamp(u) {
				changed = append(changed, u)
			}
		}
		next = *u.EstimatedServiceEnd
	}
	return changed
}

// chainEnd is when the counter frees up after the token at the counter and
// every Active token with an id below before. Nil when there is nobody.
func chainEnd(l *Lane, before uint, now time.Time) *time.Time {
	var free *time.Time
	if s := l.Serving(); s != nil {
		end := now
		if f := counterFreeAt(s); f != nil {
			end = *f
		}
		free = &end
	}

	service := l.Service()
	for _, p := range l.Active() {
		if p.ID >= before {
			break
		}
		start := now
		if p.EstimatedServiceStart != nil {
			start = *p.EstimatedServiceStart
		} else if free != nil {
			start = *free
		}
		if free != nil && free.After(start) {
			start = *free
		}
		end := start.Add(service)
		free = &end
	}
	return free
}

// counterFreeAt prefers the stamped actual end over the projection.
func counterFreeAt(serving *domain.Token) *time.Time {
	if serving.ActualServiceEnd != nil {
		return serving.ActualServiceEnd
	}
	return serving.EstimatedServiceEnd
}

func sameTime(p *time.Time, t time.Time) bool {
	return p != nil && p.Equal(t)
}
