package queue

import (
	"time"

	"queueflow/internal/core/domain"
)

// Badge summarizes where a waiting participant probably is.
type Badge string

const (
	BadgeTravelling Badge = "Travelling"
	BadgeArrived    Badge = "Arrived"
	BadgeLate       Badge = "Late"
)

// ArrivalGrace is how long after the expected arrival a participant still
// counts as arrived.
const ArrivalGrace = 5 * time.Minute

// StatusBadge derives the badge from the expected arrival.
func StatusBadge(t *domain.Token, now time.Time) Badge {
	if t.ExpectedArrival == nil || now.Before(*t.ExpectedArrival) {
		return BadgeTravelling
	}
	if now.Sub(*t.ExpectedArrival) <= ArrivalGrace {
		return BadgeArrived
	}
	return BadgeLate
}

// Entry is one waiting token as shown on a board.
type Entry struct {
	Token    *domain.Token
	Position int
	ETA      *time.Time
	Badge    Badge
}

// State is a read-only view of a lane.
type State struct {
	Lane         domain.Lane
	Serving      *domain.Token
	NextEligible *domain.Token
	Entries      []Entry
	Pending      int
	CanCallNext  bool
	NextCallAt   *time.Time
}

// Snapshot renders the lane for dashboards and boards. It does not sweep;
// callers sweep first.
func Snapshot(l *Lane, now time.Time) State {
	st := State{
		Lane:         l.Kind,
		Serving:      l.Serving(),
		NextEligible: l.Head(),
		Pending:      len(l.Pending()),
	}
	for _, t := range l.Active() {
		st.Entries = append(st.Entries, Entry{
			Token:    t,
			Position: l.Position(t.ID),
			ETA:      t.EstimatedServiceStart,
			Badge:    StatusBadge(t, now),
		})
	}
	st.CanCallNext, st.NextCallAt = Decision(l, now)
	return st
}
