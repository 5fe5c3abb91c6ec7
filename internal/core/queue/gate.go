package queue

import (
	"time"

	"queueflow/internal/core/domain"
)

// LateSkipAfter is how far past its expected arrival a head token may be
// before call-next skips it.
const LateSkipAfter = 15 * time.Minute

// ReasonLateSkip is recorded on tokens skipped by call-next.
const ReasonLateSkip = "more than 15 minutes late"

// Outcome is the decision of one call-next.
type Outcome string

const (
	OutcomeAdmitted Outcome = "admitted"
	OutcomeDenied   Outcome = "denied"
	OutcomeEmpty    Outcome = "empty"
)

// Admission is the result of CallNext.
type Admission struct {
	Outcome   Outcome
	Token     *domain.Token // admitted token, or the head that was denied
	RetryAt   *time.Time
	Completed *domain.Token // token that left the counter
	Skipped   []*domain.Token
	Expired   []*domain.Token // swept before the decision
	Changed   []*domain.Token // everything to persist
}

// CallNext advances the lane by one token. It sweeps first, skips heads
// that are too late, and either admits the next token, denies with the
// time to retry, or reports an empty lane. When the call is denied the
// token at the counter stays there.
//
// Every disruption in one call is folded into a single recalculation made
// after the decision, so a skip never pushes the next head out of reach.
func CallNext(l *Lane, now time.Time) Admission {
	var res Admission
	expired, disrupted := expireStale(l, now)
	res.Expired = expired

	var head *domain.Token
	for {
		head = l.Head()
		if head == nil || l.Kind == domain.LaneWalkin || head.ExpectedArrival == nil {
			break
		}
		arrival := *head.ExpectedArrival
		if now.Before(arrival) {
			break
		}
		if now.Sub(arrival) <= LateSkipAfter {
			break
		}
		if Expire(head, now, ReasonLateSkip) != nil {
			break
		}
		res.Skipped = append(res.Skipped, head)
		disrupted = true
	}

	denied := head != nil && l.Kind == domain.LaneOnline &&
		head.ExpectedArrival != nil && now.Before(*head.ExpectedArrival)

	if !denied {
		if s := l.Serving(); s != nil && Complete(s, now) == nil {
			res.Completed = s
		}
	}

	switch {
	case head == nil:
		res.Outcome = OutcomeEmpty
	case denied:
		res.Outcome = OutcomeDenied
		res.Token = head
	default:
		if err := Serve(head, now, l.Service()); err == nil {
			res.Outcome = OutcomeAdmitted
			res.Token = head
		}
	}

	var rescheduled []*domain.Token
	if disrupted {
		rescheduled = Recalculate(l, now)
	}
	if res.Outcome == OutcomeDenied {
		arrival := *head.ExpectedArrival
		res.RetryAt = &arrival
	}

	var touched []*domain.Token
	if res.Completed != nil {
		touched = append(touched, res.Completed)
	}
	if res.Outcome == OutcomeAdmitted {
		touched = append(touched, res.Token)
	}
	res.Changed = mergeTokens(res.Expired, res.Skipped, touched, rescheduled)
	return res
}

// Decision previews what CallNext would do at now. It runs the gate on a
// copy of the lane, so expiries and late skips are reflected without
// touching l.
func Decision(l *Lane, now time.Time) (canCall bool, retryAt *time.Time) {
	res := CallNext(l.clone(), now)
	return res.Outcome != OutcomeDenied, res.RetryAt
}
