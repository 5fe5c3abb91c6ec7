package queue

import (
	"time"

	"queueflow/internal/core/domain"
)

const (
	PaymentTimeout   = 2 * time.Hour
	ArrivalTimeout   = 15 * time.Minute
	WalkinStaleAfter = 4 * time.Hour

	ReasonPaymentTimeout = "payment timeout"
	ReasonDidNotArrive   = "auto-expired: did not arrive"
	ReasonStaleWalkin    = "auto-expired: stale walk-in"
)

// SweepResult lists what one sweep touched.
type SweepResult struct {
	Expired     []*domain.Token
	Rescheduled []*domain.Token
}

// Changed returns every token that must be persisted, without duplicates.
func (r SweepResult) Changed() []*domain.Token {
	return mergeTokens(r.Expired, r.Rescheduled)
}

// Sweep expires stale tokens and, if any Active token left the sequence,
// recalculates the rest of the lane. Running it twice at the same instant
// changes nothing the second time.
func Sweep(l *Lane, now time.Time) SweepResult {
	expired, disrupted := expireStale(l, now)
	res := SweepResult{Expired: expired}
	if disrupted {
		res.Rescheduled = Recalculate(l, now)
	}
	return res
}

// expireStale applies the timeout rules and reports whether an Active
// token was removed.
func expireStale(l *Lane, now time.Time) ([]*domain.Token, bool) {
	var expired []*domain.Token
	disrupted := false

	for _, t := range l.Tokens {
		reason := staleReason(l.Kind, t, now)
		if reason == "" {
			continue
		}
		wasActive := t.Status == domain.StatusActive
		if Expire(t, now, reason) == nil {
			expired = append(expired, t)
			disrupted = disrupted || wasActive
		}
	}
	return expired, disrupted
}

// Stale reports whether a sweep at now would expire t.
func Stale(t *domain.Token, now time.Time) bool {
	return staleReason(t.Lane, t, now) != ""
}

func staleReason(lane domain.Lane, t *domain.Token, now time.Time) string {
	switch t.Status {
	case domain.StatusPendingPayment:
		if now.Sub(t.CreatedAt) > PaymentTimeout {
			return ReasonPaymentTimeout
		}
	case domain.StatusActive:
		return activeTimeout(lane, t, now)
	}
	return ""
}

func activeTimeout(lane domain.Lane, t *domain.Token, now time.Time) string {
	if lane == domain.LaneWalkin {
		since := t.CreatedAt
		if t.ActivatedAt != nil {
			since = *t.ActivatedAt
		}
		if now.Sub(since) > WalkinStaleAfter {
			return ReasonStaleWalkin
		}
		return ""
	}

	if t.ExpectedArrival == nil {
		return ""
	}
	if now.Sub(*t.ExpectedArrival) > ArrivalTimeout {
		return ReasonDidNotArrive
	}
	return ""
}

func mergeTokens(groups ...[]*domain.Token) []*domain.Token {
	seen := make(map[*domain.Token]bool)
	var out []*domain.Token
	for _, g := range groups {
		for _, t := range g {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
