package queue

import (
	"fmt"
	"time"

	"queueflow/internal/core/domain"
)

var transitionMap = map[domain.TokenStatus][]domain.TokenStatus{
	domain.StatusPendingPayment: {domain.StatusActive, domain.StatusExpired},
	domain.StatusActive:         {domain.StatusServing, domain.StatusExpired},
	domain.StatusServing:        {domain.StatusCompleted, domain.StatusExpired},
}

// ValidTransition reports whether a token may move from one status to another.
func ValidTransition(from, to domain.TokenStatus) bool {
	for _, status := range transitionMap[from] {
		if status == to {
			return true
		}
	}
	return false
}

func transition(t *domain.Token, to domain.TokenStatus) error {
	if !ValidTransition(t.Status, to) {
		return fmt.Errorf("%w: token %d is %s, cannot become %s", domain.ErrInvalidState, t.ID, t.Status, to)
	}
	t.Status = to
	return nil
}

// Activate moves a paid token into the Active sequence. Estimates are
// stamped separately by Schedule.
func Activate(t *domain.Token, now time.Time) error {
	if err := transition(t, domain.StatusActive); err != nil {
		return err
	}
	t.ActivatedAt = timePtr(now)
	return nil
}

// Expire moves a token to Expired and records why.
func Expire(t *domain.Token, now time.Time, reason string) error {
	if err := transition(t, domain.StatusExpired); err != nil {
		return err
	}
	t.ExpiredAt = timePtr(now)
	t.ExpiredReason = reason
	return nil
}

// Complete finishes the token at the counter.
func Complete(t *domain.Token, now time.Time) error {
	if err := transition(t, domain.StatusCompleted); err != nil {
		return err
	}
	t.CompletedAt = timePtr(now)
	return nil
}

// Serve admits the token to the counter and stamps its actual window.
func Serve(t *domain.Token, now time.Time, service time.Duration) error {
	if err := transition(t, domain.StatusServing); err != nil {
		return err
	}
	t.ActualServiceStart = timePtr(now)
	t.ActualServiceEnd = timePtr(now.Add(service))
	return nil
}

// NoShow expires an Active or Serving token on the operator's word.
func NoShow(t *domain.Token, now time.Time, reason string) error {
	if t.Status != domain.StatusActive && t.Status != domain.StatusServing {
		return fmt.Errorf("%w: token %d is %s, cannot be marked no-show", domain.ErrInvalidState, t.ID, t.Status)
	}
	if err := Expire(t, now, "no-show: "+reason); err != nil {
		return err
	}
	t.NoShowReason = reason
	t.NoShowAt = timePtr(now)
	return nil
}

// Cancel expires a PendingPayment or Active token at the holder's request.
func Cancel(t *domain.Token, now time.Time, actor string) error {
	if t.Status != domain.StatusPendingPayment && t.Status != domain.StatusActive {
		return fmt.Errorf("%w: token %d is %s, cannot be cancelled", domain.ErrInvalidState, t.ID, t.Status)
	}
	return Expire(t, now, "cancelled by "+actor)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
