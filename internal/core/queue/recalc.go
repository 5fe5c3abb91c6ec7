package queue

import (
	"time"

	"queueflow/internal/core/domain"
)

// Recalculate re-derives the timeline of every Active token in the lane
// from scratch after a token left the sequence out of order. The chain is
// seeded at now, or at the serving token's end if that is later. It returns
// the tokens whose estimates moved.
func Recalculate(l *Lane, now time.Time) []*domain.Token {
	free := now
	if s := l.Serving(); s != nil {
		if end := counterFreeAt(s); end != nil && end.After(free) {
			free = *end
		}
	}

	service := l.Service()
	var changed []*domain.Token
	for _, t := range l.Active() {
		est := Compute(now, l.Travel(t), &free, service)
		if est.stamp(t) {
			changed = append(changed, t)
		}
		free = est.ServiceEnd
	}
	return changed
}
