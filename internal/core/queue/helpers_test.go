package queue

import (
	"testing"
	"time"

	"queueflow/internal/core/domain"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func mins(n int) time.Duration { return time.Duration(n) * time.Minute }

func at(n int) time.Time { return t0.Add(mins(n)) }

func testCenter() domain.ServiceCenter {
	return domain.ServiceCenter{ID: 1, Code: "MAIN", Name: "Main", AvgServiceMinutes: 15, IsActive: true}
}

func token(id uint, lane domain.Lane, status domain.TokenStatus) *domain.Token {
	return &domain.Token{
		ID:            id,
		CenterID:      1,
		ParticipantID: id,
		Lane:          lane,
		SequenceNo:    int(id),
		Label:         domain.SequenceLabel(lane, int(id)),
		Status:        status,
		CreatedAt:     t0,
	}
}

// activateAt pays for a pending token and stamps its estimates.
func activateAt(t *testing.T, l *Lane, tok *domain.Token, now time.Time) []*domain.Token {
	t.Helper()
	if err := Activate(tok, now); err != nil {
		t.Fatalf("activate token %d: %v", tok.ID, err)
	}
	return Schedule(l, tok, now)
}

func assertTime(t *testing.T, name string, got *time.Time, want time.Time) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s is nil, want %s", name, want.Format(time.RFC3339))
	}
	if !got.Equal(want) {
		t.Fatalf("%s=%s, want %s", name, got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func assertMonotone(t *testing.T, l *Lane) {
	t.Helper()
	active := l.Active()
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if a.EstimatedServiceEnd == nil || b.EstimatedServiceStart == nil {
				t.Fatalf("tokens %d/%d missing estimates", a.ID, b.ID)
			}
			if b.EstimatedServiceStart.Before(*a.EstimatedServiceEnd) {
				t.Fatalf("token %d starts %s before token %d ends %s",
					b.ID, b.EstimatedServiceStart.Format(time.RFC3339), a.ID, a.EstimatedServiceEnd.Format(time.RFC3339))
			}
		}
	}
}

func copyLane(l *Lane) *Lane {
	out := &Lane{Center: l.Center, Kind: l.Kind}
	for _, t := range l.Tokens {
		c := *t
		out.Tokens = append(out.Tokens, &c)
	}
	return out
}
