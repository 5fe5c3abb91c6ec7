package queue

import (
	"errors"
	"testing"

	"queueflow/internal/core/domain"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  domain.TokenStatus
		to    domain.TokenStatus
		valid bool
	}{
		{domain.StatusPendingPayment, domain.StatusActive, true},
		{domain.StatusPendingPayment, domain.StatusExpired, true},
		{domain.StatusPendingPayment, domain.StatusServing, false},
		{domain.StatusActive, domain.StatusServing, true},
		{domain.StatusActive, domain.StatusExpired, true},
		{domain.StatusActive, domain.StatusPendingPayment, false},
		{domain.StatusActive, domain.StatusCompleted, false},
		{domain.StatusServing, domain.StatusCompleted, true},
		{domain.StatusServing, domain.StatusExpired, true},
		{domain.StatusServing, domain.StatusActive, false},
		{domain.StatusCompleted, domain.StatusExpired, false},
		{domain.StatusCompleted, domain.StatusActive, false},
		{domain.StatusExpired, domain.StatusActive, false},
		{domain.StatusExpired, domain.StatusCompleted, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestCancelRules(t *testing.T) {
	cases := []struct {
		status domain.TokenStatus
		ok     bool
	}{
		{domain.StatusPendingPayment, true},
		{domain.StatusActive, true},
		{domain.StatusServing, false},
		{domain.StatusCompleted, false},
		{domain.StatusExpired, false},
	}

	for _, tt := range cases {
		tok := token(1, domain.LaneOnline, tt.status)
		err := Cancel(tok, t0, "participant:1")
		if tt.ok {
			if err != nil {
				t.Fatalf("cancel from %s: %v", tt.status, err)
			}
			if tok.ExpiredReason != "cancelled by participant:1" {
				t.Fatalf("unexpected reason %q", tok.ExpiredReason)
			}
			continue
		}
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("cancel from %s: expected ErrInvalidState, got %v", tt.status, err)
		}
		if tok.Status != tt.status {
			t.Fatalf("failed cancel changed status to %s", tok.Status)
		}
	}
}

func TestNoShowRules(t *testing.T) {
	for _, status := range []domain.TokenStatus{domain.StatusActive, domain.StatusServing} {
		tok := token(1, domain.LaneOnline, status)
		if err := NoShow(tok, t0, "did not respond"); err != nil {
			t.Fatalf("no-show from %s: %v", status, err)
		}
		if tok.Status != domain.StatusExpired || tok.NoShowReason != "did not respond" {
			t.Fatalf("no-show from %s left %s/%q", status, tok.Status, tok.NoShowReason)
		}
		assertTime(t, "noShowAt", tok.NoShowAt, t0)
	}

	for _, status := range []domain.TokenStatus{domain.StatusPendingPayment, domain.StatusCompleted, domain.StatusExpired} {
		tok := token(1, domain.LaneOnline, status)
		if err := NoShow(tok, t0, "absent"); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("no-show from %s: expected ErrInvalidState, got %v", status, err)
		}
	}
}

func TestServeStampsActualWindow(t *testing.T) {
	tok := token(1, domain.LaneOnline, domain.StatusActive)
	if err := Serve(tok, t0, mins(15)); err != nil {
		t.Fatalf("serve: %v", err)
	}
	assertTime(t, "actualServiceStart", tok.ActualServiceStart, t0)
	assertTime(t, "actualServiceEnd", tok.ActualServiceEnd, at(15))

	if err := Serve(tok, t0, mins(15)); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("serving twice: expected ErrInvalidState, got %v", err)
	}
}
