package services

import (
	"time"

	"queueflow/internal/core/domain"
	"queueflow/internal/core/queue"
)

// TokenPayload is the wire shape of a token. Times are RFC 3339 in the
// presentation timezone.
type TokenPayload struct {
	ID                    uint    `json:"id"`
	Ref                   string  `json:"ref"`
	CenterID              uint    `json:"center_id"`
	ParticipantID         uint    `json:"participant_id"`
	Lane                  string  `json:"lane"`
	Label                 string  `json:"label"`
	ServiceDay            string  `json:"service_day"`
	Status                string  `json:"status"`
	CreatedAt             string  `json:"created_at"`
	ActivatedAt           *string `json:"activated_at,omitempty"`
	LeaveBy               *string `json:"leave_by,omitempty"`
	ExpectedArrival       *string `json:"expected_arrival,omitempty"`
	EstimatedServiceStart *string `json:"estimated_service_start,omitempty"`
	EstimatedServiceEnd   *string `json:"estimated_service_end,omitempty"`
	ActualServiceStart    *string `json:"actual_service_start,omitempty"`
	ActualServiceEnd      *string `json:"actual_service_end,omitempty"`
	CompletedAt           *string `json:"completed_at,omitempty"`
	ExpiredAt             *string `json:"expired_at,omitempty"`
	ExpiredReason         string  `json:"expired_reason,omitempty"`
	NoShowReason          string  `json:"no_show_reason,omitempty"`
}

// NewTokenPayload renders t for clients in loc
func NewTokenPayload(t *domain.Token, loc *time.Location) *TokenPayload {
	if t == nil {
		return nil
	}
	return &TokenPayload{
		ID:                    t.ID,
		Ref:                   t.Ref,
		CenterID:              t.CenterID,
		ParticipantID:         t.ParticipantID,
		Lane:                  string(t.Lane),
		Label:                 t.Label,
		ServiceDay:            t.ServiceDay,
		Status:                string(t.Status),
		CreatedAt:             t.CreatedAt.In(loc).Format(time.RFC3339),
		ActivatedAt:           FormatTime(t.ActivatedAt, loc),
		LeaveBy:               FormatTime(t.LeaveBy, loc),
		ExpectedArrival:       FormatTime(t.ExpectedArrival, loc),
		EstimatedServiceStart: FormatTime(t.EstimatedServiceStart, loc),
		EstimatedServiceEnd:   FormatTime(t.EstimatedServiceEnd, loc),
		ActualServiceStart:    FormatTime(t.ActualServiceStart, loc),
		ActualServiceEnd:      FormatTime(t.ActualServiceEnd, loc),
		CompletedAt:           FormatTime(t.CompletedAt, loc),
		ExpiredAt:             FormatTime(t.ExpiredAt, loc),
		ExpiredReason:         t.ExpiredReason,
		NoShowReason:          t.NoShowReason,
	}
}

// FormatTime renders an optional instant, nil stays nil
func FormatTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

// EntryPayload is one waiting token on a board
type EntryPayload struct {
	Token    *TokenPayload `json:"token"`
	Position int           `json:"position"`
	ETA      *string       `json:"eta"`
	Badge    string        `json:"status_badge"`
}

// LanePayload is the wire shape of a lane snapshot
type LanePayload struct {
	CenterID     uint           `json:"center_id"`
	CenterName   string         `json:"center_name"`
	Lane         string         `json:"lane"`
	Serving      *TokenPayload  `json:"serving"`
	NextEligible *TokenPayload  `json:"next_eligible"`
	Tokens       []EntryPayload `json:"tokens"`
	Pending      int            `json:"pending_payment"`
	CanCallNext  bool           `json:"can_call_next"`
	NextCallAt   *string        `json:"next_call_at"`
	AsOf         string         `json:"as_of"`
}

// NewLanePayload renders a lane view in loc
func NewLanePayload(v *LaneView, loc *time.Location) *LanePayload {
	p := &LanePayload{
		CenterID:     v.Center.ID,
		CenterName:   v.Center.Name,
		Lane:         string(v.State.Lane),
		Serving:      NewTokenPayload(v.State.Serving, loc),
		NextEligible: NewTokenPayload(v.State.NextEligible, loc),
		Tokens:       make([]EntryPayload, 0, len(v.State.Entries)),
		Pending:      v.State.Pending,
		CanCallNext:  v.State.CanCallNext,
		NextCallAt:   FormatTime(v.State.NextCallAt, loc),
		AsOf:         v.AsOf.In(loc).Format(time.RFC3339),
	}
	for _, e := range v.State.Entries {
		p.Tokens = append(p.Tokens, EntryPayload{
			Token:    NewTokenPayload(e.Token, loc),
			Position: e.Position,
			ETA:      FormatTime(e.ETA, loc),
			Badge:    string(e.Badge),
		})
	}
	return p
}

// TrackingPayload is what a participant's tracking page receives
type TrackingPayload struct {
	Token      *TokenPayload `json:"token"`
	CenterName string        `json:"center_name"`
	Position   int           `json:"position"`
	Serving    *TokenPayload `json:"serving"`
	ETA        *string       `json:"eta"`
	Badge      string        `json:"status_badge,omitempty"`
	AsOf       string        `json:"as_of"`
}

// NewTrackingPayload renders a tracking result in loc
func NewTrackingPayload(tr *Tracking, loc *time.Location) *TrackingPayload {
	return &TrackingPayload{
		Token:      NewTokenPayload(tr.Token, loc),
		CenterName: tr.Center.Name,
		Position:   tr.Position,
		Serving:    NewTokenPayload(tr.Serving, loc),
		ETA:        FormatTime(tr.ETA, loc),
		Badge:      string(tr.Badge),
		AsOf:       tr.AsOf.In(loc).Format(time.RFC3339),
	}
}

// AdmissionPayload is the result of one call-next
type AdmissionPayload struct {
	Outcome   string          `json:"outcome"`
	Token     *TokenPayload   `json:"token"`
	RetryAt   *string         `json:"retry_at"`
	Completed *TokenPayload   `json:"completed"`
	Skipped   []*TokenPayload `json:"skipped"`
	Expired   []*TokenPayload `json:"expired"`
}

// NewAdmissionPayload renders a call-next result in loc
func NewAdmissionPayload(a *queue.Admission, loc *time.Location) *AdmissionPayload {
	p := &AdmissionPayload{
		Outcome:   string(a.Outcome),
		Token:     NewTokenPayload(a.Token, loc),
		RetryAt:   FormatTime(a.RetryAt, loc),
		Completed: NewTokenPayload(a.Completed, loc),
		Skipped:   make([]*TokenPayload, 0, len(a.Skipped)),
		Expired:   make([]*TokenPayload, 0, len(a.Expired)),
	}
	for _, t := range a.Skipped {
		p.Skipped = append(p.Skipped, NewTokenPayload(t, loc))
	}
	for _, t := range a.Expired {
		p.Expired = append(p.Expired, NewTokenPayload(t, loc))
	}
	return p
}
