package models

import (
	"time"

	"queueflow/internal/core/domain"
)

// ============================================================
// Queue Tables
// ============================================================

type ServiceCenter struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Code              string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Address           *string   `gorm:"size:255" json:"address"`
	Phone             *string   `gorm:"size:20" json:"phone"`
	Latitude          *float64  `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude         *float64  `gorm:"type:decimal(10,7)" json:"longitude"`
	AvgServiceMinutes int       `gorm:"not null;default:15" json:"avg_service_minutes"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ServiceCenter) TableName() string {
	return "service_centers"
}

type Participant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Mobile      *string   `gorm:"size:20;uniqueIndex" json:"mobile"`
	Email       *string   `gorm:"size:100" json:"email"`
	Latitude    *float64  `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude   *float64  `gorm:"type:decimal(10,7)" json:"longitude"`
	NoShowCount int       `gorm:"not null;default:0" json:"no_show_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Participant) TableName() string {
	return "participants"
}

type Token struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Ref           string `gorm:"size:36;uniqueIndex;not null" json:"ref"`
	CenterID      uint   `gorm:"not null;index:idx_tokens_lane,priority:1;uniqueIndex:idx_tokens_seq,priority:1" json:"center_id"`
	ParticipantID uint   `gorm:"not null;index" json:"participant_id"`
	Lane          string `gorm:"size:10;not null;index:idx_tokens_lane,priority:2;uniqueIndex:idx_tokens_seq,priority:3" json:"lane"`
	ServiceDay    string `gorm:"size:10;not null;uniqueIndex:idx_tokens_seq,priority:2" json:"service_day"`
	SequenceNo    int    `gorm:"not null;uniqueIndex:idx_tokens_seq,priority:4" json:"sequence_no"`
	Label         string `gorm:"size:10;not null" json:"label"`
	Status        string `gorm:"size:20;not null;index:idx_tokens_lane,priority:3" json:"status"`

	LeaveBy               *time.Time `json:"leave_by"`
	ExpectedArrival       *time.Time `json:"expected_arrival"`
	EstimatedServiceStart *time.Time `json:"estimated_service_start"`
	EstimatedServiceEnd   *time.Time `json:"estimated_service_end"`
	ActualServiceStart    *time.Time `json:"actual_service_start"`
	ActualServiceEnd      *time.Time `json:"actual_service_end"`

	ActivatedAt   *time.Time `json:"activated_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	ExpiredAt     *time.Time `json:"expired_at"`
	ExpiredReason string     `gorm:"size:255" json:"expired_reason"`
	NoShowReason  string     `gorm:"size:255" json:"no_show_reason"`
	NoShowAt      *time.Time `json:"no_show_at"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Center      ServiceCenter `gorm:"foreignKey:CenterID;constraint:OnDelete:CASCADE" json:"-"`
	Participant Participant   `gorm:"foreignKey:ParticipantID" json:"-"`
}

func (Token) TableName() string {
	return "tokens"
}

// ============================================================
// Domain conversion
// ============================================================

// ToDomain converts the row into a domain center
func (c *ServiceCenter) ToDomain() domain.ServiceCenter {
	return domain.ServiceCenter{
		ID:                c.ID,
		Code:              c.Code,
		Name:              c.Name,
		Address:           deref(c.Address),
		Phone:             deref(c.Phone),
		Location:          domain.NewGeoPoint(c.Latitude, c.Longitude),
		AvgServiceMinutes: c.AvgServiceMinutes,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ServiceCenterFromDomain converts a domain center into a row
func ServiceCenterFromDomain(c domain.ServiceCenter) *ServiceCenter {
	m := &ServiceCenter{
		ID:                c.ID,
		Code:              c.Code,
		Name:              c.Name,
		Address:           optional(c.Address),
		Phone:             optional(c.Phone),
		AvgServiceMinutes: c.AvgServiceMinutes,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
	m.Latitude, m.Longitude = coords(c.Location)
	return m
}

// ToDomain converts the row into a domain participant
func (p *Participant) ToDomain() domain.Participant {
	return domain.Participant{
		ID:          p.ID,
		Name:        p.Name,
		Mobile:      deref(p.Mobile),
		Email:       deref(p.Email),
		Location:    domain.NewGeoPoint(p.Latitude, p.Longitude),
		NoShowCount: p.NoShowCount,
		CreatedAt:   p.CreatedAt,
	}
}

// ParticipantFromDomain converts a domain participant into a row
func ParticipantFromDomain(p domain.Participant) *Participant {
	m := &Participant{
		ID:          p.ID,
		Name:        p.Name,
		Mobile:      optional(p.Mobile),
		Email:       optional(p.Email),
		NoShowCount: p.NoShowCount,
		CreatedAt:   p.CreatedAt,
	}
	m.Latitude, m.Longitude = coords(p.Location)
	return m
}

// ToDomain converts the row into a domain token. Origin is filled from the
// preloaded participant when present.
func (t *Token) ToDomain() *domain.Token {
	d := &domain.Token{
		ID:                    t.ID,
		Ref:                   t.Ref,
		CenterID:              t.CenterID,
		ParticipantID:         t.ParticipantID,
		Lane:                  domain.Lane(t.Lane),
		SequenceNo:            t.SequenceNo,
		ServiceDay:            t.ServiceDay,
		Label:                 t.Label,
		Status:                domain.TokenStatus(t.Status),
		CreatedAt:             t.CreatedAt.UTC(),
		ActivatedAt:           utc(t.ActivatedAt),
		LeaveBy:               utc(t.LeaveBy),
		ExpectedArrival:       utc(t.ExpectedArrival),
		EstimatedServiceStart: utc(t.EstimatedServiceStart),
		EstimatedServiceEnd:   utc(t.EstimatedServiceEnd),
		ActualServiceStart:    utc(t.ActualServiceStart),
		ActualServiceEnd:      utc(t.ActualServiceEnd),
		CompletedAt:           utc(t.CompletedAt),
		ExpiredAt:             utc(t.ExpiredAt),
		ExpiredReason:         t.ExpiredReason,
		NoShowReason:          t.NoShowReason,
		NoShowAt:              utc(t.NoShowAt),
	}
	if t.Participant.ID != 0 {
		d.Origin = domain.NewGeoPoint(t.Participant.Latitude, t.Participant.Longitude)
	}
	return d
}

// TokenFromDomain converts a domain token into a row
func TokenFromDomain(t *domain.Token) *Token {
	return &Token{
		ID:                    t.ID,
		Ref:                   t.Ref,
		CenterID:              t.CenterID,
		ParticipantID:         t.ParticipantID,
		Lane:                  string(t.Lane),
		ServiceDay:            t.ServiceDay,
		SequenceNo:            t.SequenceNo,
		Label:                 t.Label,
		Status:                string(t.Status),
		LeaveBy:               t.LeaveBy,
		ExpectedArrival:       t.ExpectedArrival,
		EstimatedServiceStart: t.EstimatedServiceStart,
		EstimatedServiceEnd:   t.EstimatedServiceEnd,
		ActualServiceStart:    t.ActualServiceStart,
		ActualServiceEnd:      t.ActualServiceEnd,
		ActivatedAt:           t.ActivatedAt,
		CompletedAt:           t.CompletedAt,
		ExpiredAt:             t.ExpiredAt,
		ExpiredReason:         t.ExpiredReason,
		NoShowReason:          t.NoShowReason,
		NoShowAt:              t.NoShowAt,
		CreatedAt:             t.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func coords(p *domain.GeoPoint) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	lat, lon := p.Lat, p.Lon
	return &lat, &lon
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
