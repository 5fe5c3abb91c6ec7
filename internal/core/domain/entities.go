package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role represents operator role in the system
type Role string

const (
	RoleOperator Role = "OPERATOR"
	RoleAdmin    Role = "ADMIN"
)

// Lane is one of the two independent queues of a service center.
type Lane string

const (
	LaneOnline Lane = "ONLINE"
	LaneWalkin Lane = "WALKIN"
)

// Lanes lists every lane in display order.
var Lanes = []Lane{LaneOnline, LaneWalkin}

// Valid reports whether l is a known lane.
func (l Lane) Valid() bool {
	return l == LaneOnline || l == LaneWalkin
}

// Prefix returns the sequence label prefix for the lane.
func (l Lane) Prefix() string {
	if l == LaneWalkin {
		return "W"
	}
	return "T"
}

// ParseLane accepts the lane names used in URLs and request bodies.
func ParseLane(s string) (Lane, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "t":
		return LaneOnline, nil
	case "walkin", "walk-in", "w":
		return LaneWalkin, nil
	}
	return "", fmt.Errorf("%w: unknown lane %q", ErrInvalidInput, s)
}

// TokenStatus is a token state machine value.
type TokenStatus string

const (
	StatusPendingPayment TokenStatus = "PendingPayment"
	StatusActive         TokenStatus = "Active"
	StatusServing        TokenStatus = "Serving"
	StatusCompleted      TokenStatus = "Completed"
	StatusExpired        TokenStatus = "Expired"
)

// LiveStatuses are the statuses that hold a place in a lane.
var LiveStatuses = []TokenStatus{StatusPendingPayment, StatusActive, StatusServing}

// Terminal reports whether no transition leaves s.
func (s TokenStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewGeoPoint returns nil unless both coordinates are present.
func NewGeoPoint(lat, lon *float64) *GeoPoint {
	if lat == nil || lon == nil {
		return nil
	}
	return &GeoPoint{Lat: *lat, Lon: *lon}
}

// ServiceCenter represents a service center in the domain layer
type ServiceCenter struct {
	ID                uint
	Code              string
	Name              string
	Address           string
	Phone             string
	Location          *GeoPoint
	AvgServiceMinutes int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ServiceDuration is the per-token counter time.
func (c ServiceCenter) ServiceDuration() time.Duration {
	return time.Duration(c.AvgServiceMinutes) * time.Minute
}

// Participant represents a customer in the domain layer
type Participant struct {
	ID          uint
	Name        string
	Mobile      string
	Email       string
	Location    *GeoPoint
	NoShowCount int
	CreatedAt   time.Time
}

// Token is a numbered place in one lane of a service center.
type Token struct {
	ID            uint
	Ref           string
	CenterID      uint
	ParticipantID uint
	Lane          Lane
	SequenceNo    int
	ServiceDay    string
	Label         string
	Status        TokenStatus
	CreatedAt     time.Time
	ActivatedAt   *time.Time

	LeaveBy               *time.Time
	ExpectedArrival       *time.Time
	EstimatedServiceStart *time.Time
	EstimatedServiceEnd   *time.Time
	ActualServiceStart    *time.Time
	ActualServiceEnd      *time.Time

	CompletedAt   *time.Time
	ExpiredAt     *time.Time
	ExpiredReason string
	NoShowReason  string
	NoShowAt      *time.Time

	// Origin is the participant location at load time. Not persisted on the token.
	Origin *GeoPoint
}

// SequenceLabel formats the display code for a lane sequence number.
func SequenceLabel(lane Lane, seq int) string {
	return fmt.Sprintf("%s%03d", lane.Prefix(), seq)
}

// ParseSequenceLabel splits a display code like "T007" into lane and number.
func ParseSequenceLabel(label string) (Lane, int, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) < 2 {
		return "", 0, fmt.Errorf("%w: bad label %q", ErrInvalidInput, label)
	}
	lane, err := ParseLane(label[:1])
	if err != nil {
		return "", 0, err
	}
	digits := label[1:]
	seq, err := strconv.Atoi(digits)
	if err != nil || seq <= 0 || digits[0] < '0' || digits[0] > '9' {
		return "", 0, fmt.Errorf("%w: bad label %q", ErrInvalidInput, label)
	}
	return lane, seq, nil
}

// TokenFilter narrows token queries for history and analytics.
type TokenFilter struct {
	CenterID      uint
	ParticipantID uint
	Lane          Lane
	Statuses      []TokenStatus
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	NoShowOnly    bool
}
