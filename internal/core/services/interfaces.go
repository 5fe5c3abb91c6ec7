package services

import (
	"fmt"
	"time"

	"queueflow/internal/core/domain"
	"queueflow/internal/core/queue"
)

// Notifier receives queue events after they are committed. Implementations
// must not block the caller.
type Notifier interface {
	TokenScheduled(t *domain.Token, position int)
	TokenCalled(t *domain.Token)
	TokenExpired(t *domain.Token)
	QueueChanged(centerID uint, lane domain.Lane, event string, data map[string]interface{})
}

// MultiNotifier fans events out to several notifiers
type MultiNotifier []Notifier

func (m MultiNotifier) TokenScheduled(t *domain.Token, position int) {
	for _, n := range m {
		n.TokenScheduled(t, position)
	}
}

func (m MultiNotifier) TokenCalled(t *domain.Token) {
	for _, n := range m {
		n.TokenCalled(t)
	}
}

func (m MultiNotifier) TokenExpired(t *domain.Token) {
	for _, n := range m {
		n.TokenExpired(t)
	}
}

func (m MultiNotifier) QueueChanged(centerID uint, lane domain.Lane, event string, data map[string]interface{}) {
	for _, n := range m {
		n.QueueChanged(centerID, lane, event, data)
	}
}

// Actor identifies who asked for a cancellation
type Actor struct {
	Kind     string // "participant" or "operator"
	ID       uint
	CenterID uint // operators only
}

// ParticipantActor builds the actor for a participant request
func ParticipantActor(id uint) Actor {
	return Actor{Kind: "participant", ID: id}
}

// OperatorActor builds the actor for an operator request
func OperatorActor(id, centerID uint) Actor {
	return Actor{Kind: "operator", ID: id, CenterID: centerID}
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

// ============================================================
// Input DTOs
// ============================================================

// ParticipantInput registers or updates a participant by mobile
type ParticipantInput struct {
	Name      string   `json:"name"`
	Mobile    string   `json:"mobile"`
	Email     string   `json:"email"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// WalkinInput represents an operator-entered walk-in
type WalkinInput struct {
	Name      string   `json:"name"`
	Mobile    string   `json:"mobile"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CenterProfileInput carries editable center fields; nil means unchanged
type CenterProfileInput struct {
	AvgServiceMinutes *int     `json:"avg_service_minutes"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Phone             *string  `json:"phone"`
	Address           *string  `json:"address"`
}

// ============================================================
// Results
// ============================================================

// LaneView is a swept snapshot of one lane
type LaneView struct {
	Center domain.ServiceCenter
	State  queue.State
	AsOf   time.Time
}

// Tracking is what a participant sees about one token
type Tracking struct {
	Token    *domain.Token
	Center   domain.ServiceCenter
	Position int
	Serving  *domain.Token
	ETA      *time.Time
	Badge    queue.Badge
	AsOf     time.Time
}

// DailyCount is the number of tokens created on one day
type DailyCount struct {
	Day   string `json:"day"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Analytics summarizes a center's traffic
type Analytics struct {
	Today                 int64        `json:"today"`
	Daily                 []DailyCount `json:"daily"`
	Online                int64        `json:"online"`
	Walkin                int64        `json:"walkin"`
	Completed             int64        `json:"completed"`
	Expired               int64        `json:"expired"`
	NoShows               int64        `json:"no_shows"`
	AvgServiceMinutes     float64      `json:"avg_service_minutes"`
	ConfiguredServiceMins int          `json:"configured_service_minutes"`
}
