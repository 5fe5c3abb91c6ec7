package queue

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"queueflow/internal/core/domain"
)

// Capacity is the hard cap of waiting tokens (PendingPayment + Active) per lane.
const Capacity = 15

// LaneKey identifies one lane of one center.
type LaneKey struct {
	CenterID uint
	Lane     domain.Lane
}

func (k LaneKey) String() string {
	return fmt.Sprintf("%d/%s", k.CenterID, k.Lane)
}

// Lane is the live aggregate of one (center, lane): the center settings
// plus every token that was live when the lane was loaded, ordered by id.
// Tokens that turn terminal during an operation stay in the slice so the
// caller can persist them.
type Lane struct {
	Center domain.ServiceCenter
	Kind   domain.Lane
	Tokens []*domain.Token
}

// NewLane builds the aggregate, keeping only tokens that belong to it.
func NewLane(center domain.ServiceCenter, kind domain.Lane, tokens []*domain.Token) *Lane {
	l := &Lane{Center: center, Kind: kind}
	for _, t := range tokens {
		if t.CenterID == center.ID && t.Lane == kind {
			l.Tokens = append(l.Tokens, t)
		}
	}
	sort.SliceStable(l.Tokens, func(i, j int) bool { return l.Tokens[i].ID < l.Tokens[j].ID })
	return l
}

func (l *Lane) clone() *Lane {
	out := &Lane{Center: l.Center, Kind: l.Kind, Tokens: make([]*domain.Token, 0, len(l.Tokens))}
	for _, t := range l.Tokens {
		c := *t
		out.Tokens = append(out.Tokens, &c)
	}
	return out
}

// Key returns the lane identity.
func (l *Lane) Key() LaneKey {
	return LaneKey{CenterID: l.Center.ID, Lane: l.Kind}
}

// Add appends a newly created token, keeping id order.
func (l *Lane) Add(t *domain.Token) {
	l.Tokens = append(l.Tokens, t)
	sort.SliceStable(l.Tokens, func(i, j int) bool { return l.Tokens[i].ID < l.Tokens[j].ID })
}

// Find returns the token with id, or nil.
func (l *Lane) Find(id uint) *domain.Token {
	for _, t := range l.Tokens {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Serving returns the token at the counter, or nil.
func (l *Lane) Serving() *domain.Token {
	for _, t := range l.Tokens {
		if t.Status == domain.StatusServing {
			return t
		}
	}
	return nil
}

// Active returns Active tokens in admission order.
func (l *Lane) Active() []*domain.Token {
	return l.withStatus(domain.StatusActive)
}

// Pending returns tokens still awaiting payment.
func (l *Lane) Pending() []*domain.Token {
	return l.withStatus(domain.StatusPendingPayment)
}

// Head is the earliest Active token, or nil.
func (l *Lane) Head() *domain.Token {
	for _, t := range l.Tokens {
		if t.Status == domain.StatusActive {
			return t
		}
	}
	return nil
}

// Waiting counts tokens holding a place that is not yet at the counter.
func (l *Lane) Waiting() int {
	n := 0
	for _, t := range l.Tokens {
		if t.Status == domain.StatusPendingPayment || t.Status == domain.StatusActive {
			n++
		}
	}
	return n
}

// Full reports whether a new booking must be refused.
func (l *Lane) Full() bool {
	return l.Waiting() >= Capacity
}

// Position is the 1-indexed place of an Active token, counting the token at
// the counter. Tokens that are not Active have position 0.
func (l *Lane) Position(id uint) int {
	t := l.Find(id)
	if t == nil || t.Status != domain.StatusActive {
		return 0
	}
	pos := 1
	for _, other := range l.Tokens {
		if other.Status == domain.StatusActive && other.ID < id {
			pos++
		}
	}
	if l.Serving() != nil {
		pos++
	}
	return pos
}

// Service is the counter time per token.
func (l *Lane) Service() time.Duration {
	return l.Center.ServiceDuration()
}

// Travel is the trip time for a token's participant. Walk-ins are booked at
// the center, so they have no trip.
func (l *Lane) Travel(t *domain.Token) time.Duration {
	if l.Kind == domain.LaneWalkin {
		return 0
	}
	return TravelTime(t.Origin, l.Center.Location)
}

func (l *Lane) withStatus(status domain.TokenStatus) []*domain.Token {
	var out []*domain.Token
	for _, t := range l.Tokens {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// LaneLocks serializes writers per (center, lane) within one process.
type LaneLocks struct {
	mu    sync.Mutex
	locks map[LaneKey]*sync.Mutex
}

// NewLaneLocks creates an empty lock table.
func NewLaneLocks() *LaneLocks {
	return &LaneLocks{locks: make(map[LaneKey]*sync.Mutex)}
}

// Lock blocks until the lane is free and returns its unlock func.
func (l *LaneLocks) Lock(key LaneKey) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
