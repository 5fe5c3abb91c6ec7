package repositories

import (
	"context"
	"time"

	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/core/domain"
	"queueflow/internal/core/queue"
)

// CenterRepository defines service center repository interface
type CenterRepository interface {
	GetByID(ctx context.Context, id uint) (*domain.ServiceCenter, error)
	List(ctx context.Context, activeOnly bool) ([]domain.ServiceCenter, error)
	Update(ctx context.Context, center *domain.ServiceCenter) error
}

// ParticipantRepository defines participant repository interface
type ParticipantRepository interface {
	Create(ctx context.Context, p *domain.Participant) error
	GetByID(ctx context.Context, id uint) (*domain.Participant, error)
	GetByMobile(ctx context.Context, mobile string) (*domain.Participant, error)
	Update(ctx context.Context, p *domain.Participant) error
}

// LaneFunc runs inside a lane transaction with the loaded lane aggregate.
// Returning an error rolls the transaction back.
type LaneFunc func(tx LaneTx, l *queue.Lane) error

// LaneTx is the write side of one lane transaction
type LaneTx interface {
	// FindLive returns the participant's live token in any lane, or nil.
	// Tokens already past their timeouts at now are ignored.
	FindLive(participantID uint, now time.Time) (*domain.Token, error)
	NextSequence(serviceDay string) (int, error)
	Create(t *domain.Token) error
	Save(tokens ...*domain.Token) error
	IncrementNoShow(participantID uint) error
}

// TokenRepository defines token ledger interface
type TokenRepository interface {
	// WithLane locks the center row, loads every live token of the lane
	// with its participant's location, and runs fn in one transaction.
	WithLane(ctx context.Context, centerID uint, lane domain.Lane, fn LaneFunc) error
	LiveLanes(ctx context.Context) ([]queue.LaneKey, error)
	GetByID(ctx context.Context, id uint) (*domain.Token, error)
	GetByRef(ctx context.Context, ref string) (*domain.Token, error)
	GetByLabel(ctx context.Context, centerID uint, serviceDay, label string) (*domain.Token, error)
	History(ctx context.Context, f domain.TokenFilter, offset, limit int) ([]*domain.Token, int64, error)
	Count(ctx context.Context, f domain.TokenFilter) (int64, error)
	ServiceDurations(ctx context.Context, centerID uint, limit int) ([]time.Duration, error)
}

// OperatorRepository defines operator repository interface
type OperatorRepository interface {
	Create(ctx context.Context, op *models.Operator) error
	GetByID(ctx context.Context, id uint) (*models.Operator, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
