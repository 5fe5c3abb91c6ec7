package repositories

import (
	"context"
	"errors"
	"time"

	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/core/domain"
	"queueflow/internal/core/queue"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token ledger
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// ============================================================
// Lane Transactions
// ============================================================

// WithLane runs fn against one lane inside a transaction
func (r *tokenRepository) WithLane(ctx context.Context, centerID uint, lane domain.Lane, fn LaneFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var center models.ServiceCenter
		q := tx
		if locksRows(tx.Dialector.Name()) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&center, centerID).Error; err != nil {
			return notFound(err)
		}

		var rows []models.Token
		err := tx.Preload("Participant").
			Where("center_id = ? AND lane = ? AND status IN ?", centerID, string(lane), liveStatuses()).
			Order("id ASC").
			Find(&rows).Error
		if err != nil {
			return err
		}

		tokens := make([]*domain.Token, 0, len(rows))
		for i := range rows {
			tokens = append(tokens, rows[i].ToDomain())
		}

		return fn(&laneTx{tx: tx, centerID: centerID, lane: lane}, queue.NewLane(center.ToDomain(), lane, tokens))
	})
}

// locksRows reports whether the dialect takes a row lock on the center.
// SQLite has no FOR UPDATE and serializes writers on the database file.
func locksRows(dialect string) bool {
	return dialect != "sqlite"
}

// LiveLanes returns every (center, lane) that holds a live token
func (r *tokenRepository) LiveLanes(ctx context.Context) ([]queue.LaneKey, error) {
	type row struct {
		CenterID uint
		Lane     string
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Token{}).
		Select("DISTINCT center_id, lane").
		Where("status IN ?", liveStatuses()).
		Order("center_id ASC, lane ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make([]queue.LaneKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, queue.LaneKey{CenterID: row.CenterID, Lane: domain.Lane(row.Lane)})
	}
	return keys, nil
}

// ============================================================
// Token Queries
// ============================================================

// GetByID gets a token by ID
func (r *tokenRepository) GetByID(ctx context.Context, id uint) (*domain.Token, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByRef gets a token by its public tracking ref
func (r *tokenRepository) GetByRef(ctx context.Context, ref string) (*domain.Token, error) {
	return r.first(r.db.WithContext(ctx).Where("ref = ?", ref))
}

// GetByLabel gets a token by display label within one center-day
func (r *tokenRepository) GetByLabel(ctx context.Context, centerID uint, serviceDay, label string) (*domain.Token, error) {
	return r.first(r.db.WithContext(ctx).
		Where("center_id = ? AND service_day = ? AND label = ?", centerID, serviceDay, label))
}

// History lists tokens matching f, newest first
func (r *tokenRepository) History(ctx context.Context, f domain.TokenFilter, offset, limit int) ([]*domain.Token, int64, error) {
	var total int64
	if err := r.filter(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Token
	err := r.filter(ctx, f).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	tokens := make([]*domain.Token, 0, len(rows))
	for i := range rows {
		tokens = append(tokens, rows[i].ToDomain())
	}
	return tokens, total, nil
}

// Count counts tokens matching f
func (r *tokenRepository) Count(ctx context.Context, f domain.TokenFilter) (int64, error) {
	var count int64
	err := r.filter(ctx, f).Count(&count).Error
	return count, err
}

// ServiceDurations returns the real counter time of the latest completed tokens
func (r *tokenRepository) ServiceDurations(ctx context.Context, centerID uint, limit int) ([]time.Duration, error) {
	var rows []models.Token
	err := r.db.WithContext(ctx).
		Select("id", "actual_service_start", "completed_at").
		Where("center_id = ? AND status = ? AND actual_service_start IS NOT NULL AND completed_at IS NOT NULL",
			centerID, string(domain.StatusCompleted)).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	durations := make([]time.Duration, 0, len(rows))
	for _, row := range rows {
		if d := row.CompletedAt.Sub(*row.ActualServiceStart); d > 0 {
			durations = append(durations, d)
		}
	}
	return durations, nil
}

func (r *tokenRepository) first(q *gorm.DB) (*domain.Token, error) {
	var row models.Token
	if err := q.Preload("Participant").First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return row.ToDomain(), nil
}

func (r *tokenRepository) filter(ctx context.Context, f domain.TokenFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Token{})
	if f.CenterID != 0 {
		q = q.Where("center_id = ?", f.CenterID)
	}
	if f.ParticipantID != 0 {
		q = q.Where("participant_id = ?", f.ParticipantID)
	}
	if f.Lane != "" {
		q = q.Where("lane = ?", string(f.Lane))
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(f.Statuses))
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", f.CreatedFrom.UTC())
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at < ?", f.CreatedTo.UTC())
	}
	if f.NoShowOnly {
		q = q.Where("no_show_at IS NOT NULL")
	}
	return q
}

// ============================================================
// Lane Transaction Writes
// ============================================================

type laneTx struct {
	tx       *gorm.DB
	centerID uint
	lane     domain.Lane
}

// FindLive skips tokens a sweep at now would expire, so an unswept lane
// elsewhere does not block a new booking.
func (t *laneTx) FindLive(participantID uint, now time.Time) (*domain.Token, error) {
	var rows []models.Token
	err := t.tx.
		Where("participant_id = ? AND status IN ?", participantID, liveStatuses()).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		tok := rows[i].ToDomain()
		if !queue.Stale(tok, now) {
			return tok, nil
		}
	}
	return nil, nil
}

func (t *laneTx) NextSequence(serviceDay string) (int, error) {
	var last int
	err := t.tx.Model(&models.Token{}).
		Select("COALESCE(MAX(sequence_no), 0)").
		Where("center_id = ? AND lane = ? AND service_day = ?", t.centerID, string(t.lane), serviceDay).
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (t *laneTx) Create(tok *domain.Token) error {
	row := models.TokenFromDomain(utcToken(tok))
	if err := t.tx.Omit(clause.Associations).Create(row).Error; err != nil {
		return err
	}
	tok.ID = row.ID
	return nil
}

func (t *laneTx) Save(tokens ...*domain.Token) error {
	for _, tok := range tokens {
		row := models.TokenFromDomain(utcToken(tok))
		if err := t.tx.Omit(clause.Associations).Save(row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *laneTx) IncrementNoShow(participantID uint) error {
	return t.tx.Model(&models.Participant{}).
		Where("id = ?", participantID).
		UpdateColumn("no_show_count", gorm.Expr("no_show_count + ?", 1)).Error
}

// ============================================================
// Helpers
// ============================================================

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func liveStatuses() []string {
	return statusStrings(domain.LiveStatuses)
}

func statusStrings(statuses []domain.TokenStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func utcToken(t *domain.Token) *domain.Token {
	c := *t
	c.CreatedAt = t.CreatedAt.UTC()
	for _, p := range []**time.Time{
		&c.ActivatedAt, &c.LeaveBy, &c.ExpectedArrival,
		&c.EstimatedServiceStart, &c.EstimatedServiceEnd,
		&c.ActualServiceStart, &c.ActualServiceEnd,
		&c.CompletedAt, &c.ExpiredAt, &c.NoShowAt,
	} {
		if *p != nil {
			u := (*p).UTC()
			*p = &u
		}
	}
	return &c
}
