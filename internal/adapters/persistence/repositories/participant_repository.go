package repositories

import (
	"context"

	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/core/domain"

	"gorm.io/gorm"
)

// participantRepository implements ParticipantRepository interface
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

// Create creates a new participant
func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	row := models.ParticipantFromDomain(*p)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}

// GetByID gets a participant by ID
func (r *participantRepository) GetByID(ctx context.Context, id uint) (*domain.Participant, error) {
	var row models.Participant
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	p := row.ToDomain()
	return &p, nil
}

// GetByMobile gets a participant by mobile number
func (r *participantRepository) GetByMobile(ctx context.Context, mobile string) (*domain.Participant, error) {
	var row models.Participant
	if err := r.db.WithContext(ctx).Where("mobile = ?", mobile).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	p := row.ToDomain()
	return &p, nil
}

// Update saves contact details and location. The no-show counter is only
// moved by the lane transaction.
func (r *participantRepository) Update(ctx context.Context, p *domain.Participant) error {
	row := models.ParticipantFromDomain(*p)
	return r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":      row.Name,
			"email":     row.Email,
			"latitude":  row.Latitude,
			"longitude": row.Longitude,
		}).Error
}
