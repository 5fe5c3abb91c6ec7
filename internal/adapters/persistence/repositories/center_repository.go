package repositories

import (
	"context"

	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/core/domain"

	"gorm.io/gorm"
)

// centerRepository implements CenterRepository interface
type centerRepository struct {
	db *gorm.DB
}

// NewCenterRepository creates a new service center repository
func NewCenterRepository(db *gorm.DB) CenterRepository {
	return &centerRepository{db: db}
}

// GetByID gets a center by ID
func (r *centerRepository) GetByID(ctx context.Context, id uint) (*domain.ServiceCenter, error) {
	var center models.ServiceCenter
	if err := r.db.WithContext(ctx).First(&center, id).Error; err != nil {
		return nil, notFound(err)
	}
	c := center.ToDomain()
	return &c, nil
}

// List lists centers ordered by ID
func (r *centerRepository) List(ctx context.Context, activeOnly bool) ([]domain.ServiceCenter, error) {
	var rows []models.ServiceCenter
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	centers := make([]domain.ServiceCenter, 0, len(rows))
	for i := range rows {
		centers = append(centers, rows[i].ToDomain())
	}
	return centers, nil
}

// Update saves the editable profile fields of a center
func (r *centerRepository) Update(ctx context.Context, center *domain.ServiceCenter) error {
	row := models.ServiceCenterFromDomain(*center)
	result := r.db.WithContext(ctx).Model(&models.ServiceCenter{}).
		Where("id = ?", center.ID).
		Updates(map[string]interface{}{
			"name":                row.Name,
			"address":             row.Address,
			"phone":               row.Phone,
			"latitude":            row.Latitude,
			"longitude":           row.Longitude,
			"avg_service_minutes": row.AvgServiceMinutes,
			"is_active":           row.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports 0 rows when nothing changed
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ServiceCenter{}).Where("id = ?", center.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return nil
}
