package persistence

import (
	"context"
	"errors"

	"github.com/coursebill/backend/internal/domain/training"
	"github.com/coursebill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPriceConfigRepository implements PriceConfigRepository using GORM
type GormPriceConfigRepository struct {
	db *gorm.DB
}

// NewGormPriceConfigRepository creates a new GormPriceConfigRepository
func NewGormPriceConfigRepository(db *gorm.DB) *GormPriceConfigRepository {
	return &GormPriceConfigRepository{db: db}
}

// FindActive finds the active price configuration for the organization
// and course type pair. Returns nil without error when none is
// configured so readiness checks can report it as a validation failure
// rather than a lookup failure.
func (r *GormPriceConfigRepository) FindActive(ctx context.Context, organizationID uuid.UUID, courseType string) (*training.PriceConfig, error) {
	var model models.PriceConfigModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND course_type = ? AND active = ?", organizationID, courseType, true).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
