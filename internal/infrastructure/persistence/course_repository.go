package persistence

import (
	"context"
	"errors"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/coursebill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCourseRepository implements CourseRepository using GORM
type GormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GormCourseRepository
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{db: db}
}

// FindByID finds a course by its ID
func (r *GormCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*training.Course, error) {
	var model models.CourseModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a course by ID holding a row lock until the
// surrounding transaction commits or rolls back
func (r *GormCourseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*training.Course, error) {
	var model models.CourseModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountAttended counts attendance-marked enrollments on a course
func (r *GormCourseRepository) CountAttended(ctx context.Context, courseID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.EnrollmentModel{}).
		Where("course_id = ? AND attended = ?", courseID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Save creates or updates a course
func (r *GormCourseRepository) Save(ctx context.Context, course *training.Course) error {
	model := models.CourseModelFromDomain(course)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormCourseRepository) SaveWithLock(ctx context.Context, course *training.Course) error {
	model := models.CourseModelFromDomain(course)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", course.ID, course.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
