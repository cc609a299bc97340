package training

import (
	"context"

	"github.com/google/uuid"
)

// CourseRepository defines the interface for course persistence
type CourseRepository interface {
	// FindByID finds a course by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Course, error)

	// FindByIDForUpdate finds a course by ID holding a row lock for the
	// duration of the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Course, error)

	// CountAttended returns the number of attendance-marked students on a course
	CountAttended(ctx context.Context, courseID uuid.UUID) (int, error)

	// Save creates or updates a course
	Save(ctx context.Context, course *Course) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, course *Course) error
}

// OrganizationRepository defines the interface for organization master data
type OrganizationRepository interface {
	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
}

// PriceConfigRepository defines the interface for pricing master data
type PriceConfigRepository interface {
	// FindActive finds the active price configuration for the
	// (organization, course type) pair, or nil when none exists
	FindActive(ctx context.Context, organizationID uuid.UUID, courseType string) (*PriceConfig, error)
}
