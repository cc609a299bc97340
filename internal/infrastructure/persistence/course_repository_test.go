package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/coursebill/backend/internal/domain/training"
	"github.com/coursebill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func storeCompletedCourse(t *testing.T, db *gorm.DB) *training.Course {
	t.Helper()
	completedAt := time.Now().AddDate(0, 0, -7)
	model := &models.CourseModel{
		CourseNumber:    "CRS-2026-0001",
		OrganizationID:  uuid.New(),
		CourseType:      "FORKLIFT_CERT",
		Title:           "Forklift Certification",
		Status:          training.CourseStatusCompleted,
		CompletedAt:     &completedAt,
		ReadyForBilling: false,
		Invoiced:        false,
	}
	model.ID = uuid.New()
	model.Version = 1
	require.NoError(t, db.Create(model).Error)
	return model.ToDomain()
}

func TestCourseRepository_CountAttended(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormCourseRepository(db)
	ctx := context.Background()

	course := storeCompletedCourse(t, db)

	for i, attended := range []bool{true, true, true, false} {
		enrollment := &models.EnrollmentModel{
			CourseID:    course.ID,
			StudentName: "Student",
			Attended:    attended,
		}
		enrollment.ID = uuid.New()
		require.NoError(t, db.Create(enrollment).Error, "enrollment %d", i)
	}

	count, err := repo.CountAttended(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	none, err := repo.CountAttended(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, none)
}

func TestCourseRepository_MarkInvoicedRoundTrip(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormCourseRepository(db)
	ctx := context.Background()

	course := storeCompletedCourse(t, db)

	require.NoError(t, course.MarkInvoiced())
	require.NoError(t, repo.SaveWithLock(ctx, course))

	found, err := repo.FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, found.Invoiced)
	assert.True(t, found.ReadyForBilling)
	assert.Equal(t, course.Version, found.Version)
}
