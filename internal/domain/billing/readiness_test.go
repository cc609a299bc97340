package billing

import (
	"testing"
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readinessFixture() (*training.Course, *training.Organization, *training.PriceConfig) {
	orgID := uuid.New()
	completedAt := time.Now().Add(-7 * 24 * time.Hour)

	course := &training.Course{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CourseNumber:      "CRS-2026-0042",
		OrganizationID:    orgID,
		CourseType:        "forklift_certification",
		Title:             "Forklift Certification",
		Status:            training.CourseStatusCompleted,
		CompletedAt:       &completedAt,
	}
	org := &training.Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              "Acme Logistics",
		ContactEmail:      "billing@acme.example",
		Active:            true,
	}
	price := &training.PriceConfig{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrganizationID:    orgID,
		CourseType:        "forklift_certification",
		PricePerStudent:   valueobject.NewMoneyUSDFromFloat(10.00),
		Active:            true,
	}
	return course, org, price
}

func TestEvaluateReadiness(t *testing.T) {
	now := time.Now()

	t.Run("ready course passes with estimate", func(t *testing.T) {
		course, org, price := readinessFixture()

		result := EvaluateReadiness(course, org, price, 10, now)

		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		assert.Equal(t, 10, result.AttendedCount)
		assert.Equal(t, "100.00", result.EstimatedAmount.StringFixed(2))
	})

	t.Run("collects every failure instead of stopping at the first", func(t *testing.T) {
		course, org, price := readinessFixture()
		course.Status = training.CourseStatusInProgress
		course.Invoiced = true
		course.ReadyForBilling = true
		price.Active = false
		org.ContactEmail = ""

		result := EvaluateReadiness(course, org, price, 0, now)

		assert.False(t, result.IsValid)
		assert.Len(t, result.Errors, 6)
	})

	t.Run("missing price config blocks and zeroes the estimate", func(t *testing.T) {
		course, org, _ := readinessFixture()

		result := EvaluateReadiness(course, org, nil, 5, now)

		assert.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
		assert.True(t, result.EstimatedAmount.IsZero())
	})

	t.Run("inactive organization warns but does not block", func(t *testing.T) {
		course, org, price := readinessFixture()
		org.Active = false

		result := EvaluateReadiness(course, org, price, 5, now)

		assert.True(t, result.IsValid)
		assert.Contains(t, result.Warnings, "Organization is inactive")
	})

	t.Run("stale completion warns but does not block", func(t *testing.T) {
		course, org, price := readinessFixture()
		old := now.Add(-120 * 24 * time.Hour)
		course.CompletedAt = &old

		result := EvaluateReadiness(course, org, price, 5, now)

		assert.True(t, result.IsValid)
		assert.Contains(t, result.Warnings, "Course completed more than 90 days ago")
	})

	t.Run("zero attendance blocks", func(t *testing.T) {
		course, org, price := readinessFixture()

		result := EvaluateReadiness(course, org, price, 0, now)

		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Course has no attendance-marked students")
	})
}
