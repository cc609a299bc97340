package billing

import (
	"time"

	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/coursebill/backend/internal/domain/training"
)

// ReadinessResult reports whether a course can be invoiced. Errors are
// blocking; warnings are informational only.
type ReadinessResult struct {
	IsValid         bool              `json:"is_valid"`
	Errors          []string          `json:"errors"`
	Warnings        []string          `json:"warnings"`
	AttendedCount   int               `json:"attended_count"`
	EstimatedAmount valueobject.Money `json:"estimated_amount"`
}

// staleCompletionAge is how long after completion an uninvoiced course
// starts drawing a warning
const staleCompletionAge = 90 * 24 * time.Hour

// EvaluateReadiness runs every billing precondition for a course and
// collects all failures. Rules are checked independently so the caller
// sees the complete list, not just the first problem.
func EvaluateReadiness(
	course *training.Course,
	org *training.Organization,
	price *training.PriceConfig,
	attendedCount int,
	now time.Time,
) ReadinessResult {
	result := ReadinessResult{
		Errors:        []string{},
		Warnings:      []string{},
		AttendedCount: attendedCount,
	}

	if !course.IsCompleted() {
		result.Errors = append(result.Errors, "Course is not completed")
	}
	if course.Invoiced {
		result.Errors = append(result.Errors, "Course has already been invoiced")
	}
	if course.ReadyForBilling {
		result.Errors = append(result.Errors, "Course is already marked ready for billing")
	}
	if price == nil || !price.Active {
		result.Errors = append(result.Errors, "No active price configuration for this organization and course type")
	}
	if attendedCount <= 0 {
		result.Errors = append(result.Errors, "Course has no attendance-marked students")
	}
	if org == nil || !org.HasContactEmail() {
		result.Errors = append(result.Errors, "Organization has no contact email on file")
	}

	if org != nil && !org.Active {
		result.Warnings = append(result.Warnings, "Organization is inactive")
	}
	if course.CompletedAt != nil && now.Sub(*course.CompletedAt) > staleCompletionAge {
		result.Warnings = append(result.Warnings, "Course completed more than 90 days ago")
	}

	if price != nil {
		result.EstimatedAmount = price.EstimateTotal(attendedCount)
	} else {
		result.EstimatedAmount = valueobject.ZeroUSD()
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
