package training

import (
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CourseStatus represents the lifecycle status of a training course
type CourseStatus string

const (
	CourseStatusScheduled  CourseStatus = "SCHEDULED"
	CourseStatusInProgress CourseStatus = "IN_PROGRESS"
	CourseStatusCompleted  CourseStatus = "COMPLETED"
	CourseStatusCancelled  CourseStatus = "CANCELLED"
)

// IsValid checks if the status is a valid CourseStatus
func (s CourseStatus) IsValid() bool {
	switch s {
	case CourseStatusScheduled, CourseStatusInProgress, CourseStatusCompleted, CourseStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of CourseStatus
func (s CourseStatus) String() string {
	return string(s)
}

// Course represents a training course delivered to an organization.
// Within the billing core it is mostly read-only master data; the only
// mutation owned here is the invoicing flag flip, which must happen in
// the same transaction as the invoice insert.
type Course struct {
	shared.BaseAggregateRoot
	CourseNumber    string       `json:"course_number"`
	OrganizationID  uuid.UUID    `json:"organization_id"`
	CourseType      string       `json:"course_type"`
	Title           string       `json:"title"`
	Status          CourseStatus `json:"status"`
	CompletedAt     *time.Time   `json:"completed_at"`
	ReadyForBilling bool         `json:"ready_for_billing"`
	Invoiced        bool         `json:"invoiced"`
}

// IsCompleted returns true if the course has been delivered
func (c *Course) IsCompleted() bool {
	return c.Status == CourseStatusCompleted
}

// MarkInvoiced flips the billing flags so the course can never be
// invoiced twice. Guarded so a stale readiness check cannot slip through.
func (c *Course) MarkInvoiced() error {
	if c.Invoiced {
		return shared.NewDomainError("ALREADY_INVOICED", "Course has already been invoiced")
	}
	if !c.IsCompleted() {
		return shared.NewDomainError("INVALID_STATE", "Only completed courses can be invoiced")
	}
	c.Invoiced = true
	c.ReadyForBilling = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
