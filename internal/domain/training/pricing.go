package training

import (
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PriceConfig holds the active per-student price agreed with an
// organization for one course type. At most one active config exists
// per (organization, course type) pair.
type PriceConfig struct {
	shared.BaseAggregateRoot
	OrganizationID  uuid.UUID         `json:"organization_id"`
	CourseType      string            `json:"course_type"`
	PricePerStudent valueobject.Money `json:"price_per_student"`
	Active          bool              `json:"active"`
}

// EstimateTotal computes the billable amount for the given headcount
func (p *PriceConfig) EstimateTotal(attendedStudents int) valueobject.Money {
	return p.PricePerStudent.MultiplyByInt(int64(attendedStudents))
}
