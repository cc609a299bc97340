package training

import (
	"github.com/coursebill/backend/internal/domain/shared"
)

// Organization represents a client organization whose staff attend
// training courses. Read-only master data for the billing core.
type Organization struct {
	shared.BaseAggregateRoot
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone"`
	Active       bool   `json:"active"`
}

// HasContactEmail reports whether invoices can be delivered to this organization
func (o *Organization) HasContactEmail() bool {
	return o.ContactEmail != ""
}
