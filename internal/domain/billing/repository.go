package billing

import (
	"context"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	Status         *InvoiceStatus
	PostedOnly     bool
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice by ID holding a row lock for the
	// duration of the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByCourseID finds the invoice for a course, or nil when none exists
	FindByCourseID(ctx context.Context, courseID uuid.UUID) (*Invoice, error)

	// FindAll lists invoices matching the filter
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)

	// NextInvoiceNumber allocates the next invoice number for the year
	NextInvoiceNumber(ctx context.Context, year int) (string, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForUpdate finds a payment by ID holding a row lock for the
	// duration of the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByInvoiceID lists all payments ever submitted against an invoice
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)

	// SumByStatus totals payment amounts in the given status for an invoice
	SumByStatus(ctx context.Context, invoiceID uuid.UUID, status PaymentStatus) (decimal.Decimal, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *Payment) error
}

// TxRepos bundles the repositories visible inside one transaction
type TxRepos interface {
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	Courses() training.CourseRepository
}

// UnitOfWork runs a function atomically. Every repository obtained from
// the TxRepos passed to fn reads and writes within the same database
// transaction; fn returning an error rolls everything back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(tx TxRepos) error) error
}
