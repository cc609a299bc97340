package payables

import (
	"context"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorInvoiceFilter narrows vendor invoice listings
type VendorInvoiceFilter struct {
	shared.Filter
	VendorID *uuid.UUID
	Status   *VendorInvoiceStatus
}

// VendorInvoiceRepository defines the interface for vendor invoice persistence
type VendorInvoiceRepository interface {
	// FindByID finds a vendor invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*VendorInvoice, error)

	// FindByIDForUpdate finds a vendor invoice by ID holding a row lock
	// for the duration of the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*VendorInvoice, error)

	// FindAll lists vendor invoices matching the filter
	FindAll(ctx context.Context, filter VendorInvoiceFilter) ([]*VendorInvoice, error)

	// Count counts vendor invoices matching the filter
	Count(ctx context.Context, filter VendorInvoiceFilter) (int64, error)

	// NextInvoiceNumber allocates the next vendor invoice number for the year
	NextInvoiceNumber(ctx context.Context, year int) (string, error)

	// Save creates or updates a vendor invoice
	Save(ctx context.Context, invoice *VendorInvoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *VendorInvoice) error
}

// VendorPaymentRepository defines the interface for vendor payment persistence
type VendorPaymentRepository interface {
	// FindByInvoiceID lists payments recorded against a vendor invoice
	FindByInvoiceID(ctx context.Context, vendorInvoiceID uuid.UUID) ([]*VendorPayment, error)

	// SumProcessed totals the processed payments for a vendor invoice
	SumProcessed(ctx context.Context, vendorInvoiceID uuid.UUID) (decimal.Decimal, error)

	// Save creates or updates a vendor payment
	Save(ctx context.Context, payment *VendorPayment) error
}

// TxRepos bundles the repositories visible inside one transaction
type TxRepos interface {
	VendorInvoices() VendorInvoiceRepository
	VendorPayments() VendorPaymentRepository
}

// UnitOfWork runs a function atomically over the payables repositories
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(tx TxRepos) error) error
}
