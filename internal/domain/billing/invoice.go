package billing

import (
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an organization invoice
type InvoiceStatus string

const (
	InvoiceStatusPending          InvoiceStatus = "PENDING"           // Awaiting payment, outstanding balance > 0
	InvoiceStatusPaymentSubmitted InvoiceStatus = "PAYMENT_SUBMITTED" // A payment is awaiting verification
	InvoiceStatusPaid             InvoiceStatus = "PAID"              // Verified payments cover the total
	InvoiceStatusVoid             InvoiceStatus = "VOID"              // Voided by accounting; never deleted
	InvoiceStatusCancelled        InvoiceStatus = "CANCELLED"         // Cancelled before any payment
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaymentSubmitted, InvoiceStatusPaid,
		InvoiceStatusVoid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state.
// PAID is not terminal: a reversal within the window can reopen it.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusVoid || s == InvoiceStatusCancelled
}

// AcceptsPayment returns true if new payments may be submitted in this status
func (s InvoiceStatus) AcceptsPayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaymentSubmitted
}

// Invoice represents a billing record for one completed course, owned by
// one organization. Created once per course by the invoice ledger and
// mutated only through payment verification and reversal.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber  string          `json:"invoice_number"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	CourseID       uuid.UUID       `json:"course_id"`
	BaseCost       decimal.Decimal `json:"base_cost"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Status         InvoiceStatus   `json:"status"`
	DueDate        time.Time       `json:"due_date"`
	PaidDate       *time.Time      `json:"paid_date"`
	PostedToOrg    bool            `json:"posted_to_org"`
	VoidedAt       *time.Time      `json:"voided_at"`
	VoidReason     string          `json:"void_reason"`
	Remark         string          `json:"remark"`
}

// NewInvoice creates a new invoice in PENDING status
func NewInvoice(
	invoiceNumber string,
	organizationID uuid.UUID,
	courseID uuid.UUID,
	baseCost valueobject.Money,
	taxAmount valueobject.Money,
	dueDate time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if organizationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORGANIZATION", "Organization ID cannot be empty")
	}
	if courseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COURSE", "Course ID cannot be empty")
	}
	if baseCost.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Base cost must be positive")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tax amount cannot be negative")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		OrganizationID:    organizationID,
		CourseID:          courseID,
		BaseCost:          baseCost.Amount(),
		TaxAmount:         taxAmount.Amount(),
		Status:            InvoiceStatusPending,
		DueDate:           dueDate,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// Total returns base cost plus tax
func (inv *Invoice) Total() decimal.Decimal {
	return inv.BaseCost.Add(inv.TaxAmount)
}

// TotalMoney returns the invoice total as Money
func (inv *Invoice) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Total())
}

// MarkPaymentSubmitted records that a payment is awaiting verification
func (inv *Invoice) MarkPaymentSubmitted() error {
	if !inv.Status.AcceptsPayment() {
		return shared.NewDomainError("INVALID_STATE", "Invoice does not accept payments in "+inv.Status.String()+" status")
	}
	inv.Status = InvoiceStatusPaymentSubmitted
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// RevertToPending moves the invoice back to PENDING unconditionally.
// Used by the payment-rejection path, which never inspects sibling payments.
func (inv *Invoice) RevertToPending() {
	inv.Status = InvoiceStatusPending
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// ApplyBalance derives the invoice status from a freshly computed balance.
// This is the only place where verified payments translate into status.
func (inv *Invoice) ApplyBalance(balance Balance, now time.Time) {
	if balance.FullyPaid {
		inv.Status = InvoiceStatusPaid
		if inv.PaidDate == nil {
			paidAt := now
			inv.PaidDate = &paidAt
			inv.AddDomainEvent(NewInvoicePaidEvent(inv))
		}
	} else {
		inv.Status = InvoiceStatusPending
		inv.PaidDate = nil
	}
	inv.UpdatedAt = now
	inv.IncrementVersion()
}

// PostToOrganization makes the invoice visible to the billed organization
func (inv *Invoice) PostToOrganization() error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot post invoice in "+inv.Status.String()+" status")
	}
	inv.PostedToOrg = true
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// Void voids the invoice. Invoices are never deleted.
func (inv *Invoice) Void(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already in "+inv.Status.String()+" status")
	}
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot void a paid invoice")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Void reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusVoid
	inv.VoidedAt = &now
	inv.VoidReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv))
	return nil
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsOverdue returns true if the invoice is past its due date and not paid
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status == InvoiceStatusPaid || inv.Status.IsTerminal() {
		return false
	}
	return now.After(inv.DueDate)
}
