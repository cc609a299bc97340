package billing

import (
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the billing context
const (
	EventTypeInvoiceCreated   = "billing.invoice.created"
	EventTypeInvoicePaid      = "billing.invoice.paid"
	EventTypeInvoiceVoided    = "billing.invoice.voided"
	EventTypePaymentSubmitted = "billing.payment.submitted"
	EventTypePaymentVerified  = "billing.payment.verified"
	EventTypePaymentRejected  = "billing.payment.rejected"
	EventTypePaymentReversed  = "billing.payment.reversed"
)

// InvoiceCreatedEvent is published when an invoice is generated for a course
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber  string          `json:"invoice_number"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	CourseID       uuid.UUID       `json:"course_id"`
	Total          decimal.Decimal `json:"total"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, inv.ID, "Invoice"),
		InvoiceNumber:   inv.InvoiceNumber,
		OrganizationID:  inv.OrganizationID,
		CourseID:        inv.CourseID,
		Total:           inv.Total(),
	}
}

// InvoicePaidEvent is published when verified payments first cover the total
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber  string    `json:"invoice_number"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// NewInvoicePaidEvent creates an InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, inv.ID, "Invoice"),
		InvoiceNumber:   inv.InvoiceNumber,
		OrganizationID:  inv.OrganizationID,
	}
}

// InvoiceVoidedEvent is published when an invoice is voided
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// NewInvoiceVoidedEvent creates an InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceVoided, inv.ID, "Invoice"),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          inv.VoidReason,
	}
}

// PaymentSubmittedEvent is published when an organization submits a payment
type PaymentSubmittedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

// NewPaymentSubmittedEvent creates a PaymentSubmittedEvent
func NewPaymentSubmittedEvent(p *Payment) *PaymentSubmittedEvent {
	return &PaymentSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentSubmitted, p.ID, "Payment"),
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentVerifiedEvent is published when an accountant approves a payment
type PaymentVerifiedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentVerifiedEvent creates a PaymentVerifiedEvent
func NewPaymentVerifiedEvent(p *Payment) *PaymentVerifiedEvent {
	return &PaymentVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentVerified, p.ID, "Payment"),
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
	}
}

// PaymentRejectedEvent is published when an accountant rejects a payment
type PaymentRejectedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentRejectedEvent creates a PaymentRejectedEvent
func NewPaymentRejectedEvent(p *Payment) *PaymentRejectedEvent {
	return &PaymentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRejected, p.ID, "Payment"),
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
	}
}

// PaymentReversedEvent is published when a verified payment is reversed
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentReversedEvent creates a PaymentReversedEvent
func NewPaymentReversedEvent(p *Payment) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, p.ID, "Payment"),
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
	}
}
