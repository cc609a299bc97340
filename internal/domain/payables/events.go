package payables

import (
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the payables context
const (
	EventTypeVendorInvoiceSubmitted = "payables.vendor_invoice.submitted"
	EventTypeVendorInvoiceApproved  = "payables.vendor_invoice.approved"
	EventTypeVendorInvoiceRejected  = "payables.vendor_invoice.rejected"
	EventTypeVendorInvoicePaid      = "payables.vendor_invoice.paid"
)

// VendorInvoiceSubmittedEvent is published when a vendor invoice enters the approval chain
type VendorInvoiceSubmittedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Total         decimal.Decimal `json:"total"`
}

// NewVendorInvoiceSubmittedEvent creates a VendorInvoiceSubmittedEvent
func NewVendorInvoiceSubmittedEvent(vi *VendorInvoice) *VendorInvoiceSubmittedEvent {
	return &VendorInvoiceSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorInvoiceSubmitted, vi.ID, "VendorInvoice"),
		InvoiceNumber:   vi.InvoiceNumber,
		VendorName:      vi.VendorName,
		Total:           vi.Total,
	}
}

// VendorInvoiceApprovedEvent is published when an admin forwards the invoice to accounting
type VendorInvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
}

// NewVendorInvoiceApprovedEvent creates a VendorInvoiceApprovedEvent
func NewVendorInvoiceApprovedEvent(vi *VendorInvoice) *VendorInvoiceApprovedEvent {
	return &VendorInvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorInvoiceApproved, vi.ID, "VendorInvoice"),
		InvoiceNumber:   vi.InvoiceNumber,
	}
}

// VendorInvoiceRejectedEvent is published on admin or accountant rejection
type VendorInvoiceRejectedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Note          string `json:"note"`
}

// NewVendorInvoiceRejectedEvent creates a VendorInvoiceRejectedEvent
func NewVendorInvoiceRejectedEvent(vi *VendorInvoice) *VendorInvoiceRejectedEvent {
	return &VendorInvoiceRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorInvoiceRejected, vi.ID, "VendorInvoice"),
		InvoiceNumber:   vi.InvoiceNumber,
		Note:            vi.RejectionNote,
	}
}

// VendorInvoicePaidEvent is published when processed payments cover the total
type VendorInvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
}

// NewVendorInvoicePaidEvent creates a VendorInvoicePaidEvent
func NewVendorInvoicePaidEvent(vi *VendorInvoice) *VendorInvoicePaidEvent {
	return &VendorInvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorInvoicePaid, vi.ID, "VendorInvoice"),
		InvoiceNumber:   vi.InvoiceNumber,
	}
}
