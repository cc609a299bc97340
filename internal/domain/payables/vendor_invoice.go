package payables

import (
	"fmt"
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorInvoiceStatus represents the approval state of a vendor invoice
type VendorInvoiceStatus string

const (
	VendorInvoiceStatusSubmittedToAdmin      VendorInvoiceStatus = "SUBMITTED_TO_ADMIN"
	VendorInvoiceStatusSubmittedToAccounting VendorInvoiceStatus = "SUBMITTED_TO_ACCOUNTING"
	VendorInvoiceStatusRejectedByAdmin       VendorInvoiceStatus = "REJECTED_BY_ADMIN"
	VendorInvoiceStatusRejectedByAccountant  VendorInvoiceStatus = "REJECTED_BY_ACCOUNTANT"
	VendorInvoiceStatusPaid                  VendorInvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid VendorInvoiceStatus
func (s VendorInvoiceStatus) IsValid() bool {
	switch s {
	case VendorInvoiceStatusSubmittedToAdmin, VendorInvoiceStatusSubmittedToAccounting,
		VendorInvoiceStatusRejectedByAdmin, VendorInvoiceStatusRejectedByAccountant,
		VendorInvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of VendorInvoiceStatus
func (s VendorInvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the invoice can no longer change
func (s VendorInvoiceStatus) IsTerminal() bool {
	switch s {
	case VendorInvoiceStatusRejectedByAdmin, VendorInvoiceStatusRejectedByAccountant,
		VendorInvoiceStatusPaid:
		return true
	}
	return false
}

// VendorInvoiceAction is an approval-chain action on a vendor invoice
type VendorInvoiceAction string

const (
	VendorActionAdminApprove     VendorInvoiceAction = "admin_approve"
	VendorActionAdminReject      VendorInvoiceAction = "admin_reject"
	VendorActionAccountantReject VendorInvoiceAction = "accountant_reject"
	VendorActionMarkPaid         VendorInvoiceAction = "mark_paid"
)

// vendorTransitions is the single source of truth for vendor invoice
// status changes
var vendorTransitions = map[VendorInvoiceStatus]map[VendorInvoiceAction]VendorInvoiceStatus{
	VendorInvoiceStatusSubmittedToAdmin: {
		VendorActionAdminApprove: VendorInvoiceStatusSubmittedToAccounting,
		VendorActionAdminReject:  VendorInvoiceStatusRejectedByAdmin,
	},
	VendorInvoiceStatusSubmittedToAccounting: {
		VendorActionAccountantReject: VendorInvoiceStatusRejectedByAccountant,
		VendorActionMarkPaid:         VendorInvoiceStatusPaid,
	},
}

// Transition returns the status reached by applying action, or an error
// when the transition is not allowed from the current status
func (s VendorInvoiceStatus) Transition(action VendorInvoiceAction) (VendorInvoiceStatus, error) {
	if next, ok := vendorTransitions[s][action]; ok {
		return next, nil
	}
	return s, shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot apply %s to vendor invoice in %s status", action, s))
}

// VendorInvoice represents a payable owed to an external vendor. It
// moves through admin approval before accounting can record payments.
type VendorInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string              `json:"invoice_number"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	VendorName    string              `json:"vendor_name"`
	Description   string              `json:"description"`
	Total         decimal.Decimal     `json:"total"`
	Status        VendorInvoiceStatus `json:"status"`
	SubmittedBy   uuid.UUID           `json:"submitted_by"`
	ApprovedBy    *uuid.UUID          `json:"approved_by"`
	ApprovedAt    *time.Time          `json:"approved_at"`
	RejectedBy    *uuid.UUID          `json:"rejected_by"`
	RejectedAt    *time.Time          `json:"rejected_at"`
	RejectionNote string              `json:"rejection_note"`
	PaidAt        *time.Time          `json:"paid_at"`
}

// NewVendorInvoice creates a vendor invoice awaiting admin approval
func NewVendorInvoice(
	invoiceNumber string,
	vendorID uuid.UUID,
	vendorName string,
	description string,
	total valueobject.Money,
	submittedBy uuid.UUID,
) (*VendorInvoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Vendor invoice total must be positive")
	}

	vi := &VendorInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		VendorID:          vendorID,
		VendorName:        vendorName,
		Description:       description,
		Total:             total.Amount(),
		Status:            VendorInvoiceStatusSubmittedToAdmin,
		SubmittedBy:       submittedBy,
	}

	vi.AddDomainEvent(NewVendorInvoiceSubmittedEvent(vi))

	return vi, nil
}

// AdminApprove forwards the invoice to accounting
func (vi *VendorInvoice) AdminApprove(actorID uuid.UUID, now time.Time) error {
	next, err := vi.Status.Transition(VendorActionAdminApprove)
	if err != nil {
		return err
	}
	vi.Status = next
	vi.ApprovedBy = &actorID
	approvedAt := now
	vi.ApprovedAt = &approvedAt
	vi.UpdatedAt = now
	vi.IncrementVersion()
	vi.AddDomainEvent(NewVendorInvoiceApprovedEvent(vi))
	return nil
}

// AdminReject rejects the invoice before it reaches accounting. A note
// explaining the rejection is mandatory.
func (vi *VendorInvoice) AdminReject(actorID uuid.UUID, note string, now time.Time) error {
	return vi.reject(VendorActionAdminReject, actorID, note, now)
}

// AccountantReject rejects the invoice after admin approval. A note is
// mandatory.
func (vi *VendorInvoice) AccountantReject(actorID uuid.UUID, note string, now time.Time) error {
	return vi.reject(VendorActionAccountantReject, actorID, note, now)
}

func (vi *VendorInvoice) reject(action VendorInvoiceAction, actorID uuid.UUID, note string, now time.Time) error {
	if note == "" {
		return shared.NewDomainError("NOTE_REQUIRED", "A note is required when rejecting a vendor invoice")
	}
	next, err := vi.Status.Transition(action)
	if err != nil {
		return err
	}
	vi.Status = next
	vi.RejectedBy = &actorID
	rejectedAt := now
	vi.RejectedAt = &rejectedAt
	vi.RejectionNote = note
	vi.UpdatedAt = now
	vi.IncrementVersion()
	vi.AddDomainEvent(NewVendorInvoiceRejectedEvent(vi))
	return nil
}

// ApplyProcessedSum derives the paid status from the cumulative
// processed payment sum. Called inside the same transaction that
// records a payment.
func (vi *VendorInvoice) ApplyProcessedSum(processedSum decimal.Decimal, now time.Time) error {
	if processedSum.GreaterThanOrEqual(vi.Total) {
		next, err := vi.Status.Transition(VendorActionMarkPaid)
		if err != nil {
			return err
		}
		vi.Status = next
		paidAt := now
		vi.PaidAt = &paidAt
		vi.AddDomainEvent(NewVendorInvoicePaidEvent(vi))
	}
	vi.UpdatedAt = now
	vi.IncrementVersion()
	return nil
}

// AcceptsPayment returns true if accounting may record payments
func (vi *VendorInvoice) AcceptsPayment() bool {
	return vi.Status == VendorInvoiceStatusSubmittedToAccounting
}

// Outstanding returns what remains owed given the processed payment sum
func (vi *VendorInvoice) Outstanding(processedSum decimal.Decimal) decimal.Decimal {
	return vi.Total.Sub(processedSum)
}
