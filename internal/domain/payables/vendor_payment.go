package payables

import (
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorPaymentStatus is the status of a recorded vendor payment.
// Vendor payments are recorded by accounting after the money has moved,
// so PROCESSED is the only status.
type VendorPaymentStatus string

const (
	VendorPaymentStatusProcessed VendorPaymentStatus = "PROCESSED"
)

// VendorPayment represents money paid out against a vendor invoice
type VendorPayment struct {
	shared.BaseAggregateRoot
	VendorInvoiceID uuid.UUID           `json:"vendor_invoice_id"`
	Amount          decimal.Decimal     `json:"amount"`
	Method          string              `json:"method"`
	ReferenceNumber string              `json:"reference_number"`
	Status          VendorPaymentStatus `json:"status"`
	PaymentDate     time.Time           `json:"payment_date"`
	ProcessedBy     uuid.UUID           `json:"processed_by"`
	Notes           string              `json:"notes"`
}

// NewVendorPayment records a processed payment against a vendor invoice
func NewVendorPayment(
	vendorInvoiceID uuid.UUID,
	amount valueobject.Money,
	method string,
	referenceNumber string,
	paymentDate time.Time,
	processedBy uuid.UUID,
	notes string,
) (*VendorPayment, error) {
	if vendorInvoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR_INVOICE", "Vendor invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if method == "" {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is required")
	}

	return &VendorPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VendorInvoiceID:   vendorInvoiceID,
		Amount:            amount.Amount(),
		Method:            method,
		ReferenceNumber:   referenceNumber,
		Status:            VendorPaymentStatusProcessed,
		PaymentDate:       paymentDate,
		ProcessedBy:       processedBy,
		Notes:             notes,
	}, nil
}
