package models

import (
	"time"

	"github.com/coursebill/backend/internal/domain/payables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorInvoiceModel is the persistence model for the VendorInvoice aggregate root.
type VendorInvoiceModel struct {
	AggregateModel
	InvoiceNumber string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	VendorID      uuid.UUID                    `gorm:"type:uuid;not null;index"`
	VendorName    string                       `gorm:"type:varchar(200);not null"`
	Description   string                       `gorm:"type:text"`
	Total         decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Status        payables.VendorInvoiceStatus `gorm:"type:varchar(30);not null;default:'SUBMITTED_TO_ADMIN';index"`
	SubmittedBy   uuid.UUID                    `gorm:"type:uuid;not null"`
	ApprovedBy    *uuid.UUID                   `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	RejectedBy    *uuid.UUID `gorm:"type:uuid"`
	RejectedAt    *time.Time
	RejectionNote string `gorm:"type:varchar(500)"`
	PaidAt        *time.Time
}

// TableName returns the table name for GORM
func (VendorInvoiceModel) TableName() string {
	return "vendor_invoices"
}

// ToDomain converts the persistence model to a domain VendorInvoice entity.
func (m *VendorInvoiceModel) ToDomain() *payables.VendorInvoice {
	return &payables.VendorInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		VendorID:          m.VendorID,
		VendorName:        m.VendorName,
		Description:       m.Description,
		Total:             m.Total,
		Status:            m.Status,
		SubmittedBy:       m.SubmittedBy,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectionNote:     m.RejectionNote,
		PaidAt:            m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain VendorInvoice entity.
func (m *VendorInvoiceModel) FromDomain(vi *payables.VendorInvoice) {
	m.FromDomainAggregateRoot(vi.BaseAggregateRoot)
	m.InvoiceNumber = vi.InvoiceNumber
	m.VendorID = vi.VendorID
	m.VendorName = vi.VendorName
	m.Description = vi.Description
	m.Total = vi.Total
	m.Status = vi.Status
	m.SubmittedBy = vi.SubmittedBy
	m.ApprovedBy = vi.ApprovedBy
	m.ApprovedAt = vi.ApprovedAt
	m.RejectedBy = vi.RejectedBy
	m.RejectedAt = vi.RejectedAt
	m.RejectionNote = vi.RejectionNote
	m.PaidAt = vi.PaidAt
}

// VendorInvoiceModelFromDomain creates a new persistence model from a domain VendorInvoice.
func VendorInvoiceModelFromDomain(vi *payables.VendorInvoice) *VendorInvoiceModel {
	m := &VendorInvoiceModel{}
	m.FromDomain(vi)
	return m
}

// VendorPaymentModel is the persistence model for VendorPayment.
type VendorPaymentModel struct {
	AggregateModel
	VendorInvoiceID uuid.UUID                    `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Method          string                       `gorm:"type:varchar(50);not null"`
	ReferenceNumber string                       `gorm:"type:varchar(100)"`
	Status          payables.VendorPaymentStatus `gorm:"type:varchar(20);not null;default:'PROCESSED'"`
	PaymentDate     time.Time                    `gorm:"not null"`
	ProcessedBy     uuid.UUID                    `gorm:"type:uuid;not null"`
	Notes           string                       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (VendorPaymentModel) TableName() string {
	return "vendor_payments"
}

// ToDomain converts the persistence model to a domain VendorPayment entity.
func (m *VendorPaymentModel) ToDomain() *payables.VendorPayment {
	return &payables.VendorPayment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		VendorInvoiceID:   m.VendorInvoiceID,
		Amount:            m.Amount,
		Method:            m.Method,
		ReferenceNumber:   m.ReferenceNumber,
		Status:            m.Status,
		PaymentDate:       m.PaymentDate,
		ProcessedBy:       m.ProcessedBy,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain VendorPayment entity.
func (m *VendorPaymentModel) FromDomain(p *payables.VendorPayment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.VendorInvoiceID = p.VendorInvoiceID
	m.Amount = p.Amount
	m.Method = p.Method
	m.ReferenceNumber = p.ReferenceNumber
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.ProcessedBy = p.ProcessedBy
	m.Notes = p.Notes
}

// VendorPaymentModelFromDomain creates a new persistence model from a domain VendorPayment.
func VendorPaymentModelFromDomain(p *payables.VendorPayment) *VendorPaymentModel {
	m := &VendorPaymentModel{}
	m.FromDomain(p)
	return m
}
