package models

import (
	"time"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrganizationID uuid.UUID             `gorm:"type:uuid;not null;index"`
	CourseID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	BaseCost       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TaxAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate        time.Time             `gorm:"not null;index"`
	PaidDate       *time.Time
	PostedToOrg    bool `gorm:"not null;default:false;index"`
	VoidedAt       *time.Time
	VoidReason     string `gorm:"type:varchar(500)"`
	Remark         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		OrganizationID:    m.OrganizationID,
		CourseID:          m.CourseID,
		BaseCost:          m.BaseCost,
		TaxAmount:         m.TaxAmount,
		Status:            m.Status,
		DueDate:           m.DueDate,
		PaidDate:          m.PaidDate,
		PostedToOrg:       m.PostedToOrg,
		VoidedAt:          m.VoidedAt,
		VoidReason:        m.VoidReason,
		Remark:            m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.OrganizationID = inv.OrganizationID
	m.CourseID = inv.CourseID
	m.BaseCost = inv.BaseCost
	m.TaxAmount = inv.TaxAmount
	m.Status = inv.Status
	m.DueDate = inv.DueDate
	m.PaidDate = inv.PaidDate
	m.PostedToOrg = inv.PostedToOrg
	m.VoidedAt = inv.VoidedAt
	m.VoidReason = inv.VoidReason
	m.Remark = inv.Remark
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	InvoiceID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method          string                `gorm:"type:varchar(50);not null"`
	ReferenceNumber string                `gorm:"type:varchar(100)"`
	Status          billing.PaymentStatus `gorm:"type:varchar(30);not null;default:'PENDING_VERIFICATION';index"`
	PaymentDate     time.Time             `gorm:"not null"`
	SubmittedBy     uuid.UUID             `gorm:"type:uuid;not null"`
	VerifiedBy      *uuid.UUID            `gorm:"type:uuid"`
	VerifiedAt      *time.Time
	ReversedBy      *uuid.UUID            `gorm:"type:uuid"`
	ReversedAt      *time.Time
	Notes           billing.PaymentNotes `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceID:         m.InvoiceID,
		Amount:            m.Amount,
		Method:            m.Method,
		ReferenceNumber:   m.ReferenceNumber,
		Status:            m.Status,
		PaymentDate:       m.PaymentDate,
		SubmittedBy:       m.SubmittedBy,
		VerifiedBy:        m.VerifiedBy,
		VerifiedAt:        m.VerifiedAt,
		ReversedBy:        m.ReversedBy,
		ReversedAt:        m.ReversedAt,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.Method = p.Method
	m.ReferenceNumber = p.ReferenceNumber
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.SubmittedBy = p.SubmittedBy
	m.VerifiedBy = p.VerifiedBy
	m.VerifiedAt = p.VerifiedAt
	m.ReversedBy = p.ReversedBy
	m.ReversedAt = p.ReversedAt
	m.Notes = p.Notes
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
