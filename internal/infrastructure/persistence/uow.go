package persistence

import (
	"context"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/payables"
	"github.com/coursebill/backend/internal/domain/training"
	"gorm.io/gorm"
)

// BillingUnitOfWork implements billing.UnitOfWork over a GORM
// transaction. Every repository handed to fn shares the same
// transaction, so row locks taken through FindByIDForUpdate hold until
// fn returns.
type BillingUnitOfWork struct {
	db *gorm.DB
}

// NewBillingUnitOfWork creates a new BillingUnitOfWork
func NewBillingUnitOfWork(db *gorm.DB) *BillingUnitOfWork {
	return &BillingUnitOfWork{db: db}
}

// Execute runs fn inside one database transaction. An error from fn
// rolls back everything written through the transaction repositories.
func (u *BillingUnitOfWork) Execute(ctx context.Context, fn func(tx billing.TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&billingTxRepos{tx: tx})
	})
}

type billingTxRepos struct {
	tx *gorm.DB
}

func (r *billingTxRepos) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *billingTxRepos) Payments() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *billingTxRepos) Courses() training.CourseRepository {
	return NewGormCourseRepository(r.tx)
}

// PayablesUnitOfWork implements payables.UnitOfWork over a GORM
// transaction.
type PayablesUnitOfWork struct {
	db *gorm.DB
}

// NewPayablesUnitOfWork creates a new PayablesUnitOfWork
func NewPayablesUnitOfWork(db *gorm.DB) *PayablesUnitOfWork {
	return &PayablesUnitOfWork{db: db}
}

// Execute runs fn inside one database transaction
func (u *PayablesUnitOfWork) Execute(ctx context.Context, fn func(tx payables.TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&payablesTxRepos{tx: tx})
	})
}

type payablesTxRepos struct {
	tx *gorm.DB
}

func (r *payablesTxRepos) VendorInvoices() payables.VendorInvoiceRepository {
	return NewGormVendorInvoiceRepository(r.tx)
}

func (r *payablesTxRepos) VendorPayments() payables.VendorPaymentRepository {
	return NewGormVendorPaymentRepository(r.tx)
}

// Interface guards
var (
	_ billing.UnitOfWork               = (*BillingUnitOfWork)(nil)
	_ payables.UnitOfWork              = (*PayablesUnitOfWork)(nil)
	_ billing.InvoiceRepository        = (*GormInvoiceRepository)(nil)
	_ billing.PaymentRepository        = (*GormPaymentRepository)(nil)
	_ training.CourseRepository        = (*GormCourseRepository)(nil)
	_ training.OrganizationRepository  = (*GormOrganizationRepository)(nil)
	_ training.PriceConfigRepository   = (*GormPriceConfigRepository)(nil)
	_ payables.VendorInvoiceRepository = (*GormVendorInvoiceRepository)(nil)
	_ payables.VendorPaymentRepository = (*GormVendorPaymentRepository)(nil)
)
