package persistence

import (
	"context"

	"github.com/coursebill/backend/internal/domain/payables"
	"github.com/coursebill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormVendorPaymentRepository implements VendorPaymentRepository using GORM
type GormVendorPaymentRepository struct {
	db *gorm.DB
}

// NewGormVendorPaymentRepository creates a new GormVendorPaymentRepository
func NewGormVendorPaymentRepository(db *gorm.DB) *GormVendorPaymentRepository {
	return &GormVendorPaymentRepository{db: db}
}

// FindByInvoiceID lists payments recorded against a vendor invoice,
// oldest first
func (r *GormVendorPaymentRepository) FindByInvoiceID(ctx context.Context, vendorInvoiceID uuid.UUID) ([]*payables.VendorPayment, error) {
	var paymentModels []models.VendorPaymentModel
	if err := r.db.WithContext(ctx).
		Where("vendor_invoice_id = ?", vendorInvoiceID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]*payables.VendorPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// SumProcessed totals the processed payments for a vendor invoice
func (r *GormVendorPaymentRepository) SumProcessed(ctx context.Context, vendorInvoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.VendorPaymentModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("vendor_invoice_id = ? AND status = ?", vendorInvoiceID, payables.VendorPaymentStatusProcessed).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates a vendor payment
func (r *GormVendorPaymentRepository) Save(ctx context.Context, payment *payables.VendorPayment) error {
	model := models.VendorPaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Save(model).Error
}
