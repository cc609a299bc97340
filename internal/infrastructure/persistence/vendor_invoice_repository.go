package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coursebill/backend/internal/domain/payables"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVendorInvoiceRepository implements VendorInvoiceRepository using GORM
type GormVendorInvoiceRepository struct {
	db *gorm.DB
}

// NewGormVendorInvoiceRepository creates a new GormVendorInvoiceRepository
func NewGormVendorInvoiceRepository(db *gorm.DB) *GormVendorInvoiceRepository {
	return &GormVendorInvoiceRepository{db: db}
}

// FindByID finds a vendor invoice by its ID
func (r *GormVendorInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.VendorInvoice, error) {
	var model models.VendorInvoiceModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a vendor invoice by ID holding a row lock
// until the surrounding transaction commits or rolls back
func (r *GormVendorInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payables.VendorInvoice, error) {
	var model models.VendorInvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists vendor invoices matching the filter
func (r *GormVendorInvoiceRepository) FindAll(ctx context.Context, filter payables.VendorInvoiceFilter) ([]*payables.VendorInvoice, error) {
	var invoiceModels []models.VendorInvoiceModel
	query := r.db.WithContext(ctx).Model(&models.VendorInvoiceModel{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]*payables.VendorInvoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// Count counts vendor invoices matching the filter
func (r *GormVendorInvoiceRepository) Count(ctx context.Context, filter payables.VendorInvoiceFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.VendorInvoiceModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextInvoiceNumber allocates the next vendor invoice number for the
// year. Format: VINV-YYYY-NNNNN.
func (r *GormVendorInvoiceRepository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	return nextSequencedNumber(ctx, r.db, &models.VendorInvoiceModel{}, "invoice_number", fmt.Sprintf("VINV-%d-", year))
}

// Save creates or updates a vendor invoice
func (r *GormVendorInvoiceRepository) Save(ctx context.Context, invoice *payables.VendorInvoice) error {
	model := models.VendorInvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormVendorInvoiceRepository) SaveWithLock(ctx context.Context, invoice *payables.VendorInvoice) error {
	model := models.VendorInvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormVendorInvoiceRepository) applyFilter(query *gorm.DB, filter payables.VendorInvoiceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.EqualFold(filter.OrderDir, "desc") {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

func (r *GormVendorInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter payables.VendorInvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR vendor_name ILIKE ?", searchPattern, searchPattern)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}
