package payables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursebill/backend/internal/domain/payables"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/coursebill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorInvoiceService runs the vendor invoice approval chain and
// payment recording. Every transition re-reads the live invoice under
// a row lock so a rejected or paid invoice can never be mutated again.
type VendorInvoiceService struct {
	uow         payables.UnitOfWork
	invoiceRepo payables.VendorInvoiceRepository
	paymentRepo payables.VendorPaymentRepository
	publisher   shared.EventPublisher
	now         func() time.Time
}

// NewVendorInvoiceService creates a new VendorInvoiceService
func NewVendorInvoiceService(
	uow payables.UnitOfWork,
	invoiceRepo payables.VendorInvoiceRepository,
	paymentRepo payables.VendorPaymentRepository,
	publisher shared.EventPublisher,
) *VendorInvoiceService {
	return &VendorInvoiceService{
		uow:         uow,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

// SubmitVendorInvoiceRequest represents a vendor invoice submission
type SubmitVendorInvoiceRequest struct {
	VendorID    uuid.UUID
	VendorName  string
	Description string
	Total       decimal.Decimal
	ActorID     uuid.UUID
}

// RecordVendorPaymentRequest represents a payment recorded by accounting
type RecordVendorPaymentRequest struct {
	VendorInvoiceID uuid.UUID
	Amount          decimal.Decimal
	Method          string
	ReferenceNumber string
	PaymentDate     time.Time
	Notes           string
	ActorID         uuid.UUID
}

// VendorInvoiceResponse represents a vendor invoice in API responses
type VendorInvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	Description   string          `json:"description,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ProcessedSum  decimal.Decimal `json:"processed_sum"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Status        string          `json:"status"`
	ApprovedBy    *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	RejectedBy    *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt    *time.Time      `json:"rejected_at,omitempty"`
	RejectionNote string          `json:"rejection_note,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Version       int             `json:"version"`
}

// VendorPaymentResponse represents a vendor payment in API responses
type VendorPaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	VendorInvoiceID uuid.UUID       `json:"vendor_invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Status          string          `json:"status"`
	PaymentDate     time.Time       `json:"payment_date"`
	ProcessedBy     uuid.UUID       `json:"processed_by"`
	Notes           string          `json:"notes,omitempty"`
}

// RecordVendorPaymentResult is returned after a payment is recorded
type RecordVendorPaymentResult struct {
	Payment VendorPaymentResponse `json:"payment"`
	Invoice VendorInvoiceResponse `json:"invoice"`
}

// VendorInvoiceListFilter defines filtering options for vendor invoice lists
type VendorInvoiceListFilter struct {
	VendorID *uuid.UUID `form:"vendor_id"`
	Status   string     `form:"status"`
	Search   string     `form:"search"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

func toVendorInvoiceResponse(vi *payables.VendorInvoice, processedSum decimal.Decimal) VendorInvoiceResponse {
	return VendorInvoiceResponse{
		ID:            vi.ID,
		InvoiceNumber: vi.InvoiceNumber,
		VendorID:      vi.VendorID,
		VendorName:    vi.VendorName,
		Description:   vi.Description,
		Total:         vi.Total,
		ProcessedSum:  processedSum,
		Outstanding:   vi.Outstanding(processedSum),
		Status:        vi.Status.String(),
		ApprovedBy:    vi.ApprovedBy,
		ApprovedAt:    vi.ApprovedAt,
		RejectedBy:    vi.RejectedBy,
		RejectedAt:    vi.RejectedAt,
		RejectionNote: vi.RejectionNote,
		PaidAt:        vi.PaidAt,
		CreatedAt:     vi.CreatedAt,
		Version:       vi.Version,
	}
}

func toVendorPaymentResponse(p *payables.VendorPayment) VendorPaymentResponse {
	return VendorPaymentResponse{
		ID:              p.ID,
		VendorInvoiceID: p.VendorInvoiceID,
		Amount:          p.Amount,
		Method:          p.Method,
		ReferenceNumber: p.ReferenceNumber,
		Status:          string(p.Status),
		PaymentDate:     p.PaymentDate,
		ProcessedBy:     p.ProcessedBy,
		Notes:           p.Notes,
	}
}

// Submit enters a vendor invoice into the approval chain
func (s *VendorInvoiceService) Submit(ctx context.Context, req SubmitVendorInvoiceRequest) (*VendorInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payables", "submit_vendor_invoice")
	defer span.End()

	var created *payables.VendorInvoice

	err := s.uow.Execute(ctx, func(tx payables.TxRepos) error {
		number, err := tx.VendorInvoices().NextInvoiceNumber(ctx, s.now().Year())
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}

		invoice, err := payables.NewVendorInvoice(number, req.VendorID, req.VendorName,
			req.Description, valueobject.NewMoneyUSD(req.Total), req.ActorID)
		if err != nil {
			return err
		}
		if err := tx.VendorInvoices().Save(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save vendor invoice: %w", err)
		}
		created = invoice
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, created)

	resp := toVendorInvoiceResponse(created, decimal.Zero)
	return &resp, nil
}

// AdminApprove forwards a vendor invoice to accounting
func (s *VendorInvoiceService) AdminApprove(ctx context.Context, invoiceID, actorID uuid.UUID) (*VendorInvoiceResponse, error) {
	return s.transition(ctx, invoiceID, "admin_approve_vendor_invoice", func(vi *payables.VendorInvoice) error {
		return vi.AdminApprove(actorID, s.now())
	})
}

// AdminReject rejects a vendor invoice before it reaches accounting
func (s *VendorInvoiceService) AdminReject(ctx context.Context, invoiceID, actorID uuid.UUID, notes string) (*VendorInvoiceResponse, error) {
	return s.transition(ctx, invoiceID, "admin_reject_vendor_invoice", func(vi *payables.VendorInvoice) error {
		return vi.AdminReject(actorID, notes, s.now())
	})
}

// AccountantReject rejects an admin-approved vendor invoice
func (s *VendorInvoiceService) AccountantReject(ctx context.Context, invoiceID, actorID uuid.UUID, notes string) (*VendorInvoiceResponse, error) {
	return s.transition(ctx, invoiceID, "accountant_reject_vendor_invoice", func(vi *payables.VendorInvoice) error {
		return vi.AccountantReject(actorID, notes, s.now())
	})
}

func (s *VendorInvoiceService) transition(
	ctx context.Context,
	invoiceID uuid.UUID,
	operation string,
	apply func(*payables.VendorInvoice) error,
) (*VendorInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payables", operation)
	defer span.End()

	var invoice *payables.VendorInvoice
	var processedSum decimal.Decimal

	err := s.uow.Execute(ctx, func(tx payables.TxRepos) error {
		var err error
		invoice, err = tx.VendorInvoices().FindByIDForUpdate(ctx, invoiceID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("VENDOR_INVOICE_NOT_FOUND", "Vendor invoice not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load vendor invoice: %w", err)
		}

		if err := apply(invoice); err != nil {
			return err
		}
		if err := tx.VendorInvoices().SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save vendor invoice: %w", err)
		}

		processedSum, err = tx.VendorPayments().SumProcessed(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	resp := toVendorInvoiceResponse(invoice, processedSum)
	return &resp, nil
}

// RecordPayment records a processed payment against an approved vendor
// invoice. The amount is validated against the live outstanding balance
// inside the transaction; covering the total marks the invoice paid.
func (s *VendorInvoiceService) RecordPayment(ctx context.Context, req RecordVendorPaymentRequest) (*RecordVendorPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payables", "record_vendor_payment")
	defer span.End()

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	var result *RecordVendorPaymentResult
	var invoice *payables.VendorInvoice

	err := s.uow.Execute(ctx, func(tx payables.TxRepos) error {
		var err error
		invoice, err = tx.VendorInvoices().FindByIDForUpdate(ctx, req.VendorInvoiceID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("VENDOR_INVOICE_NOT_FOUND", "Vendor invoice not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load vendor invoice: %w", err)
		}
		if !invoice.AcceptsPayment() {
			return shared.NewDomainError("INVALID_STATE",
				"Vendor invoice does not accept payments in "+invoice.Status.String()+" status")
		}

		processedSum, err := tx.VendorPayments().SumProcessed(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}

		outstanding := invoice.Outstanding(processedSum)
		if req.Amount.GreaterThan(outstanding) {
			return shared.NewDomainError("PAYMENT_EXCEEDS_BALANCE",
				fmt.Sprintf("Payment of %s exceeds the outstanding balance of %s",
					req.Amount.StringFixed(2), outstanding.StringFixed(2)))
		}

		paymentDate := req.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = s.now()
		}
		payment, err := payables.NewVendorPayment(invoice.ID, valueobject.NewMoneyUSD(req.Amount),
			req.Method, req.ReferenceNumber, paymentDate, req.ActorID, req.Notes)
		if err != nil {
			return err
		}
		if err := tx.VendorPayments().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save vendor payment: %w", err)
		}

		newSum := processedSum.Add(req.Amount)
		if err := invoice.ApplyProcessedSum(newSum, s.now()); err != nil {
			return err
		}
		if err := tx.VendorInvoices().SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save vendor invoice: %w", err)
		}

		result = &RecordVendorPaymentResult{
			Payment: toVendorPaymentResponse(payment),
			Invoice: toVendorInvoiceResponse(invoice, newSum),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	return result, nil
}

// GetVendorInvoice returns one vendor invoice with its processed sum
func (s *VendorInvoiceService) GetVendorInvoice(ctx context.Context, id uuid.UUID) (*VendorInvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError("VENDOR_INVOICE_NOT_FOUND", "Vendor invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor invoice: %w", err)
	}

	processedSum, err := s.paymentRepo.SumProcessed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	resp := toVendorInvoiceResponse(invoice, processedSum)
	return &resp, nil
}

// ListVendorInvoices lists vendor invoices matching the filter
func (s *VendorInvoiceService) ListVendorInvoices(ctx context.Context, filter VendorInvoiceListFilter) ([]VendorInvoiceResponse, int64, error) {
	repoFilter := payables.VendorInvoiceFilter{
		Filter:   shared.DefaultFilter(),
		VendorID: filter.VendorID,
	}
	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}
	repoFilter.Search = filter.Search
	if filter.Status != "" {
		status := payables.VendorInvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown vendor invoice status: "+filter.Status)
		}
		repoFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vendor invoices: %w", err)
	}
	total, err := s.invoiceRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count vendor invoices: %w", err)
	}

	responses := make([]VendorInvoiceResponse, 0, len(invoices))
	for _, vi := range invoices {
		processedSum, err := s.paymentRepo.SumProcessed(ctx, vi.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to sum payments: %w", err)
		}
		responses = append(responses, toVendorInvoiceResponse(vi, processedSum))
	}

	return responses, total, nil
}

// ListVendorPayments lists the payments recorded against a vendor invoice
func (s *VendorInvoiceService) ListVendorPayments(ctx context.Context, invoiceID uuid.UUID) ([]VendorPaymentResponse, error) {
	payments, err := s.paymentRepo.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor payments: %w", err)
	}
	responses := make([]VendorPaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toVendorPaymentResponse(p))
	}
	return responses, nil
}

func (s *VendorInvoiceService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.publisher == nil {
		return
	}
	for _, agg := range aggregates {
		for _, event := range agg.GetDomainEvents() {
			_ = s.publisher.Publish(ctx, event)
		}
		agg.ClearDomainEvents()
	}
}
