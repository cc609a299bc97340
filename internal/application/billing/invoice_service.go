package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/coursebill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingPolicy carries the billing business parameters from configuration
type BillingPolicy struct {
	TaxRate decimal.Decimal // e.g. 0.13 for 13%
	DueDays int             // days from invoice creation to due date
}

// DefaultBillingPolicy returns the standard policy
func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		TaxRate: decimal.NewFromFloat(0.13),
		DueDays: 30,
	}
}

// InvoiceService provides invoice lifecycle operations for completed courses
type InvoiceService struct {
	uow         billing.UnitOfWork
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	courseRepo  training.CourseRepository
	orgRepo     training.OrganizationRepository
	priceRepo   training.PriceConfigRepository
	publisher   shared.EventPublisher
	policy      BillingPolicy
	now         func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	uow billing.UnitOfWork,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	courseRepo training.CourseRepository,
	orgRepo training.OrganizationRepository,
	priceRepo training.PriceConfigRepository,
	publisher shared.EventPublisher,
	policy BillingPolicy,
) *InvoiceService {
	return &InvoiceService{
		uow:         uow,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		courseRepo:  courseRepo,
		orgRepo:     orgRepo,
		priceRepo:   priceRepo,
		publisher:   publisher,
		policy:      policy,
		now:         time.Now,
	}
}

// ReadinessResponse reports billing readiness for a course
type ReadinessResponse struct {
	CourseID        uuid.UUID       `json:"course_id"`
	IsValid         bool            `json:"is_valid"`
	Errors          []string        `json:"errors"`
	Warnings        []string        `json:"warnings"`
	AttendedCount   int             `json:"attended_count"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	CourseID       uuid.UUID       `json:"course_id"`
	BaseCost       decimal.Decimal `json:"base_cost"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
	DueDate        time.Time       `json:"due_date"`
	PaidDate       *time.Time      `json:"paid_date,omitempty"`
	PostedToOrg    bool            `json:"posted_to_org"`
	VerifiedSum    decimal.Decimal `json:"verified_sum"`
	PendingSum     decimal.Decimal `json:"pending_sum"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	PaymentStatus  string          `json:"payment_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	OrganizationID *uuid.UUID `form:"organization_id"`
	Status         string     `form:"status"`
	PostedOnly     bool       `form:"posted_only"`
	Search         string     `form:"search"`
	Page           int        `form:"page"`
	PageSize       int        `form:"page_size"`
}

func (s *InvoiceService) toInvoiceResponse(inv *billing.Invoice, balance billing.Balance) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		OrganizationID: inv.OrganizationID,
		CourseID:       inv.CourseID,
		BaseCost:       inv.BaseCost,
		TaxAmount:      inv.TaxAmount,
		Total:          inv.Total(),
		Status:         inv.Status.String(),
		DueDate:        inv.DueDate,
		PaidDate:       inv.PaidDate,
		PostedToOrg:    inv.PostedToOrg,
		VerifiedSum:    balance.VerifiedSum,
		PendingSum:     balance.PendingSum,
		Outstanding:    balance.Outstanding,
		PaymentStatus:  string(balance.PaymentStatus),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		Version:        inv.Version,
	}
}

func (s *InvoiceService) evaluateReadiness(
	ctx context.Context,
	course *training.Course,
	countAttended func(context.Context, uuid.UUID) (int, error),
) (billing.ReadinessResult, *training.Organization, *training.PriceConfig, int, error) {
	org, err := s.orgRepo.FindByID(ctx, course.OrganizationID)
	if errors.Is(err, shared.ErrNotFound) {
		// A missing organization is a readiness error, not a failure
		org = nil
	} else if err != nil {
		return billing.ReadinessResult{}, nil, nil, 0, fmt.Errorf("failed to load organization: %w", err)
	}

	price, err := s.priceRepo.FindActive(ctx, course.OrganizationID, course.CourseType)
	if err != nil {
		return billing.ReadinessResult{}, nil, nil, 0, fmt.Errorf("failed to load price config: %w", err)
	}

	attended, err := countAttended(ctx, course.ID)
	if err != nil {
		return billing.ReadinessResult{}, nil, nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	result := billing.EvaluateReadiness(course, org, price, attended, s.now())
	return result, org, price, attended, nil
}

// ValidateReadiness checks whether a course can be invoiced and reports
// every blocking problem at once
func (s *InvoiceService) ValidateReadiness(ctx context.Context, courseID uuid.UUID) (*ReadinessResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "validate_readiness")
	defer span.End()

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError("COURSE_NOT_FOUND", "Course not found")
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	result, _, _, attended, err := s.evaluateReadiness(ctx, course, s.courseRepo.CountAttended)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &ReadinessResponse{
		CourseID:        course.ID,
		IsValid:         result.IsValid,
		Errors:          result.Errors,
		Warnings:        result.Warnings,
		AttendedCount:   attended,
		EstimatedAmount: result.EstimatedAmount.Amount(),
	}, nil
}

// CreateInvoice generates the invoice for a completed course. The
// readiness rules are re-checked inside the transaction against locked
// rows so a concurrent creation cannot double-invoice the course.
func (s *InvoiceService) CreateInvoice(ctx context.Context, courseID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "create_invoice")
	defer span.End()

	var created *billing.Invoice
	var course *training.Course

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		var err error
		course, err = tx.Courses().FindByIDForUpdate(ctx, courseID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("COURSE_NOT_FOUND", "Course not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load course: %w", err)
		}
		if course.Invoiced {
			return shared.NewDomainError("ALREADY_INVOICED", "Course has already been invoiced")
		}

		result, _, price, attended, err := s.evaluateReadiness(ctx, course, tx.Courses().CountAttended)
		if err != nil {
			return err
		}
		if !result.IsValid {
			return shared.NewDomainError("READINESS_CHECK_FAILED",
				"Course is not ready for billing: "+strings.Join(result.Errors, "; "))
		}

		existing, err := tx.Invoices().FindByCourseID(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to check existing invoice: %w", err)
		}
		if existing != nil {
			return shared.NewDomainError("ALREADY_INVOICED", "An invoice already exists for this course")
		}

		now := s.now()
		number, err := tx.Invoices().NextInvoiceNumber(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}

		baseCost := price.EstimateTotal(attended)
		taxAmount := baseCost.Multiply(s.policy.TaxRate).Round(2)
		dueDate := now.AddDate(0, 0, s.policy.DueDays)

		invoice, err := billing.NewInvoice(number, course.OrganizationID, course.ID,
			baseCost, taxAmount, dueDate)
		if err != nil {
			return err
		}

		if err := course.MarkInvoiced(); err != nil {
			return err
		}
		if err := tx.Courses().SaveWithLock(ctx, course); err != nil {
			return fmt.Errorf("failed to update course: %w", err)
		}
		if err := tx.Invoices().Save(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		created = invoice
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, created)

	balance := billing.ComputeBalance(created.Total(), nil, created.DueDate, s.now())
	resp := s.toInvoiceResponse(created, balance)
	return &resp, nil
}

// GetInvoice returns one invoice with its computed balance
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	payments, err := s.paymentRepo.FindByInvoiceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	balance := billing.ComputeBalance(invoice.Total(), payments, invoice.DueDate, s.now())
	resp := s.toInvoiceResponse(invoice, balance)
	return &resp, nil
}

// ListInvoices lists invoices matching the filter with their balances
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	repoFilter := billing.InvoiceFilter{
		Filter:         shared.DefaultFilter(),
		OrganizationID: filter.OrganizationID,
		PostedOnly:     filter.PostedOnly,
	}
	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}
	repoFilter.Search = filter.Search
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status: "+filter.Status)
		}
		repoFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoiceRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	now := s.now()
	responses := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		payments, err := s.paymentRepo.FindByInvoiceID(ctx, inv.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load payments: %w", err)
		}
		balance := billing.ComputeBalance(inv.Total(), payments, inv.DueDate, now)
		responses = append(responses, s.toInvoiceResponse(inv, balance))
	}

	return responses, total, nil
}

// PostInvoice makes an invoice visible to the billed organization
func (s *InvoiceService) PostInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	var posted *billing.Invoice

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		invoice, err := tx.Invoices().FindByIDForUpdate(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if err := invoice.PostToOrganization(); err != nil {
			return err
		}
		if err := tx.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		posted = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, posted.ID)
}

// VoidInvoice voids an unpaid invoice. The record is retained.
func (s *InvoiceService) VoidInvoice(ctx context.Context, id uuid.UUID, reason string) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "void_invoice")
	defer span.End()

	var voided *billing.Invoice

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		invoice, err := tx.Invoices().FindByIDForUpdate(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}

		pendingSum, err := tx.Payments().SumByStatus(ctx, id, billing.PaymentStatusPendingVerification)
		if err != nil {
			return fmt.Errorf("failed to check pending payments: %w", err)
		}
		if pendingSum.IsPositive() {
			return shared.NewDomainError("PAYMENTS_PENDING", "Cannot void an invoice with payments awaiting verification")
		}

		if err := invoice.Void(reason); err != nil {
			return err
		}
		if err := tx.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		voided = invoice
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, voided)

	return s.GetInvoice(ctx, voided.ID)
}

// publishEvents drains and publishes domain events after the
// transaction has committed. Publication failures never affect the
// financial outcome.
func (s *InvoiceService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
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
