package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/coursebill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService handles payment submission by organizations
type PaymentService struct {
	uow         billing.UnitOfWork
	paymentRepo billing.PaymentRepository
	publisher   shared.EventPublisher
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	uow billing.UnitOfWork,
	paymentRepo billing.PaymentRepository,
	publisher shared.EventPublisher,
) *PaymentService {
	return &PaymentService{
		uow:         uow,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

// SubmitPaymentRequest represents a payment submission
type SubmitPaymentRequest struct {
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	Method          string
	ReferenceNumber string
	PaymentDate     time.Time
	Notes           string
	ActorID         uuid.UUID
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Status          string          `json:"status"`
	PaymentDate     time.Time       `json:"payment_date"`
	SubmittedBy     uuid.UUID       `json:"submitted_by"`
	VerifiedBy      *uuid.UUID      `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	ReversedBy      *uuid.UUID      `json:"reversed_by,omitempty"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty"`
	Notes           []PaymentNoteResponse `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Version         int             `json:"version"`
}

// PaymentNoteResponse represents an audit note in API responses
type PaymentNoteResponse struct {
	At      time.Time `json:"at"`
	ActorID uuid.UUID `json:"actor_id"`
	Text    string    `json:"text"`
}

// SubmitPaymentResult is returned after a successful submission.
// IsFullPayment is a display hint only; it includes unverified pending
// amounts and never drives invoice state.
type SubmitPaymentResult struct {
	Payment          PaymentResponse `json:"payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	IsFullPayment    bool            `json:"is_full_payment"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	notes := make([]PaymentNoteResponse, 0, len(p.Notes))
	for _, n := range p.Notes {
		notes = append(notes, PaymentNoteResponse{At: n.At, ActorID: n.ActorID, Text: n.Text})
	}
	return PaymentResponse{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		Method:          p.Method,
		ReferenceNumber: p.ReferenceNumber,
		Status:          p.Status.String(),
		PaymentDate:     p.PaymentDate,
		SubmittedBy:     p.SubmittedBy,
		VerifiedBy:      p.VerifiedBy,
		VerifiedAt:      p.VerifiedAt,
		ReversedBy:      p.ReversedBy,
		ReversedAt:      p.ReversedAt,
		Notes:           notes,
		CreatedAt:       p.CreatedAt,
		Version:         p.Version,
	}
}

// SubmitPayment records a payment against an invoice. The amount is
// capped by the outstanding balance computed from verified payments
// only, inside the same transaction that holds the invoice row lock.
func (s *PaymentService) SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*SubmitPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "submit_payment")
	defer span.End()

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	var result *SubmitPaymentResult
	var submitted *billing.Payment
	var invoice *billing.Invoice

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		var err error
		invoice, err = tx.Invoices().FindByIDForUpdate(ctx, req.InvoiceID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if !invoice.Status.AcceptsPayment() {
			return shared.NewDomainError("INVALID_STATE",
				"Invoice does not accept payments in "+invoice.Status.String()+" status")
		}

		payments, err := tx.Payments().FindByInvoiceID(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}

		balance := billing.ComputeBalance(invoice.Total(), payments, invoice.DueDate, s.now())
		if !balance.CanAccept(req.Amount) {
			return shared.NewDomainError("PAYMENT_EXCEEDS_BALANCE",
				fmt.Sprintf("Payment of %s exceeds the outstanding balance of %s",
					req.Amount.StringFixed(2), balance.Outstanding.StringFixed(2)))
		}

		payment, err := billing.NewPayment(invoice.ID, valueobject.NewMoneyUSD(req.Amount),
			req.Method, req.ReferenceNumber, req.PaymentDate, req.ActorID)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			payment.Notes = append(payment.Notes, billing.PaymentNote{
				At:      s.now(),
				ActorID: req.ActorID,
				Text:    req.Notes,
			})
		}

		if err := invoice.MarkPaymentSubmitted(); err != nil {
			return err
		}
		if err := tx.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		if err := tx.Payments().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		submitted = payment
		result = &SubmitPaymentResult{
			Payment:          toPaymentResponse(payment),
			RemainingBalance: balance.RemainingAfter(req.Amount),
			IsFullPayment:    balance.FullPaymentHint(req.Amount),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, submitted, invoice)

	return result, nil
}

// GetPayment returns one payment
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	resp := toPaymentResponse(payment)
	return &resp, nil
}

// ListPayments lists every payment submitted against an invoice
func (s *PaymentService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toPaymentResponse(p))
	}
	return responses, nil
}

func (s *PaymentService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
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
