package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// VerificationService handles accountant actions on submitted payments.
// Each operation is one transaction: it re-reads the live payment and
// invoice under row locks, mutates both, and recomputes the invoice
// status from the stored payment set before committing.
type VerificationService struct {
	uow       billing.UnitOfWork
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(uow billing.UnitOfWork, publisher shared.EventPublisher) *VerificationService {
	return &VerificationService{
		uow:       uow,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the clock, for tests exercising the reversal window
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	s.now = now
	return s
}

// VerificationResult returns the payment and invoice as they stand
// after the accountant action
type VerificationResult struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceSummary  `json:"invoice"`
}

// InvoiceSummary is the invoice slice of a verification result
type InvoiceSummary struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	Outstanding   string     `json:"outstanding"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
}

func (s *VerificationService) loadForUpdate(
	ctx context.Context,
	tx billing.TxRepos,
	paymentID uuid.UUID,
) (*billing.Payment, *billing.Invoice, error) {
	payment, err := tx.Payments().FindByIDForUpdate(ctx, paymentID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payment: %w", err)
	}

	invoice, err := tx.Invoices().FindByIDForUpdate(ctx, payment.InvoiceID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return payment, invoice, nil
}

func (s *VerificationService) recomputeInvoice(
	ctx context.Context,
	tx billing.TxRepos,
	invoice *billing.Invoice,
	now time.Time,
) error {
	payments, err := tx.Payments().FindByInvoiceID(ctx, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	balance := billing.ComputeBalance(invoice.Total(), payments, invoice.DueDate, now)
	invoice.ApplyBalance(balance, now)
	if err := tx.Invoices().SaveWithLock(ctx, invoice); err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (s *VerificationService) result(
	ctx context.Context,
	tx billing.TxRepos,
	payment *billing.Payment,
	invoice *billing.Invoice,
	now time.Time,
) (*VerificationResult, error) {
	payments, err := tx.Payments().FindByInvoiceID(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	balance := billing.ComputeBalance(invoice.Total(), payments, invoice.DueDate, now)
	return &VerificationResult{
		Payment: toPaymentResponse(payment),
		Invoice: InvoiceSummary{
			ID:            invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			Status:        invoice.Status.String(),
			Outstanding:   balance.Outstanding.StringFixed(2),
			PaidDate:      invoice.PaidDate,
		},
	}, nil
}

// Approve verifies a pending payment and re-derives the invoice status
// from the verified sum
func (s *VerificationService) Approve(ctx context.Context, paymentID, actorID uuid.UUID, notes string) (*VerificationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "approve_payment")
	defer span.End()

	var result *VerificationResult
	var payment *billing.Payment
	var invoice *billing.Invoice

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		var err error
		payment, invoice, err = s.loadForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		now := s.now()

		// The submission cap ignores pending siblings, so two pending
		// payments can each fit the outstanding balance. The verified
		// sum must never exceed the total, so the cap is re-checked
		// here against the live payment set under the row lock.
		payments, err := tx.Payments().FindByInvoiceID(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}
		balance := billing.ComputeBalance(invoice.Total(), payments, invoice.DueDate, now)
		if !balance.CanAccept(payment.Amount) {
			return shared.NewDomainError("PAYMENT_EXCEEDS_BALANCE",
				fmt.Sprintf("Verifying %s would exceed the outstanding balance of %s",
					payment.Amount.StringFixed(2), balance.Outstanding.StringFixed(2)))
		}

		if err := payment.Verify(actorID, notes, now); err != nil {
			return err
		}
		if err := tx.Payments().SaveWithLock(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := s.recomputeInvoice(ctx, tx, invoice, now); err != nil {
			return err
		}

		result, err = s.result(ctx, tx, payment, invoice, now)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, payment, invoice)

	return result, nil
}

// Reject rejects a pending payment. The invoice goes back to PENDING
// without inspecting sibling payments; their state is untouched.
func (s *VerificationService) Reject(ctx context.Context, paymentID, actorID uuid.UUID, notes string) (*VerificationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "reject_payment")
	defer span.End()

	var result *VerificationResult
	var payment *billing.Payment
	var invoice *billing.Invoice

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		var err error
		payment, invoice, err = s.loadForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := payment.Reject(actorID, notes, now); err != nil {
			return err
		}
		if err := tx.Payments().SaveWithLock(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		invoice.RevertToPending()
		if err := tx.Invoices().SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		result, err = s.result(ctx, tx, payment, invoice, now)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, payment, invoice)

	return result, nil
}

// Reverse undoes a verified payment within the reversal window and
// re-derives the invoice status from the remaining verified sum
func (s *VerificationService) Reverse(ctx context.Context, paymentID, actorID uuid.UUID, reason string) (*VerificationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "reverse_payment")
	defer span.End()

	var result *VerificationResult
	var payment *billing.Payment
	var invoice *billing.Invoice

	err := s.uow.Execute(ctx, func(tx billing.TxRepos) error {
		var err error
		payment, invoice, err = s.loadForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := payment.Reverse(actorID, reason, now); err != nil {
			return err
		}
		if err := tx.Payments().SaveWithLock(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := s.recomputeInvoice(ctx, tx, invoice, now); err != nil {
			return err
		}

		result, err = s.result(ctx, tx, payment, invoice, now)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, payment, invoice)

	return result, nil
}

func (s *VerificationService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
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
