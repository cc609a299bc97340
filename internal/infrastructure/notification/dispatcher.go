// Package notification delivers billing notifications to organizations
// and staff. Dispatch is fire-and-forget: a failed delivery is logged
// and never fails the financial operation that triggered it.
package notification

import (
	"context"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/payables"
	"github.com/coursebill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Dispatcher reacts to billing domain events by dispatching outbound
// notifications. The delivery channel (email, webhook) sits behind the
// Sender interface; the default sender only records the dispatch.
type Dispatcher struct {
	sender Sender
	logger *zap.Logger
}

// Sender delivers one rendered notification
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// logSender writes notifications to the log instead of an external channel
type logSender struct {
	logger *zap.Logger
}

func (s *logSender) Send(ctx context.Context, subject, body string) error {
	s.logger.Info("notification dispatched",
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// NewDispatcher creates a Dispatcher. A nil sender falls back to
// log-only delivery.
func NewDispatcher(sender Sender, logger *zap.Logger) *Dispatcher {
	if sender == nil {
		sender = &logSender{logger: logger.Named("notification")}
	}
	return &Dispatcher{sender: sender, logger: logger}
}

// EventTypes implements shared.EventHandler
func (d *Dispatcher) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoicePaid,
		billing.EventTypePaymentSubmitted,
		billing.EventTypePaymentVerified,
		billing.EventTypePaymentRejected,
		billing.EventTypePaymentReversed,
		payables.EventTypeVendorInvoiceApproved,
		payables.EventTypeVendorInvoicePaid,
	}
}

// Handle implements shared.EventHandler
func (d *Dispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	var subject, body string

	switch e := event.(type) {
	case *billing.InvoiceCreatedEvent:
		subject = "Invoice " + e.InvoiceNumber + " issued"
		body = "A new invoice for " + e.Total.StringFixed(2) + " has been issued to your organization."
	case *billing.InvoicePaidEvent:
		subject = "Invoice " + e.InvoiceNumber + " paid"
		body = "Invoice " + e.InvoiceNumber + " is now fully paid."
	case *billing.PaymentSubmittedEvent:
		subject = "Payment received for verification"
		body = "A payment of " + e.Amount.StringFixed(2) + " was submitted and awaits verification."
	case *billing.PaymentVerifiedEvent:
		subject = "Payment verified"
		body = "Your payment of " + e.Amount.StringFixed(2) + " has been verified."
	case *billing.PaymentRejectedEvent:
		subject = "Payment rejected"
		body = "Your payment of " + e.Amount.StringFixed(2) + " was rejected. See the payment notes for details."
	case *billing.PaymentReversedEvent:
		subject = "Payment reversed"
		body = "A verified payment of " + e.Amount.StringFixed(2) + " has been reversed."
	case *payables.VendorInvoiceApprovedEvent:
		subject = "Vendor invoice " + e.InvoiceNumber + " approved"
		body = "Vendor invoice " + e.InvoiceNumber + " was approved and forwarded to accounting."
	case *payables.VendorInvoicePaidEvent:
		subject = "Vendor invoice " + e.InvoiceNumber + " paid"
		body = "Vendor invoice " + e.InvoiceNumber + " is fully paid."
	default:
		return nil
	}

	if err := d.sender.Send(ctx, subject, body); err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*Dispatcher)(nil)
