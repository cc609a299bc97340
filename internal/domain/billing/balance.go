package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatusLabel summarizes where an invoice stands against its
// verified payments and due date
type PaymentStatusLabel string

const (
	PaymentStatusLabelPaid    PaymentStatusLabel = "PAID"
	PaymentStatusLabelOverdue PaymentStatusLabel = "OVERDUE"
	PaymentStatusLabelPending PaymentStatusLabel = "PENDING"
)

// Balance is the computed financial position of one invoice. Only
// verified payments count toward the outstanding amount; pending ones
// are tracked separately and never reduce what is owed.
type Balance struct {
	Total         decimal.Decimal    `json:"total"`
	VerifiedSum   decimal.Decimal    `json:"verified_sum"`
	PendingSum    decimal.Decimal    `json:"pending_sum"`
	Outstanding   decimal.Decimal    `json:"outstanding"`
	FullyPaid     bool               `json:"fully_paid"`
	PaymentStatus PaymentStatusLabel `json:"payment_status"`
}

// ComputeBalance derives the balance of an invoice from its total, its
// payments and the clock. It is the single source of truth for
// outstanding amounts; every service path recomputes rather than
// caching the result.
func ComputeBalance(total decimal.Decimal, payments []*Payment, dueDate time.Time, now time.Time) Balance {
	verified := decimal.Zero
	pending := decimal.Zero
	for _, p := range payments {
		switch p.Status {
		case PaymentStatusVerified:
			verified = verified.Add(p.Amount)
		case PaymentStatusPendingVerification:
			pending = pending.Add(p.Amount)
		}
	}

	outstanding := total.Sub(verified)
	fullyPaid := verified.GreaterThanOrEqual(total)

	var label PaymentStatusLabel
	switch {
	case fullyPaid:
		label = PaymentStatusLabelPaid
	case now.After(dueDate):
		label = PaymentStatusLabelOverdue
	default:
		label = PaymentStatusLabelPending
	}

	return Balance{
		Total:         total,
		VerifiedSum:   verified,
		PendingSum:    pending,
		Outstanding:   outstanding,
		FullyPaid:     fullyPaid,
		PaymentStatus: label,
	}
}

// CanAccept reports whether a new payment of the given amount fits
// inside the outstanding balance. Only verified payments cap the
// amount; pending payments are deliberately excluded so a rejected
// sibling never blocks a legitimate submission.
func (b Balance) CanAccept(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(b.Outstanding)
}

// RemainingAfter returns the outstanding balance left if a payment of
// the given amount were verified, floored at zero
func (b Balance) RemainingAfter(amount decimal.Decimal) decimal.Decimal {
	remaining := b.Outstanding.Sub(amount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// FullPaymentHint reports whether verified plus pending plus the new
// amount would cover the total. Display-only: it never gates a state
// change, since pending payments may still be rejected.
func (b Balance) FullPaymentHint(amount decimal.Decimal) bool {
	return b.VerifiedSum.Add(b.PendingSum).Add(amount).GreaterThanOrEqual(b.Total)
}
