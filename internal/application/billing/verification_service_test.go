package billing

import (
	"context"
	"testing"
	"time"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerification_FullSettlementFlow(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)
	accountantID := uuid.New()

	// First instalment: 50.00 of 113.00
	first := f.submitPayment(t, created.ID, 50.00)

	result, err := f.verify.Approve(ctx, first.Payment.ID, accountantID, "matched wire ref")
	require.NoError(t, err)
	assert.Equal(t, "VERIFIED", result.Payment.Status)
	// Verified sum below total puts the invoice back to PENDING
	assert.Equal(t, "PENDING", result.Invoice.Status)
	assert.Equal(t, "63.00", result.Invoice.Outstanding)
	assert.Nil(t, result.Invoice.PaidDate)

	// Second instalment settles the remainder
	second := f.submitPayment(t, created.ID, 63.00)

	result, err = f.verify.Approve(ctx, second.Payment.ID, accountantID, "")
	require.NoError(t, err)
	assert.Equal(t, "PAID", result.Invoice.Status)
	assert.Equal(t, "0.00", result.Invoice.Outstanding)
	require.NotNil(t, result.Invoice.PaidDate)

	assert.Contains(t, f.pub.eventTypes(), "billing.payment.verified")
	assert.Contains(t, f.pub.eventTypes(), "billing.invoice.paid")
}

func TestVerification_ApproveRecheckedAgainstOutstanding(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)
	accountantID := uuid.New()

	// Both submissions fit the cap because pending amounts never reduce
	// the outstanding balance
	first := f.submitPayment(t, created.ID, 113.00)
	second := f.submitPayment(t, created.ID, 113.00)

	result, err := f.verify.Approve(ctx, first.Payment.ID, accountantID, "")
	require.NoError(t, err)
	require.Equal(t, "PAID", result.Invoice.Status)

	// Verifying the duplicate would push the verified sum past the total
	_, err = f.verify.Approve(ctx, second.Payment.ID, accountantID, "")
	require.Error(t, err)
	assert.Equal(t, "PAYMENT_EXCEEDS_BALANCE", domainCode(t, err))

	stored := f.state.payments[second.Payment.ID]
	assert.Equal(t, billing.PaymentStatusPendingVerification, stored.Status)
	invoice := f.state.invoices[created.ID]
	assert.Equal(t, "PAID", invoice.Status.String())
}

func TestVerification_ApprovePartialDuplicateBeyondRemainder(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)
	accountantID := uuid.New()

	first := f.submitPayment(t, created.ID, 100.00)
	second := f.submitPayment(t, created.ID, 100.00)

	_, err := f.verify.Approve(ctx, first.Payment.ID, accountantID, "")
	require.NoError(t, err)

	// 13.00 remains; the second 100.00 no longer fits
	_, err = f.verify.Approve(ctx, second.Payment.ID, accountantID, "")
	require.Error(t, err)
	assert.Equal(t, "PAYMENT_EXCEEDS_BALANCE", domainCode(t, err))
}

func TestVerification_PaymentNotFound(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.verify.Approve(context.Background(), uuid.New(), uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, "PAYMENT_NOT_FOUND", domainCode(t, err))
}

func TestVerification_ApproveAlreadyVerified(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)

	submitted := f.submitPayment(t, created.ID, 50.00)
	_, err := f.verify.Approve(ctx, submitted.Payment.ID, uuid.New(), "")
	require.NoError(t, err)

	_, err = f.verify.Approve(ctx, submitted.Payment.ID, uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestVerification_RejectRequiresNote(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)

	submitted := f.submitPayment(t, created.ID, 50.00)

	_, err := f.verify.Reject(ctx, submitted.Payment.ID, uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, "NOTE_REQUIRED", domainCode(t, err))
}

func TestVerification_RejectLeavesSiblingsAlone(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)

	first := f.submitPayment(t, created.ID, 50.00)
	second := f.submitPayment(t, created.ID, 30.00)

	result, err := f.verify.Reject(ctx, second.Payment.ID, uuid.New(), "reference does not match any wire")
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", result.Payment.Status)
	// The invoice reverts to PENDING unconditionally
	assert.Equal(t, "PENDING", result.Invoice.Status)

	sibling := f.state.payments[first.Payment.ID]
	assert.Equal(t, billing.PaymentStatusPendingVerification, sibling.Status)

	assert.Contains(t, f.pub.eventTypes(), "billing.payment.rejected")
}

func TestVerification_ReverseReopensPaidInvoice(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)
	accountantID := uuid.New()

	submitted := f.submitPayment(t, created.ID, 113.00)
	result, err := f.verify.Approve(ctx, submitted.Payment.ID, accountantID, "")
	require.NoError(t, err)
	require.Equal(t, "PAID", result.Invoice.Status)

	result, err = f.verify.Reverse(ctx, submitted.Payment.ID, accountantID, "duplicate of wire 88321")
	require.NoError(t, err)
	assert.Equal(t, "REVERSED", result.Payment.Status)
	require.NotNil(t, result.Payment.ReversedBy)
	assert.Equal(t, accountantID, *result.Payment.ReversedBy)
	require.NotNil(t, result.Payment.ReversedAt)
	assert.Equal(t, "PENDING", result.Invoice.Status)
	assert.Equal(t, "113.00", result.Invoice.Outstanding)
	assert.Nil(t, result.Invoice.PaidDate)

	assert.Contains(t, f.pub.eventTypes(), "billing.payment.reversed")
}

func TestVerification_ReverseRequiresReason(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)

	submitted := f.submitPayment(t, created.ID, 50.00)
	_, err := f.verify.Approve(ctx, submitted.Payment.ID, uuid.New(), "")
	require.NoError(t, err)

	_, err = f.verify.Reverse(ctx, submitted.Payment.ID, uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, "REASON_REQUIRED", domainCode(t, err))
}

func TestVerification_ReversalWindow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*billingFixture, uuid.UUID) {
		f := newBillingFixture(t)
		created := f.createInvoice(t)
		submitted := f.submitPayment(t, created.ID, 113.00)

		f.verify.WithClock(func() time.Time { return base })
		_, err := f.verify.Approve(ctx, submitted.Payment.ID, uuid.New(), "")
		require.NoError(t, err)
		return f, submitted.Payment.ID
	}

	t.Run("allowed at exactly the window boundary", func(t *testing.T) {
		f, paymentID := setup(t)
		f.verify.WithClock(func() time.Time { return base.Add(billing.ReversalWindow) })

		result, err := f.verify.Reverse(ctx, paymentID, uuid.New(), "clerical error")
		require.NoError(t, err)
		assert.Equal(t, "REVERSED", result.Payment.Status)
	})

	t.Run("rejected one hour past the window", func(t *testing.T) {
		f, paymentID := setup(t)
		f.verify.WithClock(func() time.Time { return base.Add(billing.ReversalWindow + time.Hour) })

		_, err := f.verify.Reverse(ctx, paymentID, uuid.New(), "clerical error")
		require.Error(t, err)
		assert.Equal(t, "REVERSAL_WINDOW_EXPIRED", domainCode(t, err))

		// The payment stays verified and the invoice stays paid
		stored := f.state.payments[paymentID]
		assert.Equal(t, billing.PaymentStatusVerified, stored.Status)
	})
}

func TestVerification_ResubmitAfterRejection(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	created := f.createInvoice(t)

	submitted := f.submitPayment(t, created.ID, 50.00)
	_, err := f.verify.Reject(ctx, submitted.Payment.ID, uuid.New(), "amount does not match the wire")
	require.NoError(t, err)

	// The organization can immediately submit a corrected payment
	result := f.submitPayment(t, created.ID, 113.00)
	assert.True(t, result.RemainingBalance.Equal(decimal.Zero))
	assert.True(t, result.IsFullPayment)
}
