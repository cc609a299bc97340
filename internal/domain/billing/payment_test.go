package billing

import (
	"testing"
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	p, err := NewPayment(uuid.New(), valueobject.NewMoneyUSDFromFloat(50.00),
		"bank_transfer", "TRX-001", time.Time{}, uuid.New())
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	t.Run("creates payment pending verification", func(t *testing.T) {
		p := newTestPayment(t)

		assert.Equal(t, PaymentStatusPendingVerification, p.Status)
		assert.Nil(t, p.VerifiedAt)
		assert.Empty(t, p.Notes)
		assert.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, p.CreatedAt, p.PaymentDate)
	})

	t.Run("keeps an explicit payment date", func(t *testing.T) {
		paid := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		p, err := NewPayment(uuid.New(), valueobject.NewMoneyUSDFromFloat(25),
			"bank_transfer", "TRX-002", paid, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, paid, p.PaymentDate)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), valueobject.ZeroUSD(), "cheque", "", time.Time{}, uuid.New())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	})

	t.Run("rejects empty method", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), valueobject.NewMoneyUSDFromFloat(10), "", "", time.Time{}, uuid.New())

		assert.Error(t, err)
	})
}

func TestPaymentStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		action  PaymentAction
		want    PaymentStatus
		wantErr bool
	}{
		{"approve pending", PaymentStatusPendingVerification, PaymentActionApprove, PaymentStatusVerified, false},
		{"reject pending", PaymentStatusPendingVerification, PaymentActionReject, PaymentStatusRejected, false},
		{"reverse pending", PaymentStatusPendingVerification, PaymentActionReverse, "", true},
		{"reverse verified", PaymentStatusVerified, PaymentActionReverse, PaymentStatusReversed, false},
		{"approve verified", PaymentStatusVerified, PaymentActionApprove, "", true},
		{"approve rejected", PaymentStatusRejected, PaymentActionApprove, "", true},
		{"reverse reversed", PaymentStatusReversed, PaymentActionReverse, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Transition(tt.action)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPaymentVerify(t *testing.T) {
	p := newTestPayment(t)
	accountant := uuid.New()
	now := time.Now()

	err := p.Verify(accountant, "matched bank statement", now)

	require.NoError(t, err)
	assert.Equal(t, PaymentStatusVerified, p.Status)
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, accountant, *p.VerifiedBy)
	require.NotNil(t, p.VerifiedAt)
	assert.Equal(t, now, *p.VerifiedAt)
	require.Len(t, p.Notes, 1)
	assert.Equal(t, "matched bank statement", p.Notes[0].Text)

	// double verification is not allowed
	assert.Error(t, p.Verify(accountant, "again", now))
}

func TestPaymentReject(t *testing.T) {
	t.Run("rejects with mandatory note", func(t *testing.T) {
		p := newTestPayment(t)
		accountant := uuid.New()

		err := p.Reject(accountant, "reference number does not match", time.Now())

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusRejected, p.Status)
		require.Len(t, p.Notes, 1)
		assert.Equal(t, accountant, p.Notes[0].ActorID)
	})

	t.Run("note is required", func(t *testing.T) {
		p := newTestPayment(t)

		err := p.Reject(uuid.New(), "", time.Now())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOTE_REQUIRED", domainErr.Code)
	})

	t.Run("cannot reject verified payment", func(t *testing.T) {
		p := newTestPayment(t)
		require.NoError(t, p.Verify(uuid.New(), "", time.Now()))

		err := p.Reject(uuid.New(), "too late", time.Now())

		assert.Error(t, err)
	})
}

func TestPaymentReverse(t *testing.T) {
	verifiedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	verified := func(t *testing.T) *Payment {
		p := newTestPayment(t)
		require.NoError(t, p.Verify(uuid.New(), "", verifiedAt))
		return p
	}

	t.Run("reverses within the window", func(t *testing.T) {
		p := verified(t)
		actorID := uuid.New()
		now := verifiedAt.Add(24 * time.Hour)

		err := p.Reverse(actorID, "bank bounced the transfer", now)

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusReversed, p.Status)
		require.NotNil(t, p.ReversedAt)
		assert.Equal(t, now, *p.ReversedAt)
		require.NotNil(t, p.ReversedBy)
		assert.Equal(t, actorID, *p.ReversedBy)
	})

	t.Run("succeeds at exactly the window boundary", func(t *testing.T) {
		p := verified(t)

		err := p.Reverse(uuid.New(), "boundary case", verifiedAt.Add(ReversalWindow))

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusReversed, p.Status)
	})

	t.Run("fails one hour past the window", func(t *testing.T) {
		p := verified(t)

		err := p.Reverse(uuid.New(), "too late", verifiedAt.Add(ReversalWindow+time.Hour))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "REVERSAL_WINDOW_EXPIRED", domainErr.Code)
		assert.Equal(t, PaymentStatusVerified, p.Status)
	})

	t.Run("requires a reason", func(t *testing.T) {
		p := verified(t)

		err := p.Reverse(uuid.New(), "", verifiedAt.Add(time.Hour))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "REASON_REQUIRED", domainErr.Code)
	})

	t.Run("cannot reverse a pending payment", func(t *testing.T) {
		p := newTestPayment(t)

		err := p.Reverse(uuid.New(), "not yet verified", time.Now())

		assert.Error(t, err)
	})
}

func TestPaymentNotesScan(t *testing.T) {
	original := PaymentNotes{
		{At: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), ActorID: uuid.New(), Text: "verified"},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned PaymentNotes
	require.NoError(t, scanned.Scan(value))
	require.Len(t, scanned, 1)
	assert.Equal(t, original[0].Text, scanned[0].Text)
	assert.Equal(t, original[0].ActorID, scanned[0].ActorID)

	var empty PaymentNotes
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}
