package payables

import (
	"testing"
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVendorInvoice(t *testing.T) *VendorInvoice {
	t.Helper()
	vi, err := NewVendorInvoice("VINV-2026-00001", uuid.New(), "Northside Print Shop",
		"training manuals", valueobject.NewMoneyUSDFromFloat(500.00), uuid.New())
	require.NoError(t, err)
	return vi
}

func TestNewVendorInvoice(t *testing.T) {
	t.Run("starts awaiting admin approval", func(t *testing.T) {
		vi := newTestVendorInvoice(t)

		assert.Equal(t, VendorInvoiceStatusSubmittedToAdmin, vi.Status)
		assert.Nil(t, vi.ApprovedAt)
		assert.Len(t, vi.GetDomainEvents(), 1)
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		_, err := NewVendorInvoice("VINV-2026-00002", uuid.New(), "Vendor", "",
			valueobject.ZeroUSD(), uuid.New())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	})
}

func TestVendorInvoiceStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    VendorInvoiceStatus
		action  VendorInvoiceAction
		want    VendorInvoiceStatus
		wantErr bool
	}{
		{"admin approves submission", VendorInvoiceStatusSubmittedToAdmin, VendorActionAdminApprove, VendorInvoiceStatusSubmittedToAccounting, false},
		{"admin rejects submission", VendorInvoiceStatusSubmittedToAdmin, VendorActionAdminReject, VendorInvoiceStatusRejectedByAdmin, false},
		{"accountant rejects approved", VendorInvoiceStatusSubmittedToAccounting, VendorActionAccountantReject, VendorInvoiceStatusRejectedByAccountant, false},
		{"mark approved as paid", VendorInvoiceStatusSubmittedToAccounting, VendorActionMarkPaid, VendorInvoiceStatusPaid, false},
		{"admin cannot approve twice", VendorInvoiceStatusSubmittedToAccounting, VendorActionAdminApprove, "", true},
		{"accountant cannot reject before approval", VendorInvoiceStatusSubmittedToAdmin, VendorActionAccountantReject, "", true},
		{"paid invoice is immutable", VendorInvoiceStatusPaid, VendorActionMarkPaid, "", true},
		{"admin-rejected invoice is immutable", VendorInvoiceStatusRejectedByAdmin, VendorActionAdminApprove, "", true},
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

func TestVendorInvoiceAdminApprove(t *testing.T) {
	vi := newTestVendorInvoice(t)
	admin := uuid.New()
	now := time.Now()

	require.NoError(t, vi.AdminApprove(admin, now))

	assert.Equal(t, VendorInvoiceStatusSubmittedToAccounting, vi.Status)
	require.NotNil(t, vi.ApprovedBy)
	assert.Equal(t, admin, *vi.ApprovedBy)
	assert.True(t, vi.AcceptsPayment())

	assert.Error(t, vi.AdminApprove(admin, now))
}

func TestVendorInvoiceReject(t *testing.T) {
	t.Run("admin rejection requires a note", func(t *testing.T) {
		vi := newTestVendorInvoice(t)

		err := vi.AdminReject(uuid.New(), "", time.Now())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOTE_REQUIRED", domainErr.Code)
	})

	t.Run("admin rejects with note", func(t *testing.T) {
		vi := newTestVendorInvoice(t)

		require.NoError(t, vi.AdminReject(uuid.New(), "no purchase order on file", time.Now()))

		assert.Equal(t, VendorInvoiceStatusRejectedByAdmin, vi.Status)
		assert.Equal(t, "no purchase order on file", vi.RejectionNote)
		assert.True(t, vi.Status.IsTerminal())
	})

	t.Run("accountant rejects after admin approval", func(t *testing.T) {
		vi := newTestVendorInvoice(t)
		require.NoError(t, vi.AdminApprove(uuid.New(), time.Now()))

		require.NoError(t, vi.AccountantReject(uuid.New(), "amount disputed", time.Now()))

		assert.Equal(t, VendorInvoiceStatusRejectedByAccountant, vi.Status)
		assert.False(t, vi.AcceptsPayment())
	})
}

func TestVendorInvoiceApplyProcessedSum(t *testing.T) {
	now := time.Now()

	t.Run("partial sum keeps invoice payable", func(t *testing.T) {
		vi := newTestVendorInvoice(t)
		require.NoError(t, vi.AdminApprove(uuid.New(), now))

		require.NoError(t, vi.ApplyProcessedSum(decimal.NewFromFloat(200.00), now))

		assert.Equal(t, VendorInvoiceStatusSubmittedToAccounting, vi.Status)
		assert.Nil(t, vi.PaidAt)
		assert.True(t, vi.Outstanding(decimal.NewFromFloat(200.00)).Equal(decimal.NewFromFloat(300.00)))
	})

	t.Run("covering sum marks invoice paid", func(t *testing.T) {
		vi := newTestVendorInvoice(t)
		require.NoError(t, vi.AdminApprove(uuid.New(), now))

		require.NoError(t, vi.ApplyProcessedSum(decimal.NewFromFloat(500.00), now))

		assert.Equal(t, VendorInvoiceStatusPaid, vi.Status)
		assert.NotNil(t, vi.PaidAt)
		assert.False(t, vi.AcceptsPayment())
	})
}

func TestNewVendorPayment(t *testing.T) {
	t.Run("records a processed payment", func(t *testing.T) {
		p, err := NewVendorPayment(uuid.New(), valueobject.NewMoneyUSDFromFloat(200.00),
			"eft", "EFT-7781", time.Now(), uuid.New(), "first installment")

		require.NoError(t, err)
		assert.Equal(t, VendorPaymentStatusProcessed, p.Status)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewVendorPayment(uuid.New(), valueobject.ZeroUSD(),
			"eft", "", time.Now(), uuid.New(), "")

		assert.Error(t, err)
	})
}
