package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type billingFixture struct {
	state    *memState
	pub      *capturingPublisher
	invoices *InvoiceService
	payments *PaymentService
	verify   *VerificationService
	orgID    uuid.UUID
	courseID uuid.UUID
}

// newBillingFixture seeds one completed course with two attended
// students priced at 50.00 per head: base 100.00, tax 13.00, total 113.00.
func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	state := newMemState()
	uow := &memUOW{state: state}
	pub := &capturingPublisher{}

	org := &training.Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              "Harbor Logistics",
		ContactName:       "Dana Reyes",
		ContactEmail:      "billing@harborlogistics.example",
		Active:            true,
	}
	state.orgs[org.ID] = org

	completedAt := time.Now().AddDate(0, 0, -7)
	course := &training.Course{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CourseNumber:      "CRS-2026-0001",
		OrganizationID:    org.ID,
		CourseType:        "FORKLIFT_CERT",
		Title:             "Forklift Certification",
		Status:            training.CourseStatusCompleted,
		CompletedAt:       &completedAt,
	}
	state.courses[course.ID] = course
	state.attended[course.ID] = 2

	price := &training.PriceConfig{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrganizationID:    org.ID,
		CourseType:        "FORKLIFT_CERT",
		PricePerStudent:   valueobject.NewMoneyUSDFromFloat(50.00),
		Active:            true,
	}
	state.prices[priceKey(org.ID, "FORKLIFT_CERT")] = price

	invoiceRepo := &memInvoiceRepo{state: state}
	paymentRepo := &memPaymentRepo{state: state}
	courseRepo := &memCourseRepo{state: state}

	return &billingFixture{
		state: state,
		pub:   pub,
		invoices: NewInvoiceService(uow, invoiceRepo, paymentRepo, courseRepo,
			&memOrgRepo{state: state}, &memPriceRepo{state: state}, pub, DefaultBillingPolicy()),
		payments: NewPaymentService(uow, paymentRepo, pub),
		verify:   NewVerificationService(uow, pub),
		orgID:    org.ID,
		courseID: course.ID,
	}
}

func (f *billingFixture) createInvoice(t *testing.T) *InvoiceResponse {
	t.Helper()
	resp, err := f.invoices.CreateInvoice(context.Background(), f.courseID)
	require.NoError(t, err)
	return resp
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	return domainErr.Code
}

func TestValidateReadiness_ReadyCourse(t *testing.T) {
	f := newBillingFixture(t)

	resp, err := f.invoices.ValidateReadiness(context.Background(), f.courseID)
	require.NoError(t, err)

	assert.True(t, resp.IsValid)
	assert.Empty(t, resp.Errors)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 2, resp.AttendedCount)
	assert.True(t, resp.EstimatedAmount.Equal(decimal.NewFromFloat(100.00)))
}

func TestValidateReadiness_ReportsAllProblemsAtOnce(t *testing.T) {
	f := newBillingFixture(t)

	// No attendance and no price config
	f.state.attended[f.courseID] = 0
	delete(f.state.prices, priceKey(f.orgID, "FORKLIFT_CERT"))

	resp, err := f.invoices.ValidateReadiness(context.Background(), f.courseID)
	require.NoError(t, err)

	assert.False(t, resp.IsValid)
	assert.Len(t, resp.Errors, 2)
	assert.True(t, resp.EstimatedAmount.IsZero())
}

func TestValidateReadiness_InactiveOrganizationWarnsOnly(t *testing.T) {
	f := newBillingFixture(t)
	f.state.orgs[f.orgID].Active = false

	resp, err := f.invoices.ValidateReadiness(context.Background(), f.courseID)
	require.NoError(t, err)

	assert.True(t, resp.IsValid)
	assert.Len(t, resp.Warnings, 1)
}

func TestValidateReadiness_CourseNotFound(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.invoices.ValidateReadiness(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, "COURSE_NOT_FOUND", domainCode(t, err))
}

func TestCreateInvoice_Success(t *testing.T) {
	f := newBillingFixture(t)

	resp := f.createInvoice(t)

	assert.Equal(t, fmt.Sprintf("INV-%d-00001", time.Now().Year()), resp.InvoiceNumber)
	assert.True(t, resp.BaseCost.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, resp.TaxAmount.Equal(decimal.NewFromFloat(13.00)))
	assert.True(t, resp.Total.Equal(decimal.NewFromFloat(113.00)))
	assert.Equal(t, "PENDING", resp.Status)
	assert.True(t, resp.Outstanding.Equal(decimal.NewFromFloat(113.00)))
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), resp.DueDate, time.Minute)

	course := f.state.courses[f.courseID]
	assert.True(t, course.Invoiced)
	assert.True(t, course.ReadyForBilling)

	assert.Contains(t, f.pub.eventTypes(), "billing.invoice.created")
}

func TestCreateInvoice_SecondAttemptRejected(t *testing.T) {
	f := newBillingFixture(t)
	f.createInvoice(t)

	_, err := f.invoices.CreateInvoice(context.Background(), f.courseID)
	require.Error(t, err)
	assert.Equal(t, "ALREADY_INVOICED", domainCode(t, err))
}

func TestCreateInvoice_NotReadyRollsBack(t *testing.T) {
	f := newBillingFixture(t)
	f.state.attended[f.courseID] = 0

	_, err := f.invoices.CreateInvoice(context.Background(), f.courseID)
	require.Error(t, err)
	assert.Equal(t, "READINESS_CHECK_FAILED", domainCode(t, err))

	assert.False(t, f.state.courses[f.courseID].Invoiced)
	assert.Empty(t, f.state.invoices)
	assert.Empty(t, f.pub.eventTypes())
}

func TestCreateInvoice_TaxRoundsToCents(t *testing.T) {
	f := newBillingFixture(t)
	f.state.prices[priceKey(f.orgID, "FORKLIFT_CERT")].PricePerStudent =
		valueobject.NewMoneyUSDFromFloat(33.33)
	f.state.attended[f.courseID] = 3

	resp := f.createInvoice(t)

	// 99.99 * 0.13 = 12.9987, rounded half-up to 13.00
	assert.True(t, resp.BaseCost.Equal(decimal.NewFromFloat(99.99)))
	assert.True(t, resp.TaxAmount.Equal(decimal.NewFromFloat(13.00)))
}

func TestPostInvoice(t *testing.T) {
	f := newBillingFixture(t)
	created := f.createInvoice(t)

	posted, err := f.invoices.PostInvoice(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, posted.PostedToOrg)
}

func TestVoidInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("voids an unpaid invoice", func(t *testing.T) {
		f := newBillingFixture(t)
		created := f.createInvoice(t)

		voided, err := f.invoices.VoidInvoice(ctx, created.ID, "course billed under wrong contract")
		require.NoError(t, err)
		assert.Equal(t, "VOID", voided.Status)
		assert.Contains(t, f.pub.eventTypes(), "billing.invoice.voided")
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newBillingFixture(t)
		created := f.createInvoice(t)

		_, err := f.invoices.VoidInvoice(ctx, created.ID, "")
		require.Error(t, err)
		assert.Equal(t, "INVALID_REASON", domainCode(t, err))
	})

	t.Run("blocked while payments await verification", func(t *testing.T) {
		f := newBillingFixture(t)
		created := f.createInvoice(t)

		_, err := f.payments.SubmitPayment(ctx, SubmitPaymentRequest{
			InvoiceID: created.ID,
			Amount:    decimal.NewFromFloat(50.00),
			Method:    "BANK_TRANSFER",
			ActorID:   uuid.New(),
		})
		require.NoError(t, err)

		_, err = f.invoices.VoidInvoice(ctx, created.ID, "duplicate")
		require.Error(t, err)
		assert.Equal(t, "PAYMENTS_PENDING", domainCode(t, err))
	})
}

func TestListInvoices(t *testing.T) {
	f := newBillingFixture(t)
	f.createInvoice(t)

	responses, total, err := f.invoices.ListInvoices(context.Background(), InvoiceListFilter{
		OrganizationID: &f.orgID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, responses, 1)
	assert.Equal(t, string(billing.PaymentStatusLabelPending), responses[0].PaymentStatus)
}

func TestListInvoices_UnknownStatus(t *testing.T) {
	f := newBillingFixture(t)

	_, _, err := f.invoices.ListInvoices(context.Background(), InvoiceListFilter{Status: "SETTLED"})
	require.Error(t, err)
	assert.Equal(t, "INVALID_STATUS", domainCode(t, err))
}
