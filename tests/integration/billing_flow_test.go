package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	billingapp "github.com/coursebill/backend/internal/application/billing"
	payablesapp "github.com/coursebill/backend/internal/application/payables"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/coursebill/backend/internal/infrastructure/event"
	"github.com/coursebill/backend/internal/infrastructure/persistence"
	"github.com/coursebill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billingStack struct {
	db           *gorm.DB
	invoices     *billingapp.InvoiceService
	payments     *billingapp.PaymentService
	verification *billingapp.VerificationService
	vendor       *payablesapp.VendorInvoiceService
}

func newBillingStack(t *testing.T) *billingStack {
	t.Helper()

	tdb := NewTestDB(t)
	db := tdb.DB

	bus := event.NewInMemoryEventBus(zap.NewNop())

	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	courseRepo := persistence.NewGormCourseRepository(db)
	orgRepo := persistence.NewGormOrganizationRepository(db)
	priceRepo := persistence.NewGormPriceConfigRepository(db)
	vendorInvoiceRepo := persistence.NewGormVendorInvoiceRepository(db)
	vendorPaymentRepo := persistence.NewGormVendorPaymentRepository(db)

	billingUow := persistence.NewBillingUnitOfWork(db)
	payablesUow := persistence.NewPayablesUnitOfWork(db)

	return &billingStack{
		db: db,
		invoices: billingapp.NewInvoiceService(
			billingUow, invoiceRepo, paymentRepo, courseRepo, orgRepo, priceRepo,
			bus, billingapp.DefaultBillingPolicy(),
		),
		payments:     billingapp.NewPaymentService(billingUow, paymentRepo, bus),
		verification: billingapp.NewVerificationService(billingUow, bus),
		vendor: payablesapp.NewVendorInvoiceService(
			payablesUow, vendorInvoiceRepo, vendorPaymentRepo, bus,
		),
	}
}

// seedCompletedCourse inserts an organization, a completed course with
// attended enrollments, and an active price config. Returns the course ID.
func (s *billingStack) seedCompletedCourse(t *testing.T, attended int, pricePerStudent string) uuid.UUID {
	t.Helper()

	now := time.Now()

	org := &models.OrganizationModel{
		Name:         "Harbor Logistics",
		ContactName:  "Dana Reyes",
		ContactEmail: "dana@harborlogistics.test",
		Active:       true,
	}
	org.ID = uuid.New()
	org.Version = 1
	org.CreatedAt = now
	org.UpdatedAt = now
	require.NoError(t, s.db.Create(org).Error)

	completedAt := now.Add(-7 * 24 * time.Hour)
	course := &models.CourseModel{
		CourseNumber:   "CRS-2026-" + uuid.NewString()[:8],
		OrganizationID: org.ID,
		CourseType:     "FORKLIFT_CERT",
		Title:          "Forklift Certification",
		Status:         training.CourseStatusCompleted,
		CompletedAt:    &completedAt,
	}
	course.ID = uuid.New()
	course.Version = 1
	course.CreatedAt = now
	course.UpdatedAt = now
	require.NoError(t, s.db.Create(course).Error)

	for i := 0; i < attended; i++ {
		enr := &models.EnrollmentModel{
			CourseID:    course.ID,
			StudentName: fmt.Sprintf("Student %d", i+1),
			Attended:    true,
		}
		enr.ID = uuid.New()
		enr.CreatedAt = now
		enr.UpdatedAt = now
		require.NoError(t, s.db.Create(enr).Error)
	}

	price := &models.PriceConfigModel{
		OrganizationID:  org.ID,
		CourseType:      "FORKLIFT_CERT",
		PricePerStudent: decimal.RequireFromString(pricePerStudent),
		Active:          true,
	}
	price.ID = uuid.New()
	price.Version = 1
	price.CreatedAt = now
	price.UpdatedAt = now
	require.NoError(t, s.db.Create(price).Error)

	return course.ID
}

func TestBillingFlow_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newBillingStack(t)
	ctx := context.Background()
	courseID := stack.seedCompletedCourse(t, 2, "50.00")

	orgActor := uuid.New()
	accountant := uuid.New()

	readiness, err := stack.invoices.ValidateReadiness(ctx, courseID)
	require.NoError(t, err)
	require.True(t, readiness.IsValid, "errors: %v", readiness.Errors)
	assert.Equal(t, 2, readiness.AttendedCount)
	assert.Equal(t, "100.00", readiness.EstimatedAmount.StringFixed(2))

	inv, err := stack.invoices.CreateInvoice(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", inv.BaseCost.StringFixed(2))
	assert.Equal(t, "13.00", inv.TaxAmount.StringFixed(2))
	assert.Equal(t, "113.00", inv.Total.StringFixed(2))
	assert.Equal(t, "PENDING", inv.Status)

	_, err = stack.invoices.PostInvoice(ctx, inv.ID)
	require.NoError(t, err)

	// Partial payment, verified
	partial, err := stack.payments.SubmitPayment(ctx, billingapp.SubmitPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.RequireFromString("50.00"),
		Method:    "BANK_TRANSFER",
		ActorID:   orgActor,
	})
	require.NoError(t, err)
	assert.False(t, partial.IsFullPayment)

	approved, err := stack.verification.Approve(ctx, partial.Payment.ID, accountant, "")
	require.NoError(t, err)
	assert.Equal(t, "VERIFIED", approved.Payment.Status)
	assert.Equal(t, "PENDING", approved.Invoice.Status)
	assert.Equal(t, "63.00", approved.Invoice.Outstanding)

	// Remainder, verified, invoice settles
	rest, err := stack.payments.SubmitPayment(ctx, billingapp.SubmitPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.RequireFromString("63.00"),
		Method:    "BANK_TRANSFER",
		ActorID:   orgActor,
	})
	require.NoError(t, err)

	settled, err := stack.verification.Approve(ctx, rest.Payment.ID, accountant, "")
	require.NoError(t, err)
	assert.Equal(t, "PAID", settled.Invoice.Status)
	assert.Equal(t, "0.00", settled.Invoice.Outstanding)
	require.NotNil(t, settled.Invoice.PaidDate)

	// Reversing a verified payment reopens the paid invoice and clears
	// the paid date in storage
	reversed, err := stack.verification.Reverse(ctx, rest.Payment.ID, accountant, "duplicate wire")
	require.NoError(t, err)
	assert.Equal(t, "REVERSED", reversed.Payment.Status)
	assert.Equal(t, "PENDING", reversed.Invoice.Status)
	assert.Nil(t, reversed.Invoice.PaidDate)

	reloaded, err := stack.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", reloaded.Status)
	assert.Nil(t, reloaded.PaidDate)
	assert.Equal(t, "63.00", reloaded.Outstanding.StringFixed(2))
}

func TestBillingFlow_OneInvoicePerCourse(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newBillingStack(t)
	ctx := context.Background()
	courseID := stack.seedCompletedCourse(t, 3, "40.00")

	first, err := stack.invoices.CreateInvoice(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", first.BaseCost.StringFixed(2))

	_, err = stack.invoices.CreateInvoice(ctx, courseID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_INVOICED", domainErr.Code)
}

func TestVendorPayablesFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newBillingStack(t)
	ctx := context.Background()

	admin := uuid.New()
	accountant := uuid.New()

	submitted, err := stack.vendor.Submit(ctx, payablesapp.SubmitVendorInvoiceRequest{
		VendorID:    uuid.New(),
		VendorName:  "Northside Print Shop",
		Description: "Course workbooks and certificates",
		Total:       decimal.RequireFromString("500.00"),
		ActorID:     admin,
	})
	require.NoError(t, err)
	assert.Equal(t, "SUBMITTED_TO_ADMIN", submitted.Status)

	approvedInv, err := stack.vendor.AdminApprove(ctx, submitted.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "SUBMITTED_TO_ACCOUNTING", approvedInv.Status)

	_, err = stack.vendor.RecordPayment(ctx, payablesapp.RecordVendorPaymentRequest{
		VendorInvoiceID: submitted.ID,
		Amount:          decimal.RequireFromString("200.00"),
		Method:          "ACH",
		ReferenceNumber: "ACH-5521",
		ActorID:         accountant,
	})
	require.NoError(t, err)

	final, err := stack.vendor.RecordPayment(ctx, payablesapp.RecordVendorPaymentRequest{
		VendorInvoiceID: submitted.ID,
		Amount:          decimal.RequireFromString("300.00"),
		Method:          "ACH",
		ReferenceNumber: "ACH-5540",
		ActorID:         accountant,
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", final.Invoice.Status)
	assert.Equal(t, "0.00", final.Invoice.Outstanding.StringFixed(2))
	require.NotNil(t, final.Invoice.PaidAt)

	payments, err := stack.vendor.ListVendorPayments(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}
