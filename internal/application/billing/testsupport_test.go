package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coursebill/backend/internal/domain/billing"
	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/training"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState is an in-memory store shared by the fake repositories. Reads
// hand out clones and writes store clones, so aggregates held by the
// service under test never alias stored state. Execute snapshots the
// maps up front and restores them when fn fails, mirroring transaction
// rollback.
type memState struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*billing.Invoice
	payments map[uuid.UUID]*billing.Payment
	courses  map[uuid.UUID]*training.Course
	orgs     map[uuid.UUID]*training.Organization
	prices   map[string]*training.PriceConfig
	attended map[uuid.UUID]int
}

func newMemState() *memState {
	return &memState{
		invoices: make(map[uuid.UUID]*billing.Invoice),
		payments: make(map[uuid.UUID]*billing.Payment),
		courses:  make(map[uuid.UUID]*training.Course),
		orgs:     make(map[uuid.UUID]*training.Organization),
		prices:   make(map[string]*training.PriceConfig),
		attended: make(map[uuid.UUID]int),
	}
}

func priceKey(orgID uuid.UUID, courseType string) string {
	return orgID.String() + "/" + courseType
}

func cloneInvoice(inv *billing.Invoice) *billing.Invoice {
	c := *inv
	return &c
}

func clonePayment(p *billing.Payment) *billing.Payment {
	c := *p
	c.Notes = append(billing.PaymentNotes(nil), p.Notes...)
	return &c
}

func cloneCourse(course *training.Course) *training.Course {
	c := *course
	return &c
}

// memUOW implements billing.UnitOfWork over memState
type memUOW struct {
	state *memState
}

func (u *memUOW) Execute(_ context.Context, fn func(tx billing.TxRepos) error) error {
	u.state.mu.Lock()
	defer u.state.mu.Unlock()

	snapInvoices := make(map[uuid.UUID]*billing.Invoice, len(u.state.invoices))
	for k, v := range u.state.invoices {
		snapInvoices[k] = v
	}
	snapPayments := make(map[uuid.UUID]*billing.Payment, len(u.state.payments))
	for k, v := range u.state.payments {
		snapPayments[k] = v
	}
	snapCourses := make(map[uuid.UUID]*training.Course, len(u.state.courses))
	for k, v := range u.state.courses {
		snapCourses[k] = v
	}

	if err := fn(&memTxRepos{state: u.state}); err != nil {
		u.state.invoices = snapInvoices
		u.state.payments = snapPayments
		u.state.courses = snapCourses
		return err
	}
	return nil
}

type memTxRepos struct {
	state *memState
}

func (r *memTxRepos) Invoices() billing.InvoiceRepository {
	return &memInvoiceRepo{state: r.state}
}

func (r *memTxRepos) Payments() billing.PaymentRepository {
	return &memPaymentRepo{state: r.state}
}

func (r *memTxRepos) Courses() training.CourseRepository {
	return &memCourseRepo{state: r.state}
}

type memInvoiceRepo struct {
	state *memState
}

func (r *memInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Invoice, error) {
	inv, ok := r.state.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (r *memInvoiceRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *memInvoiceRepo) FindByCourseID(_ context.Context, courseID uuid.UUID) (*billing.Invoice, error) {
	for _, inv := range r.state.invoices {
		if inv.CourseID == courseID {
			return cloneInvoice(inv), nil
		}
	}
	return nil, nil
}

func (r *memInvoiceRepo) FindAll(_ context.Context, filter billing.InvoiceFilter) ([]*billing.Invoice, error) {
	var out []*billing.Invoice
	for _, inv := range r.state.invoices {
		if r.matches(inv, filter) {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) Count(_ context.Context, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	for _, inv := range r.state.invoices {
		if r.matches(inv, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memInvoiceRepo) matches(inv *billing.Invoice, filter billing.InvoiceFilter) bool {
	if filter.OrganizationID != nil && inv.OrganizationID != *filter.OrganizationID {
		return false
	}
	if filter.Status != nil && inv.Status != *filter.Status {
		return false
	}
	if filter.PostedOnly && !inv.PostedToOrg {
		return false
	}
	return true
}

func (r *memInvoiceRepo) NextInvoiceNumber(_ context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	max := 0
	for _, inv := range r.state.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			var n int
			fmt.Sscanf(strings.TrimPrefix(inv.InvoiceNumber, prefix), "%d", &n)
			if n > max {
				max = n
			}
		}
	}
	return fmt.Sprintf("%s%05d", prefix, max+1), nil
}

func (r *memInvoiceRepo) Save(_ context.Context, invoice *billing.Invoice) error {
	r.state.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *memInvoiceRepo) SaveWithLock(_ context.Context, invoice *billing.Invoice) error {
	stored, ok := r.state.invoices[invoice.ID]
	if !ok || stored.Version != invoice.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.state.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

type memPaymentRepo struct {
	state *memState
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	p, ok := r.state.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *memPaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *memPaymentRepo) FindByInvoiceID(_ context.Context, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	var out []*billing.Payment
	for _, p := range r.state.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *memPaymentRepo) SumByStatus(_ context.Context, invoiceID uuid.UUID, status billing.PaymentStatus) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.state.payments {
		if p.InvoiceID == invoiceID && p.Status == status {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memPaymentRepo) Save(_ context.Context, payment *billing.Payment) error {
	r.state.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (r *memPaymentRepo) SaveWithLock(_ context.Context, payment *billing.Payment) error {
	stored, ok := r.state.payments[payment.ID]
	if !ok || stored.Version != payment.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.state.payments[payment.ID] = clonePayment(payment)
	return nil
}

type memCourseRepo struct {
	state *memState
}

func (r *memCourseRepo) FindByID(_ context.Context, id uuid.UUID) (*training.Course, error) {
	c, ok := r.state.courses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneCourse(c), nil
}

func (r *memCourseRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*training.Course, error) {
	return r.FindByID(ctx, id)
}

func (r *memCourseRepo) CountAttended(_ context.Context, courseID uuid.UUID) (int, error) {
	return r.state.attended[courseID], nil
}

func (r *memCourseRepo) Save(_ context.Context, course *training.Course) error {
	r.state.courses[course.ID] = cloneCourse(course)
	return nil
}

func (r *memCourseRepo) SaveWithLock(_ context.Context, course *training.Course) error {
	stored, ok := r.state.courses[course.ID]
	if !ok || stored.Version != course.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.state.courses[course.ID] = cloneCourse(course)
	return nil
}

type memOrgRepo struct {
	state *memState
}

func (r *memOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*training.Organization, error) {
	org, ok := r.state.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *org
	return &c, nil
}

type memPriceRepo struct {
	state *memState
}

func (r *memPriceRepo) FindActive(_ context.Context, orgID uuid.UUID, courseType string) (*training.PriceConfig, error) {
	price, ok := r.state.prices[priceKey(orgID, courseType)]
	if !ok {
		return nil, nil
	}
	c := *price
	return &c, nil
}

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}
