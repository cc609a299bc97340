package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursebill/backend/internal/domain/shared"
	"github.com/coursebill/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReversalWindow is how long after verification a payment may still be
// reversed. A reversal at exactly the boundary succeeds.
const ReversalWindow = 48 * time.Hour

// PaymentStatus represents the verification status of a payment
type PaymentStatus string

const (
	PaymentStatusPendingVerification PaymentStatus = "PENDING_VERIFICATION"
	PaymentStatusVerified            PaymentStatus = "VERIFIED"
	PaymentStatusRejected            PaymentStatus = "REJECTED"
	PaymentStatusReversed            PaymentStatus = "REVERSED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPendingVerification, PaymentStatusVerified,
		PaymentStatusRejected, PaymentStatusReversed:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentAction is an accountant action applied to a payment
type PaymentAction string

const (
	PaymentActionApprove PaymentAction = "approve"
	PaymentActionReject  PaymentAction = "reject"
	PaymentActionReverse PaymentAction = "reverse"
)

// IsValid checks if the action is a recognized PaymentAction
func (a PaymentAction) IsValid() bool {
	switch a {
	case PaymentActionApprove, PaymentActionReject, PaymentActionReverse:
		return true
	}
	return false
}

// paymentTransitions is the single source of truth for payment status
// changes. Anything not listed here is an invalid transition.
var paymentTransitions = map[PaymentStatus]map[PaymentAction]PaymentStatus{
	PaymentStatusPendingVerification: {
		PaymentActionApprove: PaymentStatusVerified,
		PaymentActionReject:  PaymentStatusRejected,
	},
	PaymentStatusVerified: {
		PaymentActionReverse: PaymentStatusReversed,
	},
}

// Transition returns the status reached by applying action, or an error
// when the transition is not allowed from the current status
func (s PaymentStatus) Transition(action PaymentAction) (PaymentStatus, error) {
	if next, ok := paymentTransitions[s][action]; ok {
		return next, nil
	}
	return s, shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot %s payment in %s status", action, s))
}

// PaymentNote is an audit entry attached to a payment by an accountant
type PaymentNote struct {
	At      time.Time `json:"at"`
	ActorID uuid.UUID `json:"actor_id"`
	Text    string    `json:"text"`
}

// PaymentNotes is stored as a JSONB column
type PaymentNotes []PaymentNote

// Value implements driver.Valuer for JSONB storage
func (n PaymentNotes) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSONB storage
func (n *PaymentNotes) Scan(value interface{}) error {
	if value == nil {
		*n = PaymentNotes{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentNotes", value)
	}
	return json.Unmarshal(data, n)
}

// Payment represents one payment submitted against an invoice. Payments
// are immutable in amount once created; only their status and audit
// trail change, and only through accountant actions.
type Payment struct {
	shared.BaseAggregateRoot
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number"`
	Status          PaymentStatus   `json:"status"`
	PaymentDate     time.Time       `json:"payment_date"`
	SubmittedBy     uuid.UUID       `json:"submitted_by"`
	VerifiedBy      *uuid.UUID      `json:"verified_by"`
	VerifiedAt      *time.Time      `json:"verified_at"`
	ReversedBy      *uuid.UUID      `json:"reversed_by"`
	ReversedAt      *time.Time      `json:"reversed_at"`
	Notes           PaymentNotes    `json:"notes"`
}

// NewPayment creates a payment awaiting verification. paymentDate is
// the date the payer claims the funds moved; a zero value means the
// submission time.
func NewPayment(
	invoiceID uuid.UUID,
	amount valueobject.Money,
	method string,
	referenceNumber string,
	paymentDate time.Time,
	submittedBy uuid.UUID,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if method == "" {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is required")
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         invoiceID,
		Amount:            amount.Amount(),
		Method:            method,
		ReferenceNumber:   referenceNumber,
		Status:            PaymentStatusPendingVerification,
		PaymentDate:       paymentDate,
		SubmittedBy:       submittedBy,
		Notes:             PaymentNotes{},
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = p.CreatedAt
	}

	p.AddDomainEvent(NewPaymentSubmittedEvent(p))

	return p, nil
}

// AmountMoney returns the payment amount as Money
func (p *Payment) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

func (p *Payment) addNote(actorID uuid.UUID, text string, at time.Time) {
	if text == "" {
		return
	}
	p.Notes = append(p.Notes, PaymentNote{At: at, ActorID: actorID, Text: text})
}

// Verify marks the payment as verified by an accountant
func (p *Payment) Verify(actorID uuid.UUID, note string, now time.Time) error {
	next, err := p.Status.Transition(PaymentActionApprove)
	if err != nil {
		return err
	}
	p.Status = next
	p.VerifiedBy = &actorID
	verifiedAt := now
	p.VerifiedAt = &verifiedAt
	p.addNote(actorID, note, now)
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentVerifiedEvent(p))
	return nil
}

// Reject marks the payment as rejected. A note explaining the rejection
// is mandatory.
func (p *Payment) Reject(actorID uuid.UUID, note string, now time.Time) error {
	if note == "" {
		return shared.NewDomainError("NOTE_REQUIRED", "A note is required when rejecting a payment")
	}
	next, err := p.Status.Transition(PaymentActionReject)
	if err != nil {
		return err
	}
	p.Status = next
	p.addNote(actorID, note, now)
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentRejectedEvent(p))
	return nil
}

// Reverse undoes a verified payment. Allowed only within ReversalWindow
// of verification; the boundary itself is still inside the window. A
// reason is mandatory.
func (p *Payment) Reverse(actorID uuid.UUID, reason string, now time.Time) error {
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A reason is required when reversing a payment")
	}
	if _, err := p.Status.Transition(PaymentActionReverse); err != nil {
		return err
	}
	if p.VerifiedAt == nil {
		return shared.NewDomainError("INVALID_STATE", "Payment has no verification timestamp")
	}
	if now.Sub(*p.VerifiedAt) > ReversalWindow {
		return shared.NewDomainError("REVERSAL_WINDOW_EXPIRED",
			"Payment can no longer be reversed; the reversal window has expired")
	}

	p.Status = PaymentStatusReversed
	reversedBy := actorID
	p.ReversedBy = &reversedBy
	reversedAt := now
	p.ReversedAt = &reversedAt
	p.addNote(actorID, reason, now)
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentReversedEvent(p))
	return nil
}

// IsPending returns true if the payment awaits verification
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPendingVerification
}

// IsVerified returns true if the payment counts toward the invoice balance
func (p *Payment) IsVerified() bool {
	return p.Status == PaymentStatusVerified
}
