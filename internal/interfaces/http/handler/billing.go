package handler

import (
	"time"

	appbilling "github.com/coursebill/backend/internal/application/billing"
	"github.com/coursebill/backend/internal/infrastructure/auth"
	"github.com/coursebill/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingHandler exposes invoice and payment operations
type BillingHandler struct {
	BaseHandler
	invoiceService      *appbilling.InvoiceService
	paymentService      *appbilling.PaymentService
	verificationService *appbilling.VerificationService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(
	invoiceService *appbilling.InvoiceService,
	paymentService *appbilling.PaymentService,
	verificationService *appbilling.VerificationService,
) *BillingHandler {
	return &BillingHandler{
		invoiceService:      invoiceService,
		paymentService:      paymentService,
		verificationService: verificationService,
	}
}

// VoidInvoiceRequest is the body for voiding an invoice
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SubmitPaymentRequest is the body for submitting a payment
type SubmitPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Method          string          `json:"method" binding:"required"`
	ReferenceNumber string          `json:"reference_number"`
	PaymentDate     time.Time       `json:"payment_date"`
	Notes           string          `json:"notes"`
}

// VerificationRequest is the body for accountant decisions on a payment
type VerificationRequest struct {
	Notes string `json:"notes"`
}

// ReversePaymentRequest is the body for reversing a verified payment
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ValidateReadiness handles POST /billing/courses/:id/readiness
func (h *BillingHandler) ValidateReadiness(c *gin.Context) {
	courseID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid course ID")
		return
	}

	resp, err := h.invoiceService.ValidateReadiness(c.Request.Context(), courseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateInvoice handles POST /billing/courses/:id/invoice
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	courseID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid course ID")
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), courseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetInvoice handles GET /billing/invoices/:id
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Organizations only see invoices posted to them
	if actorRole(c) == auth.RoleOrganization {
		claims := middleware.GetClaims(c)
		if !resp.PostedToOrg || claims == nil || resp.OrganizationID.String() != claims.OrganizationID {
			h.NotFound(c, "Invoice not found")
			return
		}
	}

	h.Success(c, resp)
}

// ListInvoices handles GET /billing/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	var filter appbilling.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	// Organizations are pinned to their own posted invoices regardless
	// of what the query asks for
	if actorRole(c) == auth.RoleOrganization {
		claims := middleware.GetClaims(c)
		orgID, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			h.Unauthorized(c, "Token carries no organization")
			return
		}
		filter.OrganizationID = &orgID
		filter.PostedOnly = true
	}

	responses, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, responses, total, page, pageSize)
}

// PostInvoice handles POST /billing/invoices/:id/post
func (h *BillingHandler) PostInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.invoiceService.PostInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VoidInvoice handles POST /billing/invoices/:id/void
func (h *BillingHandler) VoidInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.VoidInvoice(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SubmitPayment handles POST /billing/invoices/:id/payments
func (h *BillingHandler) SubmitPayment(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.paymentService.SubmitPayment(c.Request.Context(), appbilling.SubmitPaymentRequest{
		InvoiceID:       invoiceID,
		Amount:          req.Amount,
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		PaymentDate:     req.PaymentDate,
		Notes:           req.Notes,
		ActorID:         actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListPayments handles GET /billing/invoices/:id/payments
func (h *BillingHandler) ListPayments(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	responses, err := h.paymentService.ListPayments(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, responses)
}

// GetPayment handles GET /billing/payments/:id
func (h *BillingHandler) GetPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	resp, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApprovePayment handles POST /billing/payments/:id/approve
func (h *BillingHandler) ApprovePayment(c *gin.Context) {
	h.verification(c, func(paymentID, actor uuid.UUID, notes string) (*appbilling.VerificationResult, error) {
		return h.verificationService.Approve(c.Request.Context(), paymentID, actor, notes)
	}, false)
}

// RejectPayment handles POST /billing/payments/:id/reject
func (h *BillingHandler) RejectPayment(c *gin.Context) {
	h.verification(c, func(paymentID, actor uuid.UUID, notes string) (*appbilling.VerificationResult, error) {
		return h.verificationService.Reject(c.Request.Context(), paymentID, actor, notes)
	}, false)
}

// ReversePayment handles POST /billing/payments/:id/reverse
func (h *BillingHandler) ReversePayment(c *gin.Context) {
	h.verification(c, func(paymentID, actor uuid.UUID, reason string) (*appbilling.VerificationResult, error) {
		return h.verificationService.Reverse(c.Request.Context(), paymentID, actor, reason)
	}, true)
}

func (h *BillingHandler) verification(
	c *gin.Context,
	apply func(paymentID, actor uuid.UUID, notes string) (*appbilling.VerificationResult, error),
	requireReason bool,
) {
	paymentID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid payment ID")
		return
	}
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var notes string
	if requireReason {
		var req ReversePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		notes = req.Reason
	} else {
		var req VerificationRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			middleware.HandleValidationError(c, err)
			return
		}
		notes = req.Notes
	}

	result, err := apply(paymentID, actor, notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
