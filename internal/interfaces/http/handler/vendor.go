package handler

import (
	"context"
	"time"

	apppayables "github.com/coursebill/backend/internal/application/payables"
	"github.com/coursebill/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorHandler exposes the vendor invoice approval chain
type VendorHandler struct {
	BaseHandler
	service *apppayables.VendorInvoiceService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(service *apppayables.VendorInvoiceService) *VendorHandler {
	return &VendorHandler{service: service}
}

// SubmitVendorInvoiceRequest is the body for submitting a vendor invoice
type SubmitVendorInvoiceRequest struct {
	VendorID    uuid.UUID       `json:"vendor_id" binding:"required"`
	VendorName  string          `json:"vendor_name" binding:"required"`
	Description string          `json:"description"`
	Total       decimal.Decimal `json:"total" binding:"required"`
}

// RejectVendorInvoiceRequest is the body for rejecting a vendor invoice
type RejectVendorInvoiceRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// RecordVendorPaymentRequest is the body for recording a vendor payment
type RecordVendorPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Method          string          `json:"method" binding:"required"`
	ReferenceNumber string          `json:"reference_number"`
	PaymentDate     time.Time       `json:"payment_date"`
	Notes           string          `json:"notes"`
}

// Submit handles POST /payables/vendor-invoices
func (h *VendorHandler) Submit(c *gin.Context) {
	var req SubmitVendorInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), apppayables.SubmitVendorInvoiceRequest{
		VendorID:    req.VendorID,
		VendorName:  req.VendorName,
		Description: req.Description,
		Total:       req.Total,
		ActorID:     actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AdminApprove handles POST /payables/vendor-invoices/:id/approve
func (h *VendorHandler) AdminApprove(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid vendor invoice ID")
		return
	}
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.service.AdminApprove(c.Request.Context(), invoiceID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdminReject handles POST /payables/vendor-invoices/:id/reject
func (h *VendorHandler) AdminReject(c *gin.Context) {
	h.reject(c, h.service.AdminReject)
}

// AccountantReject handles POST /payables/vendor-invoices/:id/accountant-reject
func (h *VendorHandler) AccountantReject(c *gin.Context) {
	h.reject(c, h.service.AccountantReject)
}

func (h *VendorHandler) reject(
	c *gin.Context,
	apply func(ctx context.Context, invoiceID, actorID uuid.UUID, notes string) (*apppayables.VendorInvoiceResponse, error),
) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid vendor invoice ID")
		return
	}
	var req RejectVendorInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := apply(c.Request.Context(), invoiceID, actor, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordPayment handles POST /payables/vendor-invoices/:id/payments
func (h *VendorHandler) RecordPayment(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid vendor invoice ID")
		return
	}
	var req RecordVendorPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	actor, err := actorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), apppayables.RecordVendorPaymentRequest{
		VendorInvoiceID: invoiceID,
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

// GetVendorInvoice handles GET /payables/vendor-invoices/:id
func (h *VendorHandler) GetVendorInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid vendor invoice ID")
		return
	}

	resp, err := h.service.GetVendorInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListVendorInvoices handles GET /payables/vendor-invoices
func (h *VendorHandler) ListVendorInvoices(c *gin.Context) {
	var filter apppayables.VendorInvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	responses, total, err := h.service.ListVendorInvoices(c.Request.Context(), filter)
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

// ListVendorPayments handles GET /payables/vendor-invoices/:id/payments
func (h *VendorHandler) ListVendorPayments(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid vendor invoice ID")
		return
	}

	responses, err := h.service.ListVendorPayments(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, responses)
}
