// Package router wires HTTP routes to handlers. Every financial route
// sits behind JWT authentication plus a role check matching who may
// perform the operation: admins issue and manage invoices,
// organizations submit payments against invoices posted to them, and
// accountants verify payments and process vendor payouts.
package router

import (
	"github.com/coursebill/backend/internal/infrastructure/auth"
	"github.com/coursebill/backend/internal/interfaces/http/handler"
	"github.com/coursebill/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers the router registers
type Handlers struct {
	Billing *handler.BillingHandler
	Vendor  *handler.VendorHandler
	System  *handler.SystemHandler
}

// Setup registers all routes on the engine
func Setup(engine *gin.Engine, jwtService *auth.JWTService, h Handlers) {
	// Health check and system endpoints stay unauthenticated so load
	// balancers and probes can reach them
	engine.GET("/health", h.System.Health)

	public := engine.Group("/api/v1/system")
	public.GET("/ping", h.System.Ping)
	public.GET("/info", h.System.Info)

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(jwtService))

	adminOnly := middleware.RequireRole(auth.RoleAdmin)
	accountantOnly := middleware.RequireRole(auth.RoleAccountant)
	staff := middleware.RequireRole(auth.RoleAdmin, auth.RoleAccountant)
	anyRole := middleware.RequireRole(auth.RoleAdmin, auth.RoleAccountant, auth.RoleOrganization)

	billing := api.Group("/billing")
	{
		// Invoice issuance is an admin concern
		billing.POST("/courses/:id/readiness", adminOnly, h.Billing.ValidateReadiness)
		billing.POST("/courses/:id/invoice", adminOnly, h.Billing.CreateInvoice)
		billing.POST("/invoices/:id/post", adminOnly, h.Billing.PostInvoice)
		billing.POST("/invoices/:id/void", adminOnly, h.Billing.VoidInvoice)

		// Reads are shared; the handler scopes organizations to their
		// own posted invoices
		billing.GET("/invoices", anyRole, h.Billing.ListInvoices)
		billing.GET("/invoices/:id", anyRole, h.Billing.GetInvoice)
		billing.GET("/invoices/:id/payments", anyRole, h.Billing.ListPayments)

		// Organizations submit payments against their invoices
		billing.POST("/invoices/:id/payments",
			middleware.RequireRole(auth.RoleOrganization), h.Billing.SubmitPayment)

		// Verification decisions belong to accounting
		billing.GET("/payments/:id", staff, h.Billing.GetPayment)
		billing.POST("/payments/:id/approve", accountantOnly, h.Billing.ApprovePayment)
		billing.POST("/payments/:id/reject", accountantOnly, h.Billing.RejectPayment)
		billing.POST("/payments/:id/reverse", accountantOnly, h.Billing.ReversePayment)
	}

	payables := api.Group("/payables")
	{
		payables.POST("/vendor-invoices", adminOnly, h.Vendor.Submit)
		payables.GET("/vendor-invoices", staff, h.Vendor.ListVendorInvoices)
		payables.GET("/vendor-invoices/:id", staff, h.Vendor.GetVendorInvoice)

		// Two-step approval: admin first, then accounting pays or rejects
		payables.POST("/vendor-invoices/:id/approve", adminOnly, h.Vendor.AdminApprove)
		payables.POST("/vendor-invoices/:id/reject", adminOnly, h.Vendor.AdminReject)
		payables.POST("/vendor-invoices/:id/accountant-reject", accountantOnly, h.Vendor.AccountantReject)
		payables.POST("/vendor-invoices/:id/payments", accountantOnly, h.Vendor.RecordPayment)
		payables.GET("/vendor-invoices/:id/payments", staff, h.Vendor.ListVendorPayments)
	}
}
