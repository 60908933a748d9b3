// Package http exposes the finance façade as a JSON API.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/freelanceflow/freelanceflow/internal/finance"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/platform/httpx"
)

// Handler manages the ledger API endpoints.
type Handler struct {
	logger    *slog.Logger
	facade    *finance.Facade
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, facade *finance.Facade) *Handler {
	return &Handler{logger: logger, facade: facade, validator: validator.New()}
}

// MountRoutes registers the API routes. Every route requires a tenant.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireTenant)

		r.Get("/dashboard", h.getDashboard)
		r.Get("/invoices", h.listInvoices)

		r.Get("/projects/{projectID}/invoices", h.listProjectInvoices)
		r.Post("/projects/{projectID}/invoices", h.createInvoice)

		r.Get("/invoices/{invoiceID}", h.getInvoice)
		r.Put("/invoices/{invoiceID}", h.updateInvoice)
		r.Delete("/invoices/{invoiceID}", h.deleteInvoice)

		r.Get("/invoices/{invoiceID}/payments", h.listPayments)
		r.Post("/invoices/{invoiceID}/payments", h.createPayment)

		r.Get("/payments/{paymentID}", h.getPayment)
		r.Put("/payments/{paymentID}", h.updatePayment)
		r.Delete("/payments/{paymentID}", h.deletePayment)
	})
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	view, err := h.facade.Dashboard(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondError(w, r, &ledger.ValidationError{Field: "limit", Reason: "must be a non-negative integer"})
			return
		}
		limit = n
	}
	invoices, err := h.facade.ListInvoices(r.Context(), tenantID, r.URL.Query().Get("status"), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) listProjectInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	projectID, ok := h.pathID(w, r, "projectID")
	if !ok {
		return
	}
	invoices, err := h.facade.ListProjectInvoices(r.Context(), tenantID, projectID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	projectID, ok := h.pathID(w, r, "projectID")
	if !ok {
		return
	}
	var req invoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.createInput()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	input.ProjectID = projectID
	invoice, err := h.facade.CreateInvoice(r.Context(), tenantID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	invoiceID, ok := h.pathID(w, r, "invoiceID")
	if !ok {
		return
	}
	detail, err := h.facade.GetInvoice(r.Context(), tenantID, invoiceID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	invoiceID, ok := h.pathID(w, r, "invoiceID")
	if !ok {
		return
	}
	var req invoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.updateInput()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	invoice, err := h.facade.UpdateInvoice(r.Context(), tenantID, invoiceID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	invoiceID, ok := h.pathID(w, r, "invoiceID")
	if !ok {
		return
	}
	removed, err := h.facade.DeleteInvoice(r.Context(), tenantID, invoiceID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"payments_removed": removed})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	invoiceID, ok := h.pathID(w, r, "invoiceID")
	if !ok {
		return
	}
	payments, err := h.facade.ListPayments(r.Context(), tenantID, invoiceID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	invoiceID, ok := h.pathID(w, r, "invoiceID")
	if !ok {
		return
	}
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.facade.CreatePayment(r.Context(), tenantID, invoiceID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	paymentID, ok := h.pathID(w, r, "paymentID")
	if !ok {
		return
	}
	payment, err := h.facade.GetPayment(r.Context(), tenantID, paymentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	paymentID, ok := h.pathID(w, r, "paymentID")
	if !ok {
		return
	}
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.facade.UpdatePayment(r.Context(), tenantID, paymentID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := TenantFromContext(r.Context())
	paymentID, ok := h.pathID(w, r, "paymentID")
	if !ok {
		return
	}
	balance, err := h.facade.DeletePayment(r.Context(), tenantID, paymentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.Problem(w, r, http.StatusBadRequest, "Validation Failed", "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads and validates the request body, writing the problem response
// itself when it returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, r, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.respondError(w, r, &ledger.ValidationError{Field: verrs[0].Field(), Reason: "failed the " + verrs[0].Tag() + " rule"})
			return false
		}
		h.respondError(w, r, err)
		return false
	}
	return true
}
