package documents

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/catering/internal/money"
	"github.com/odyssey-erp/catering/internal/platform/httpx"
	"github.com/odyssey-erp/catering/internal/settings"
	"github.com/odyssey-erp/catering/internal/shared"
)

// IdempotencyHeader lets clients retry payment creation safely.
const IdempotencyHeader = "Idempotency-Key"

// SettingsProvider returns the current settings snapshot.
type SettingsProvider interface {
	Current(ctx context.Context) (settings.Settings, error)
}

// IdempotencyGuard records processed request keys.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler exposes document endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	settings    SettingsProvider
	idempotency IdempotencyGuard
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, settings SettingsProvider, idempotency IdempotencyGuard) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		settings:    settings,
		idempotency: idempotency,
		validator:   validator.New(),
	}
}

// MountQuotationRoutes registers /quotations.
func (h *Handler) MountQuotationRoutes(r chi.Router) {
	r.Get("/", h.listQuotations)
	r.Post("/", h.createQuotation)
	r.Get("/{id}", h.showQuotation)
	r.Put("/{id}", h.updateQuotation)
	r.Post("/{id}/finalize", h.finalizeQuotation)
	r.Post("/{id}/revert", h.quotationAction(h.service.RevertQuotationToDraft))
	r.Post("/{id}/accept", h.quotationAction(h.service.AcceptQuotation))
	r.Post("/{id}/reject", h.quotationAction(h.service.RejectQuotation))
	r.Post("/{id}/revise", h.reviseQuotation)
	r.Post("/{id}/create-order", h.createOrderFromQuotation)
}

// MountOrderRoutes registers /orders.
func (h *Handler) MountOrderRoutes(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Post("/", h.createOrder)
	r.Get("/{id}", h.showOrder)
	r.Put("/{id}", h.updateOrder)
	r.Post("/{id}/confirm", h.orderAction(h.service.ConfirmOrder))
	r.Post("/{id}/start", h.orderAction(h.service.StartOrder))
	r.Post("/{id}/complete", h.orderAction(h.service.CompleteOrder))
	r.Post("/{id}/cancel", h.orderAction(h.service.CancelOrder))
	r.Post("/{id}/create-invoice", h.createInvoiceFromOrder)
}

// MountInvoiceRoutes registers /invoices.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/", h.listInvoices)
	r.Post("/", h.createInvoice)
	r.Get("/{id}", h.showInvoice)
	r.Put("/{id}", h.updateInvoice)
	r.Post("/{id}/finalize", h.finalizeInvoice)
	r.Post("/{id}/revert", h.invoiceAction(h.service.RevertInvoiceToDraft))
	r.Post("/{id}/cancel", h.invoiceAction(h.service.CancelInvoice))
	r.Post("/{id}/reconcile", h.reconcileInvoice)
	r.Post("/{id}/payments", h.addPayment)
}

// MountPaymentRoutes registers /payments.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Put("/{id}", h.updatePayment)
	r.Delete("/{id}", h.removePayment)
}

// MountDeliveryRoutes registers /delivery-orders.
func (h *Handler) MountDeliveryRoutes(r chi.Router) {
	r.Get("/", h.listDeliveryOrders)
	r.Post("/", h.createDeliveryOrder)
	r.Get("/{id}", h.showDeliveryOrder)
	r.Put("/{id}", h.updateDeliveryOrder)
	r.Post("/{id}/dispatch", h.deliveryAction(h.service.DispatchDeliveryOrder))
	r.Post("/{id}/deliver", h.deliveryAction(h.service.MarkDelivered))
	r.Post("/{id}/cancel", h.deliveryAction(h.service.CancelDeliveryOrder))
}

// MountCreditNoteRoutes registers /credit-notes.
func (h *Handler) MountCreditNoteRoutes(r chi.Router) {
	r.Get("/", h.listCreditNotes)
	r.Post("/", h.createCreditNote)
	r.Get("/{id}", h.showCreditNote)
	r.Post("/{id}/issue", h.creditNoteAction(h.service.IssueCreditNote))
	r.Post("/{id}/cancel", h.creditNoteAction(h.service.CancelCreditNote))
}

// ============================================================================
// VIEWS
// ============================================================================

type quotationView struct {
	*Quotation
	Totals     money.Totals `json:"totals"`
	GrandTotal string       `json:"grand_total_display"`
	Warnings   Warnings     `json:"warnings,omitempty"`
}

type orderView struct {
	*Order
	Totals     money.Totals `json:"totals"`
	GrandTotal string       `json:"grand_total_display"`
}

type invoiceView struct {
	*Invoice
	Totals     money.Totals `json:"totals"`
	GrandTotal string       `json:"grand_total_display"`
	BalanceDue string       `json:"balance_due_display"`
	Warnings   Warnings     `json:"warnings,omitempty"`
}

type creditNoteView struct {
	*CreditNote
	Totals     money.Totals `json:"totals"`
	GrandTotal string       `json:"grand_total_display"`
}

func newQuotationView(q *Quotation, cfg settings.Settings, warnings Warnings) quotationView {
	t := q.Totals(cfg.Tax())
	return quotationView{Quotation: q, Totals: t, GrandTotal: money.Format(t.GrandTotal, cfg.CurrencySymbol), Warnings: warnings}
}

func newOrderView(o *Order, cfg settings.Settings) orderView {
	t := o.Totals(cfg.Tax())
	return orderView{Order: o, Totals: t, GrandTotal: money.Format(t.GrandTotal, cfg.CurrencySymbol)}
}

func newInvoiceView(inv *Invoice, cfg settings.Settings, warnings Warnings) invoiceView {
	t := inv.Totals(cfg.Tax())
	return invoiceView{
		Invoice:    inv,
		Totals:     t,
		GrandTotal: money.Format(t.GrandTotal, cfg.CurrencySymbol),
		BalanceDue: money.Format(t.BalanceDue, cfg.CurrencySymbol),
		Warnings:   warnings,
	}
}

func newCreditNoteView(c *CreditNote, cfg settings.Settings) creditNoteView {
	t := c.Totals(cfg.Tax())
	return creditNoteView{CreditNote: c, Totals: t, GrandTotal: money.Format(t.GrandTotal, cfg.CurrencySymbol)}
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var verrs validator.ValidationErrors
	classified := errors.As(err, &verrs) ||
		errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConflict) ||
		errors.Is(err, shared.ErrInvariant) || errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrIdempotencyConflict)
	if !classified {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// decode reads and validates the body, writing the error response itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) currentSettings(w http.ResponseWriter, r *http.Request) (settings.Settings, bool) {
	cfg, err := h.settings.Current(r.Context())
	if err != nil {
		h.fail(w, "load settings", err)
		return settings.Settings{}, false
	}
	return cfg, true
}

func queryID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id
}

func queryStatus(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
}

func (h *Handler) respondQuotation(w http.ResponseWriter, r *http.Request, status int, q *Quotation, warnings Warnings) {
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, status, newQuotationView(q, cfg, warnings))
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, status int, o *Order) {
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, status, newOrderView(o, cfg))
}

func (h *Handler) respondInvoice(w http.ResponseWriter, status int, inv *Invoice, cfg settings.Settings, warnings Warnings) {
	httpx.JSON(w, status, newInvoiceView(inv, cfg, warnings))
}

func (h *Handler) respondCreditNote(w http.ResponseWriter, r *http.Request, status int, c *CreditNote) {
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, status, newCreditNoteView(c, cfg))
}

// ============================================================================
// QUOTATIONS
// ============================================================================

func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := shared.PageFromQuery(r.URL.Query())
	items, total, err := h.service.ListQuotations(r.Context(), QuotationFilter{
		Status:   QuotationStatus(queryStatus(r)),
		ClientID: queryID(r, "client_id"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.fail(w, "list quotations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotations": items,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	var req QuotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	q, err := h.service.CreateQuotation(r.Context(), req, cfg)
	if err != nil {
		h.fail(w, "create quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newQuotationView(q, cfg, nil))
}

func (h *Handler) showQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.GetQuotation(r.Context(), id)
	if err != nil {
		h.fail(w, "get quotation", err)
		return
	}
	h.respondQuotation(w, r, http.StatusOK, q, nil)
}

func (h *Handler) updateQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req QuotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.UpdateQuotation(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update quotation", err)
		return
	}
	h.respondQuotation(w, r, http.StatusOK, q, nil)
}

func (h *Handler) finalizeQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	q, warnings, err := h.service.FinalizeQuotation(r.Context(), id, cfg)
	if err != nil {
		h.fail(w, "finalize quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuotationView(q, cfg, warnings))
}

func (h *Handler) quotationAction(fn func(context.Context, int64) (*Quotation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		q, err := fn(r.Context(), id)
		if err != nil {
			h.fail(w, "quotation transition", err)
			return
		}
		h.respondQuotation(w, r, http.StatusOK, q, nil)
	}
}

func (h *Handler) reviseQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.CreateRevision(r.Context(), id)
	if err != nil {
		h.fail(w, "revise quotation", err)
		return
	}
	h.respondQuotation(w, r, http.StatusCreated, q, nil)
}

func (h *Handler) createOrderFromQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.CreateOrderFromQuotation(r.Context(), id)
	if err != nil {
		h.fail(w, "create order from quotation", err)
		return
	}
	h.respondOrder(w, r, http.StatusCreated, o)
}

// ============================================================================
// ORDERS
// ============================================================================

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := shared.PageFromQuery(r.URL.Query())
	items, total, err := h.service.ListOrders(r.Context(), OrderFilter{
		Status:   OrderStatus(queryStatus(r)),
		ClientID: queryID(r, "client_id"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     items,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		h.fail(w, "create order", err)
		return
	}
	h.respondOrder(w, r, http.StatusCreated, o)
}

func (h *Handler) showOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	h.respondOrder(w, r, http.StatusOK, o)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.service.UpdateOrder(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update order", err)
		return
	}
	h.respondOrder(w, r, http.StatusOK, o)
}

func (h *Handler) orderAction(fn func(context.Context, int64) (*Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		o, err := fn(r.Context(), id)
		if err != nil {
			h.fail(w, "order transition", err)
			return
		}
		h.respondOrder(w, r, http.StatusOK, o)
	}
}

func (h *Handler) createInvoiceFromOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	inv, warnings, err := h.service.CreateInvoiceFromOrder(r.Context(), id, cfg)
	if err != nil {
		h.fail(w, "create invoice from order", err)
		return
	}
	h.respondInvoice(w, http.StatusCreated, inv, cfg, warnings)
}

// ============================================================================
// INVOICES AND PAYMENTS
// ============================================================================

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := shared.PageFromQuery(r.URL.Query())
	items, total, err := h.service.ListInvoices(r.Context(), InvoiceFilter{
		Status:   InvoiceStatus(queryStatus(r)),
		ClientID: queryID(r, "client_id"),
		OrderID:  queryID(r, "order_id"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoices":   items,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), req, cfg)
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	h.respondInvoice(w, http.StatusCreated, inv, cfg, nil)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	h.respondInvoice(w, http.StatusOK, inv, cfg, nil)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req InvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	inv, err := h.service.UpdateInvoice(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update invoice", err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	h.respondInvoice(w, http.StatusOK, inv, cfg, nil)
}

func (h *Handler) finalizeInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	inv, warnings, err := h.service.FinalizeInvoice(r.Context(), id, cfg)
	if err != nil {
		h.fail(w, "finalize invoice", err)
		return
	}
	h.respondInvoice(w, http.StatusOK, inv, cfg, warnings)
}

func (h *Handler) invoiceAction(fn func(context.Context, int64) (*Invoice, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		inv, err := fn(r.Context(), id)
		if err != nil {
			h.fail(w, "invoice transition", err)
			return
		}
		cfg, ok := h.currentSettings(w, r)
		if !ok {
			return
		}
		h.respondInvoice(w, http.StatusOK, inv, cfg, nil)
	}
}

func (h *Handler) reconcileInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	inv, err := h.service.ReconcileInvoice(r.Context(), id, cfg)
	if err != nil {
		h.fail(w, "reconcile invoice", err)
		return
	}
	h.respondInvoice(w, http.StatusOK, inv, cfg, nil)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "payments"); err != nil {
			h.fail(w, "payment idempotency", err)
			return
		}
	}

	p, inv, err := h.service.AddPayment(r.Context(), id, req, cfg)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if derr := h.idempotency.Delete(context.WithoutCancel(r.Context()), key); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.fail(w, "add payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"payment": p,
		"invoice": newInvoiceView(inv, cfg, nil),
	})
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	p, inv, err := h.service.UpdatePayment(r.Context(), id, req, cfg)
	if err != nil {
		h.fail(w, "update payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"payment": p,
		"invoice": newInvoiceView(inv, cfg, nil),
	})
}

func (h *Handler) removePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cfg, ok := h.currentSettings(w, r)
	if !ok {
		return
	}
	inv, err := h.service.RemovePayment(r.Context(), id, cfg)
	if err != nil {
		h.fail(w, "remove payment", err)
		return
	}
	h.respondInvoice(w, http.StatusOK, inv, cfg, nil)
}

// ============================================================================
// DELIVERY ORDERS
// ============================================================================

func (h *Handler) listDeliveryOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := shared.PageFromQuery(r.URL.Query())
	items, total, err := h.service.ListDeliveryOrders(r.Context(), DeliveryOrderFilter{
		Status:  DeliveryStatus(queryStatus(r)),
		OrderID: queryID(r, "order_id"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		h.fail(w, "list delivery orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"delivery_orders": items,
		"pagination":      shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) createDeliveryOrder(w http.ResponseWriter, r *http.Request) {
	var req DeliveryOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.service.CreateDeliveryOrder(r.Context(), req)
	if err != nil {
		h.fail(w, "create delivery order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) showDeliveryOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.GetDeliveryOrder(r.Context(), id)
	if err != nil {
		h.fail(w, "get delivery order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) updateDeliveryOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req DeliveryOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.service.UpdateDeliveryOrder(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update delivery order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) deliveryAction(fn func(context.Context, int64) (*DeliveryOrder, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		d, err := fn(r.Context(), id)
		if err != nil {
			h.fail(w, "delivery transition", err)
			return
		}
		httpx.JSON(w, http.StatusOK, d)
	}
}

// ============================================================================
// CREDIT NOTES
// ============================================================================

func (h *Handler) listCreditNotes(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := shared.PageFromQuery(r.URL.Query())
	items, total, err := h.service.ListCreditNotes(r.Context(), CreditNoteFilter{
		ClientID:  queryID(r, "client_id"),
		InvoiceID: queryID(r, "invoice_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.fail(w, "list credit notes", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"credit_notes": items,
		"pagination":   shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) createCreditNote(w http.ResponseWriter, r *http.Request) {
	var req CreditNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.service.CreateCreditNote(r.Context(), req)
	if err != nil {
		h.fail(w, "create credit note", err)
		return
	}
	h.respondCreditNote(w, r, http.StatusCreated, c)
}

func (h *Handler) showCreditNote(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.GetCreditNote(r.Context(), id)
	if err != nil {
		h.fail(w, "get credit note", err)
		return
	}
	h.respondCreditNote(w, r, http.StatusOK, c)
}

func (h *Handler) creditNoteAction(fn func(context.Context, int64) (*CreditNote, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		c, err := fn(r.Context(), id)
		if err != nil {
			h.fail(w, "credit note transition", err)
			return
		}
		h.respondCreditNote(w, r, http.StatusOK, c)
	}
}
