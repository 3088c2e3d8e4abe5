package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/documents"
	"github.com/odyssey-erp/catering/internal/platform/httpx"
	"github.com/odyssey-erp/catering/internal/settings"
)

// DocumentSource loads the printable documents.
type DocumentSource interface {
	GetQuotation(ctx context.Context, id int64) (*documents.Quotation, error)
	GetInvoice(ctx context.Context, id int64) (*documents.Invoice, error)
}

// ClientSource resolves the billed client.
type ClientSource interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// SettingsSource returns the company letterhead and tax configuration.
type SettingsSource interface {
	Current(ctx context.Context) (settings.Settings, error)
}

// Pinger checks the PDF backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves printable quotations and invoices.
type Handler struct {
	documents DocumentSource
	clients   ClientSource
	settings  SettingsSource
	renderer  *Renderer
	backend   Pinger
	logger    *slog.Logger
}

// NewHandler creates a report handler. backend may be nil.
func NewHandler(docs DocumentSource, clientSource ClientSource, settingsSource SettingsSource, renderer *Renderer, backend Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		documents: docs,
		clients:   clientSource,
		settings:  settingsSource,
		renderer:  renderer,
		backend:   backend,
		logger:    logger,
	}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/quotations/{id}", h.quotation)
	r.Get("/invoices/{id}", h.invoice)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if h.backend == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "pdf backend not configured")
		return
	}
	if err := h.backend.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "pdf backend unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) quotation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.documents.GetQuotation(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, cfg, err := h.context(r.Context(), q.ClientID)
	if err != nil {
		h.fail(w, "load quotation context", err)
		return
	}
	html, err := h.renderer.QuotationHTML(q, client, cfg)
	if err != nil {
		h.fail(w, "render quotation", err)
		return
	}
	h.write(w, r, html, filename("Quotation", q.Number, q.ID))
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.documents.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, cfg, err := h.context(r.Context(), inv.ClientID)
	if err != nil {
		h.fail(w, "load invoice context", err)
		return
	}
	html, err := h.renderer.InvoiceHTML(inv, client, cfg)
	if err != nil {
		h.fail(w, "render invoice", err)
		return
	}
	h.write(w, r, html, filename("Invoice", inv.Number, inv.ID))
}

func (h *Handler) context(ctx context.Context, clientID int64) (clients.Client, settings.Settings, error) {
	cfg, err := h.settings.Current(ctx)
	if err != nil {
		return clients.Client{}, settings.Settings{}, err
	}
	client, err := h.clients.Get(ctx, clientID)
	if err != nil {
		return clients.Client{}, settings.Settings{}, err
	}
	return *client, cfg, nil
}

// write sends the HTML preview for ?format=html and the PDF otherwise.
func (h *Handler) write(w http.ResponseWriter, r *http.Request, html []byte, name string) {
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(html)
		return
	}
	pdf, err := h.renderer.PDF(r.Context(), html)
	if errors.Is(err, ErrConverterMissing) {
		httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "pdf backend not configured")
		return
	}
	if err != nil {
		h.logger.Error("render pdf", slog.String("file", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, http.StatusText(http.StatusBadGateway), "pdf conversion failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, clients.ErrNotFound) {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), "")
}

func filename(kind, number string, id int64) string {
	if number == "" {
		return fmt.Sprintf("%s-%d.pdf", kind, id)
	}
	return kind + "-" + number + ".pdf"
}
