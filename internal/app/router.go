package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/documents"
	"github.com/odyssey-erp/catering/internal/menu"
	"github.com/odyssey-erp/catering/internal/observability"
	"github.com/odyssey-erp/catering/internal/platform/httpx"
	"github.com/odyssey-erp/catering/internal/settings"
	"github.com/odyssey-erp/catering/jobs"
	"github.com/odyssey-erp/catering/report"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	ClientsHandler   *clients.Handler
	MenuHandler      *menu.Handler
	SettingsHandler  *settings.Handler
	DocumentsHandler *documents.Handler
	JobHandler       *jobs.Handler
	ReportHandler    *report.Handler

	// Database is checked by /healthz when set.
	Database Pinger
}

// NewRouter constructs the chi.Router with the catering API mounted under /api.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthz(params.Database, params.Logger))

	r.Route("/api", func(r chi.Router) {
		if params.ClientsHandler != nil {
			r.Route("/clients", params.ClientsHandler.MountRoutes)
		}
		if params.MenuHandler != nil {
			r.Route("/menu-items", params.MenuHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
		if h := params.DocumentsHandler; h != nil {
			r.Route("/quotations", h.MountQuotationRoutes)
			r.Route("/orders", h.MountOrderRoutes)
			r.Route("/invoices", h.MountInvoiceRoutes)
			r.Route("/payments", h.MountPaymentRoutes)
			r.Route("/delivery-orders", h.MountDeliveryRoutes)
			r.Route("/credit-notes", h.MountCreditNoteRoutes)
		}
		if params.ReportHandler != nil {
			r.Route("/print", params.ReportHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func healthz(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				if logger != nil {
					logger.Warn("health check", slog.Any("error", err))
				}
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
