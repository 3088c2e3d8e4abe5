package documents

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-erp/catering/internal/shared"
)

// Entity names used for audit records, metrics and lock keys.
const (
	EntityQuotation     = "quotation"
	EntityOrder         = "order"
	EntityInvoice       = "invoice"
	EntityPayment       = "payment"
	EntityDeliveryOrder = "delivery_order"
	EntityCreditNote    = "credit_note"
)

// Event describes a committed document change.
type Event struct {
	Entity string
	ID     int64
	Number string
	Action string
	From   string
	To     string
	Meta   map[string]any
	At     time.Time
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// TransitionObserver counts status changes.
type TransitionObserver interface {
	ObserveTransition(entity, action, status string)
}

// Hooks fans committed document events out to the audit trail and metrics.
// They run after commit, so a failing hook is logged and never undoes the change.
type Hooks struct {
	audit   AuditRecorder
	metrics TransitionObserver
	logger  *slog.Logger
}

// NewHooks constructs hooks. Any argument may be nil.
func NewHooks(audit AuditRecorder, metrics TransitionObserver, logger *slog.Logger) *Hooks {
	return &Hooks{audit: audit, metrics: metrics, logger: logger}
}

// Fire delivers events in order.
func (h *Hooks) Fire(ctx context.Context, events ...Event) {
	if h == nil {
		return
	}
	for _, evt := range events {
		if h.metrics != nil && evt.To != "" {
			h.metrics.ObserveTransition(evt.Entity, evt.Action, evt.To)
		}
		if h.audit == nil {
			continue
		}
		meta := map[string]any{}
		for k, v := range evt.Meta {
			meta[k] = v
		}
		if evt.Number != "" {
			meta["number"] = evt.Number
		}
		if evt.From != "" {
			meta["from"] = evt.From
		}
		if evt.To != "" {
			meta["to"] = evt.To
		}
		err := h.audit.Record(ctx, shared.AuditLog{
			Action:   evt.Entity + "." + evt.Action,
			Entity:   evt.Entity,
			EntityID: strconv.FormatInt(evt.ID, 10),
			Meta:     meta,
			At:       evt.At,
		})
		if err != nil && h.logger != nil {
			h.logger.Warn("audit record failed", slog.String("entity", evt.Entity),
				slog.Int64("id", evt.ID), slog.String("action", evt.Action), slog.Any("error", err))
		}
	}
}
