package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/catering/internal/numbering"
	"github.com/odyssey-erp/catering/internal/settings"
)

// ============================================================================
// ORDER OPERATIONS
// ============================================================================

// GetOrder returns an order with its items.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders returns orders by event date, latest first.
func (s *Service) ListOrders(ctx context.Context, f OrderFilter) ([]Order, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, f.Status)
	}
	return s.repo.ListOrders(ctx, f)
}

func createOrder(ctx context.Context, tx TxRepository, o Order, items []LineItem) (*Order, error) {
	created, err := tx.CreateOrder(ctx, o)
	if err != nil {
		return nil, err
	}
	if created.Items, err = tx.ReplaceLines(ctx, LineKindOrder, created.ID, items); err != nil {
		return nil, err
	}
	if created.Number, err = numbering.Assign(ctx, tx, numbering.KindOrder, created.ID, created.CreatedAt, created.Number); err != nil {
		return nil, err
	}
	return created, nil
}

// checkQuotationClient enforces that a linked quotation belongs to clientID.
func checkQuotationClient(ctx context.Context, r Reader, quotationID *int64, clientID int64) error {
	if quotationID == nil {
		return nil
	}
	q, err := r.GetQuotation(ctx, *quotationID)
	if err != nil {
		return fmt.Errorf("linked quotation: %w", err)
	}
	if q.ClientID != clientID {
		return fmt.Errorf("%w: quotation %s belongs to client %d", ErrClientMismatch, q.Number, q.ClientID)
	}
	return nil
}

// CreateOrder stores a manual PENDING order.
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	discount, err := parseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	if err := s.verifyClient(ctx, req.ClientID); err != nil {
		return nil, err
	}
	items, err := s.buildLines(ctx, req.Items, nil)
	if err != nil {
		return nil, err
	}

	var created *Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkQuotationClient(ctx, tx, req.QuotationID, req.ClientID); err != nil {
			return err
		}
		var err error
		created, err = createOrder(ctx, tx, Order{
			ClientID:        req.ClientID,
			QuotationID:     req.QuotationID,
			Title:           strings.TrimSpace(req.Title),
			Status:          OrderStatusPending,
			EventDate:       req.EventDate,
			DeliveryAddress: req.DeliveryAddress,
			Discount:        discount,
			Notes:           req.Notes,
		}, items)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityOrder, created.ID, created.Number, "create", "", string(created.Status)))
	return created, nil
}

// UpdateOrder replaces header fields and items while the order is PENDING or
// CONFIRMED.
func (s *Service) UpdateOrder(ctx context.Context, id int64, req OrderRequest) (*Order, error) {
	discount, err := parseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	if err := s.verifyClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	var updated *Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanEdit() {
			return illegal(EntityOrder, "edit", o.Status)
		}
		if err := checkQuotationClient(ctx, tx, req.QuotationID, req.ClientID); err != nil {
			return err
		}
		items, err := s.buildLines(ctx, req.Items, menuItemSet(o.Items))
		if err != nil {
			return err
		}
		o.ClientID = req.ClientID
		o.QuotationID = req.QuotationID
		o.Title = strings.TrimSpace(req.Title)
		o.EventDate = req.EventDate
		o.DeliveryAddress = req.DeliveryAddress
		o.Discount = discount
		o.Notes = req.Notes
		if err := tx.UpdateOrder(ctx, *o); err != nil {
			return err
		}
		if o.Items, err = tx.ReplaceLines(ctx, LineKindOrder, o.ID, items); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityOrder, updated.ID, updated.Number, "update", "", ""))
	return updated, nil
}

// ConfirmOrder moves PENDING to CONFIRMED.
func (s *Service) ConfirmOrder(ctx context.Context, id int64) (*Order, error) {
	return s.moveOrder(ctx, id, "confirm", OrderStatusConfirmed, func(st OrderStatus) bool {
		return st == OrderStatusPending
	})
}

// StartOrder moves CONFIRMED to IN_PROGRESS.
func (s *Service) StartOrder(ctx context.Context, id int64) (*Order, error) {
	return s.moveOrder(ctx, id, "start", OrderStatusInProgress, func(st OrderStatus) bool {
		return st == OrderStatusConfirmed
	})
}

// CompleteOrder moves IN_PROGRESS to COMPLETED.
func (s *Service) CompleteOrder(ctx context.Context, id int64) (*Order, error) {
	return s.moveOrder(ctx, id, "complete", OrderStatusCompleted, func(st OrderStatus) bool {
		return st == OrderStatusInProgress
	})
}

// CancelOrder cancels any non-terminal order.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*Order, error) {
	return s.moveOrder(ctx, id, "cancel", OrderStatusCancelled, OrderStatus.CanCancel)
}

func (s *Service) moveOrder(ctx context.Context, id int64, action string, to OrderStatus, allowed func(OrderStatus) bool) (*Order, error) {
	var (
		result *Order
		from   OrderStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(o.Status) {
			return illegal(EntityOrder, action, o.Status)
		}
		from = o.Status
		o.Status = to
		if err := tx.UpdateOrder(ctx, *o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", action, err)
	}
	s.hooks.Fire(ctx, s.event(EntityOrder, result.ID, result.Number, action, string(from), string(to)))
	return result, nil
}

// CreateInvoiceFromOrder raises a DRAFT invoice from an order. Several invoices
// per order are allowed for partial billing; existing ones produce a warning.
func (s *Service) CreateInvoiceFromOrder(ctx context.Context, id int64, cfg settings.Settings) (*Invoice, Warnings, error) {
	var (
		invoice  *Invoice
		warnings Warnings
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanInvoice() {
			return illegal(EntityOrder, "invoice", o.Status)
		}
		existing, err := tx.CountInvoicesForOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if existing > 0 {
			warnings = append(warnings, fmt.Sprintf("order already has %d invoice(s)", existing))
		}
		orderID := o.ID
		invoice, err = createInvoice(ctx, tx, Invoice{
			ClientID:       o.ClientID,
			QuotationID:    o.QuotationID,
			OrderID:        &orderID,
			Title:          o.Title,
			Status:         InvoiceStatusDraft,
			Discount:       o.Discount,
			Terms:          cfg.DefaultTerms,
			PaymentDetails: cfg.DefaultPaymentDetails,
			Notes:          o.Notes,
		}, cloneItems(o.Items))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create invoice from order: %w", err)
	}

	s.warn(ctx, EntityOrder, id, warnings)
	s.logger.InfoContext(ctx, "invoice created from order",
		slog.Int64("order_id", id), slog.Int64("invoice_id", invoice.ID))
	s.hooks.Fire(ctx, Event{
		Entity: EntityInvoice, ID: invoice.ID, Number: invoice.Number, Action: "create",
		To: string(invoice.Status), Meta: map[string]any{"order_id": id}, At: s.now(),
	})
	return invoice, warnings, nil
}
