package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/numbering"
)

// ============================================================================
// DELIVERY ORDER OPERATIONS
// ============================================================================

// GetDeliveryOrder returns a delivery order with its items.
func (s *Service) GetDeliveryOrder(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return s.repo.GetDeliveryOrder(ctx, id)
}

// ListDeliveryOrders returns delivery orders by delivery date, latest first.
func (s *Service) ListDeliveryOrders(ctx context.Context, f DeliveryOrderFilter) ([]DeliveryOrder, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, f.Status)
	}
	return s.repo.ListDeliveryOrders(ctx, f)
}

// validateDeliveryItems checks each requested line against the parent order.
// delivered holds quantities already planned on the order's other
// non-cancelled delivery orders.
func validateDeliveryItems(order *Order, delivered map[int64]decimal.Decimal, reqs []DeliveryItemRequest) ([]DeliveryOrderItem, error) {
	requested := make(map[int64]decimal.Decimal, len(reqs))
	items := make([]DeliveryOrderItem, 0, len(reqs))
	for i, req := range reqs {
		if !req.Quantity.IsPositive() {
			return nil, fmt.Errorf("line %d: %w: quantity delivered must be positive", i+1, ErrInvalidQuantity)
		}
		orderItem, ok := order.Item(req.OrderItemID)
		if !ok {
			return nil, fmt.Errorf("line %d: %w: item %d, order %s", i+1, ErrItemNotInOrder, req.OrderItemID, order.Number)
		}
		total := requested[req.OrderItemID].Add(req.Quantity)
		remaining := orderItem.Quantity.Sub(delivered[req.OrderItemID])
		if total.GreaterThan(remaining) {
			return nil, fmt.Errorf("line %d: %w: %s requested, %s remaining of %q",
				i+1, ErrQuantityExceeds, total.String(), remaining.String(), orderItem.Description)
		}
		requested[req.OrderItemID] = total
		items = append(items, DeliveryOrderItem{OrderItemID: req.OrderItemID, QuantityDelivered: req.Quantity})
	}
	return items, nil
}

func deliveryItems(ctx context.Context, tx TxRepository, orderID, excludeID int64, reqs []DeliveryItemRequest) ([]DeliveryOrderItem, error) {
	order, err := tx.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("parent order: %w", err)
	}
	if !order.Status.CanDeliver() {
		return nil, illegal(EntityOrder, "deliver", order.Status)
	}
	delivered, err := tx.DeliveredQuantities(ctx, order.ID, excludeID)
	if err != nil {
		return nil, err
	}
	return validateDeliveryItems(order, delivered, reqs)
}

// CreateDeliveryOrder plans a PLANNED delivery against an order.
func (s *Service) CreateDeliveryOrder(ctx context.Context, req DeliveryOrderRequest) (*DeliveryOrder, error) {
	var created *DeliveryOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items, err := deliveryItems(ctx, tx, req.OrderID, 0, req.Items)
		if err != nil {
			return err
		}
		d, err := tx.CreateDeliveryOrder(ctx, DeliveryOrder{
			OrderID:         req.OrderID,
			DeliveryDate:    req.DeliveryDate,
			Status:          DeliveryStatusPlanned,
			Recipient:       strings.TrimSpace(req.Recipient),
			AddressOverride: req.AddressOverride,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		if d.Items, err = tx.ReplaceDeliveryItems(ctx, d.ID, items); err != nil {
			return err
		}
		if d.Number, err = numbering.Assign(ctx, tx, numbering.KindDeliveryOrder, d.ID, d.CreatedAt, d.Number); err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create delivery order: %w", err)
	}
	s.hooks.Fire(ctx, Event{
		Entity: EntityDeliveryOrder, ID: created.ID, Number: created.Number, Action: "create",
		To: string(created.Status), Meta: map[string]any{"order_id": created.OrderID}, At: s.now(),
	})
	return created, nil
}

// UpdateDeliveryOrder edits a PLANNED delivery order. The parent order is
// fixed at creation, so req.OrderID is ignored.
func (s *Service) UpdateDeliveryOrder(ctx context.Context, id int64, req DeliveryOrderRequest) (*DeliveryOrder, error) {
	var updated *DeliveryOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetDeliveryOrder(ctx, id)
		if err != nil {
			return err
		}
		if !d.Status.CanEdit() {
			return illegal(EntityDeliveryOrder, "edit", d.Status)
		}
		items, err := deliveryItems(ctx, tx, d.OrderID, d.ID, req.Items)
		if err != nil {
			return err
		}
		d.DeliveryDate = req.DeliveryDate
		d.Recipient = strings.TrimSpace(req.Recipient)
		d.AddressOverride = req.AddressOverride
		d.Notes = req.Notes
		if err := tx.UpdateDeliveryOrder(ctx, *d); err != nil {
			return err
		}
		if d.Items, err = tx.ReplaceDeliveryItems(ctx, d.ID, items); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update delivery order: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityDeliveryOrder, updated.ID, updated.Number, "update", "", ""))
	return updated, nil
}

// DispatchDeliveryOrder moves PLANNED to DISPATCHED.
func (s *Service) DispatchDeliveryOrder(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return s.moveDelivery(ctx, id, "dispatch", DeliveryStatusDispatched, func(st DeliveryStatus) bool {
		return st == DeliveryStatusPlanned
	})
}

// MarkDelivered moves DISPATCHED to DELIVERED.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return s.moveDelivery(ctx, id, "deliver", DeliveryStatusDelivered, func(st DeliveryStatus) bool {
		return st == DeliveryStatusDispatched
	})
}

// CancelDeliveryOrder cancels a delivery that has not arrived. Its quantities
// stop counting against the order.
func (s *Service) CancelDeliveryOrder(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return s.moveDelivery(ctx, id, "cancel", DeliveryStatusCancelled, DeliveryStatus.CanCancel)
}

func (s *Service) moveDelivery(ctx context.Context, id int64, action string, to DeliveryStatus, allowed func(DeliveryStatus) bool) (*DeliveryOrder, error) {
	var (
		result *DeliveryOrder
		from   DeliveryStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetDeliveryOrder(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(d.Status) {
			return illegal(EntityDeliveryOrder, action, d.Status)
		}
		from = d.Status
		d.Status = to
		if err := tx.UpdateDeliveryOrder(ctx, *d); err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s delivery order: %w", action, err)
	}
	s.hooks.Fire(ctx, s.event(EntityDeliveryOrder, result.ID, result.Number, action, string(from), string(to)))
	return result, nil
}
