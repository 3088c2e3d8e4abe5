package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/money"
	"github.com/odyssey-erp/catering/internal/settings"
)

var minPayment = decimal.New(1, -money.Places)

// DeriveInvoiceStatus maps payments received to an invoice status. DRAFT and
// CANCELLED are returned unchanged. A zero grand total is PAID straight away.
func DeriveInvoiceStatus(current InvoiceStatus, grandTotal, amountPaid decimal.Decimal) InvoiceStatus {
	if !current.AcceptsPayments() {
		return current
	}
	switch {
	case amountPaid.GreaterThanOrEqual(grandTotal):
		return InvoiceStatusPaid
	case !amountPaid.IsPositive():
		return InvoiceStatusSent
	default:
		return InvoiceStatusPartiallyPaid
	}
}

// reconcile recomputes the invoice status from its payments inside tx and
// writes it only when it changed.
func reconcile(ctx context.Context, tx TxRepository, invoiceID int64, tax money.TaxSettings) (*Invoice, InvoiceStatus, error) {
	inv, err := tx.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	from := inv.Status
	totals := inv.Totals(tax)
	to := DeriveInvoiceStatus(from, totals.GrandTotal, totals.AmountPaid)
	if to != from {
		if err := tx.SetInvoiceStatus(ctx, inv.ID, to); err != nil {
			return nil, "", err
		}
		inv.Status = to
	}
	return inv, from, nil
}

func (s *Service) lockInvoice(ctx context.Context, id int64) func() {
	if s.locker == nil {
		return func() {}
	}
	release, err := s.locker.Acquire(ctx, EntityInvoice, id)
	if err != nil {
		s.logger.WarnContext(ctx, "reconciling without invoice lock",
			slog.Int64("invoice_id", id), slog.Any("error", err))
		return func() {}
	}
	return release
}

func (s *Service) statusEvent(inv *Invoice, from InvoiceStatus) []Event {
	if inv.Status == from {
		return nil
	}
	return []Event{s.event(EntityInvoice, inv.ID, inv.Number, "reconcile", string(from), string(inv.Status))}
}

func (s *Service) buildPayment(req PaymentRequest) (Payment, error) {
	if req.Amount.LessThan(minPayment) {
		return Payment{}, ErrInvalidAmount
	}
	p := Payment{
		PaymentDate: s.today(),
		Amount:      money.Round(req.Amount),
		Reference:   strings.TrimSpace(req.Reference),
		Notes:       req.Notes,
	}
	if req.PaymentDate != nil {
		p.PaymentDate = *req.PaymentDate
	}
	if req.Method != "" {
		m := PaymentMethod(strings.ToUpper(req.Method))
		if !m.IsValid() {
			return Payment{}, fmt.Errorf("%w: %s", ErrInvalidMethod, req.Method)
		}
		p.Method = &m
	}
	return p, nil
}

// ============================================================================
// PAYMENT OPERATIONS
// ============================================================================

// AddPayment records a payment against an issued invoice and reconciles it.
func (s *Service) AddPayment(ctx context.Context, invoiceID int64, req PaymentRequest, cfg settings.Settings) (*Payment, *Invoice, error) {
	p, err := s.buildPayment(req)
	if err != nil {
		return nil, nil, err
	}
	p.InvoiceID = invoiceID

	release := s.lockInvoice(ctx, invoiceID)
	defer release()

	var (
		created *Payment
		inv     *Invoice
		from    InvoiceStatus
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !current.Status.AcceptsPayments() {
			return fmt.Errorf("%w: invoice %s is %s", ErrPaymentNotAllowed, current.Number, current.Status)
		}
		if created, err = tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		inv, from, err = reconcile(ctx, tx, invoiceID, cfg.Tax())
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("add payment: %w", err)
	}

	events := []Event{{
		Entity: EntityPayment, ID: created.ID, Action: "create", At: s.now(),
		Meta: map[string]any{"invoice_id": invoiceID, "amount": created.Amount.StringFixed(money.Places)},
	}}
	s.hooks.Fire(ctx, append(events, s.statusEvent(inv, from)...)...)
	return created, inv, nil
}

// UpdatePayment edits a payment and reconciles its invoice.
func (s *Service) UpdatePayment(ctx context.Context, paymentID int64, req PaymentRequest, cfg settings.Settings) (*Payment, *Invoice, error) {
	p, err := s.buildPayment(req)
	if err != nil {
		return nil, nil, err
	}
	existing, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	p.ID = existing.ID
	p.InvoiceID = existing.InvoiceID

	release := s.lockInvoice(ctx, existing.InvoiceID)
	defer release()

	var (
		updated *Payment
		inv     *Invoice
		from    InvoiceStatus
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if updated, err = tx.UpdatePayment(ctx, p); err != nil {
			return err
		}
		inv, from, err = reconcile(ctx, tx, p.InvoiceID, cfg.Tax())
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("update payment: %w", err)
	}

	events := []Event{{
		Entity: EntityPayment, ID: updated.ID, Action: "update", At: s.now(),
		Meta: map[string]any{"invoice_id": updated.InvoiceID, "amount": updated.Amount.StringFixed(money.Places)},
	}}
	s.hooks.Fire(ctx, append(events, s.statusEvent(inv, from)...)...)
	return updated, inv, nil
}

// RemovePayment deletes a payment and reconciles its invoice. Removal is
// allowed on any invoice so mistakes can be undone after cancellation.
func (s *Service) RemovePayment(ctx context.Context, paymentID int64, cfg settings.Settings) (*Invoice, error) {
	existing, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	release := s.lockInvoice(ctx, existing.InvoiceID)
	defer release()

	var (
		inv  *Invoice
		from InvoiceStatus
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		var err error
		inv, from, err = reconcile(ctx, tx, existing.InvoiceID, cfg.Tax())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("remove payment: %w", err)
	}

	events := []Event{{
		Entity: EntityPayment, ID: paymentID, Action: "delete", At: s.now(),
		Meta: map[string]any{"invoice_id": existing.InvoiceID, "amount": existing.Amount.StringFixed(money.Places)},
	}}
	s.hooks.Fire(ctx, append(events, s.statusEvent(inv, from)...)...)
	return inv, nil
}

// ReconcileInvoice re-derives one invoice's status from its payments.
func (s *Service) ReconcileInvoice(ctx context.Context, id int64, cfg settings.Settings) (*Invoice, error) {
	inv, _, err := s.reconcileOne(ctx, id, cfg.Tax())
	return inv, err
}

func (s *Service) reconcileOne(ctx context.Context, id int64, tax money.TaxSettings) (*Invoice, bool, error) {
	release := s.lockInvoice(ctx, id)
	defer release()

	var (
		inv  *Invoice
		from InvoiceStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		inv, from, err = reconcile(ctx, tx, id, tax)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("reconcile invoice: %w", err)
	}
	s.hooks.Fire(ctx, s.statusEvent(inv, from)...)
	return inv, inv.Status != from, nil
}

// ReconcileOpenInvoices runs reconciliation over every SENT, PARTIALLY_PAID
// and PAID invoice and reports how many changed status. PAID is included so a
// removed payment or a tax change can demote it. It keeps going past failures.
func (s *Service) ReconcileOpenInvoices(ctx context.Context, cfg settings.Settings) (int, error) {
	ids, err := s.repo.ListOpenInvoiceIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open invoices: %w", err)
	}
	changed := 0
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, ok, err := s.reconcileOne(ctx, id, cfg.Tax())
		if err != nil {
			errs = append(errs, fmt.Errorf("invoice %d: %w", id, err))
			continue
		}
		if ok {
			changed++
		}
	}
	s.logger.InfoContext(ctx, "reconciliation sweep finished",
		slog.Int("invoices", len(ids)), slog.Int("changed", changed), slog.Int("failed", len(errs)))
	return changed, errors.Join(errs...)
}
