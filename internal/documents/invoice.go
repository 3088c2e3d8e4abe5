package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/catering/internal/numbering"
	"github.com/odyssey-erp/catering/internal/settings"
)

// ============================================================================
// INVOICE OPERATIONS
// ============================================================================

// GetInvoice returns an invoice with items and payments.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices returns invoices newest first.
func (s *Service) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, f.Status)
	}
	return s.repo.ListInvoices(ctx, f)
}

func createInvoice(ctx context.Context, tx TxRepository, inv Invoice, items []LineItem) (*Invoice, error) {
	created, err := tx.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, err
	}
	if created.Items, err = tx.ReplaceLines(ctx, LineKindInvoice, created.ID, items); err != nil {
		return nil, err
	}
	if created.Number, err = numbering.Assign(ctx, tx, numbering.KindInvoice, created.ID, created.CreatedAt, created.Number); err != nil {
		return nil, err
	}
	return created, nil
}

func checkInvoiceLinks(ctx context.Context, r Reader, req InvoiceRequest) error {
	if err := checkQuotationClient(ctx, r, req.QuotationID, req.ClientID); err != nil {
		return err
	}
	if req.OrderID == nil {
		return nil
	}
	o, err := r.GetOrder(ctx, *req.OrderID)
	if err != nil {
		return fmt.Errorf("linked order: %w", err)
	}
	if o.ClientID != req.ClientID {
		return fmt.Errorf("%w: order %s belongs to client %d", ErrClientMismatch, o.Number, o.ClientID)
	}
	return nil
}

// CreateInvoice stores a manual DRAFT invoice. Blank terms and payment details
// fall back to the configured defaults.
func (s *Service) CreateInvoice(ctx context.Context, req InvoiceRequest, cfg settings.Settings) (*Invoice, error) {
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

	var created *Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkInvoiceLinks(ctx, tx, req); err != nil {
			return err
		}
		var err error
		created, err = createInvoice(ctx, tx, Invoice{
			ClientID:       req.ClientID,
			QuotationID:    req.QuotationID,
			OrderID:        req.OrderID,
			Title:          strings.TrimSpace(req.Title),
			DueDate:        req.DueDate,
			Status:         InvoiceStatusDraft,
			Discount:       discount,
			Terms:          defaultString(req.Terms, cfg.DefaultTerms),
			PaymentDetails: defaultString(req.PaymentDetails, cfg.DefaultPaymentDetails),
			Notes:          req.Notes,
		}, items)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityInvoice, created.ID, created.Number, "create", "", string(created.Status)))
	return created, nil
}

// UpdateInvoice replaces header fields and items of a DRAFT invoice.
func (s *Service) UpdateInvoice(ctx context.Context, id int64, req InvoiceRequest) (*Invoice, error) {
	discount, err := parseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	if err := s.verifyClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	var updated *Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if !inv.Status.CanEdit() {
			return illegal(EntityInvoice, "edit", inv.Status)
		}
		if err := checkInvoiceLinks(ctx, tx, req); err != nil {
			return err
		}
		items, err := s.buildLines(ctx, req.Items, menuItemSet(inv.Items))
		if err != nil {
			return err
		}
		inv.ClientID = req.ClientID
		inv.QuotationID = req.QuotationID
		inv.OrderID = req.OrderID
		inv.Title = strings.TrimSpace(req.Title)
		inv.DueDate = req.DueDate
		inv.Discount = discount
		inv.Terms = req.Terms
		inv.PaymentDetails = req.PaymentDetails
		inv.Notes = req.Notes
		if err := tx.UpdateInvoice(ctx, *inv); err != nil {
			return err
		}
		if inv.Items, err = tx.ReplaceLines(ctx, LineKindInvoice, inv.ID, items); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityInvoice, updated.ID, updated.Number, "update", "", ""))
	return updated, nil
}

// FinalizeInvoice stamps the issue date, defaults the due date from the
// payment terms and moves a DRAFT invoice to SENT.
func (s *Service) FinalizeInvoice(ctx context.Context, id int64, cfg settings.Settings) (*Invoice, Warnings, error) {
	var (
		result   *Invoice
		warnings Warnings
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if !inv.Status.CanFinalize() {
			return illegal(EntityInvoice, "finalize", inv.Status)
		}
		if inv.IssueDate == nil {
			today := s.today()
			inv.IssueDate = &today
		}
		if inv.DueDate == nil {
			if cfg.DefaultPaymentTermsDays > 0 {
				due := inv.IssueDate.AddDate(0, 0, cfg.DefaultPaymentTermsDays)
				inv.DueDate = &due
			} else {
				warnings = append(warnings, "missing default payment terms days")
			}
		}
		inv.Status = InvoiceStatusSent
		if err := tx.UpdateInvoice(ctx, *inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("finalize invoice: %w", err)
	}
	s.warn(ctx, EntityInvoice, id, warnings)
	s.hooks.Fire(ctx, s.event(EntityInvoice, result.ID, result.Number, "finalize",
		string(InvoiceStatusDraft), string(result.Status)))
	return result, warnings, nil
}

// RevertInvoiceToDraft clears both dates of a SENT invoice.
func (s *Service) RevertInvoiceToDraft(ctx context.Context, id int64) (*Invoice, error) {
	return s.moveInvoice(ctx, id, "revert", InvoiceStatus.CanRevert, func(inv *Invoice) {
		inv.IssueDate = nil
		inv.DueDate = nil
		inv.Status = InvoiceStatusDraft
	})
}

// CancelInvoice administratively cancels an issued invoice. Reconciliation
// leaves cancelled invoices alone afterwards.
func (s *Service) CancelInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.moveInvoice(ctx, id, "cancel", InvoiceStatus.CanCancel, func(inv *Invoice) {
		inv.Status = InvoiceStatusCancelled
	})
}

func (s *Service) moveInvoice(ctx context.Context, id int64, action string, allowed func(InvoiceStatus) bool, apply func(*Invoice)) (*Invoice, error) {
	var (
		result *Invoice
		from   InvoiceStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(inv.Status) {
			return illegal(EntityInvoice, action, inv.Status)
		}
		from = inv.Status
		apply(inv)
		if err := tx.UpdateInvoice(ctx, *inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s invoice: %w", action, err)
	}
	s.hooks.Fire(ctx, s.event(EntityInvoice, result.ID, result.Number, action, string(from), string(result.Status)))
	return result, nil
}
