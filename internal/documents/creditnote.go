package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/catering/internal/numbering"
)

// ============================================================================
// CREDIT NOTE OPERATIONS
// ============================================================================

// GetCreditNote returns a credit note with its items.
func (s *Service) GetCreditNote(ctx context.Context, id int64) (*CreditNote, error) {
	return s.repo.GetCreditNote(ctx, id)
}

// ListCreditNotes returns credit notes newest first.
func (s *Service) ListCreditNotes(ctx context.Context, f CreditNoteFilter) ([]CreditNote, int, error) {
	return s.repo.ListCreditNotes(ctx, f)
}

// buildCreditItems resolves requested lines. Lines pointing at an invoice item
// must belong to inv and default their description and price from it.
func buildCreditItems(inv *Invoice, reqs []CreditNoteItemRequest) ([]CreditNoteItem, error) {
	items := make([]CreditNoteItem, 0, len(reqs))
	for i, req := range reqs {
		if req.Quantity.IsNegative() {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
		item := CreditNoteItem{
			Description: strings.TrimSpace(req.Description),
			Quantity:    req.Quantity,
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		if req.InvoiceItemID != nil {
			if inv == nil {
				return nil, fmt.Errorf("line %d: %w: credit note has no invoice", i+1, ErrItemNotInInvoice)
			}
			src, ok := inv.Item(*req.InvoiceItemID)
			if !ok {
				return nil, fmt.Errorf("line %d: %w: item %d, invoice %s", i+1, ErrItemNotInInvoice, *req.InvoiceItemID, inv.Number)
			}
			id := src.ID
			item.InvoiceItemID = &id
			if item.Description == "" {
				item.Description = src.Description
			}
			if req.UnitPrice == nil {
				item.UnitPrice = src.UnitPrice
			}
		} else if item.Description == "" || req.UnitPrice == nil {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrInvalidLine)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("line %d: %w: negative unit price", i+1, ErrInvalidLine)
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateCreditNote stores a DRAFT credit note, optionally against an issued
// invoice of the same client.
func (s *Service) CreateCreditNote(ctx context.Context, req CreditNoteRequest) (*CreditNote, error) {
	if err := s.verifyClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	var created *CreditNote
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var inv *Invoice
		if req.InvoiceID != nil {
			var err error
			if inv, err = tx.GetInvoice(ctx, *req.InvoiceID); err != nil {
				return fmt.Errorf("linked invoice: %w", err)
			}
			if inv.ClientID != req.ClientID {
				return fmt.Errorf("%w: invoice %s belongs to client %d", ErrClientMismatch, inv.Number, inv.ClientID)
			}
			if inv.Status == InvoiceStatusDraft {
				return fmt.Errorf("%w: invoice %s", ErrInvoiceNotIssued, inv.Number)
			}
		}
		items, err := buildCreditItems(inv, req.Items)
		if err != nil {
			return err
		}
		c, err := tx.CreateCreditNote(ctx, CreditNote{
			ClientID:  req.ClientID,
			InvoiceID: req.InvoiceID,
			Status:    CreditNoteStatusDraft,
			Reason:    req.Reason,
		})
		if err != nil {
			return err
		}
		if c.Items, err = tx.ReplaceCreditNoteItems(ctx, c.ID, items); err != nil {
			return err
		}
		if c.Number, err = numbering.Assign(ctx, tx, numbering.KindCreditNote, c.ID, c.CreatedAt, c.Number); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create credit note: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityCreditNote, created.ID, created.Number, "create", "", string(created.Status)))
	return created, nil
}

// IssueCreditNote moves DRAFT to ISSUED and stamps the issue date.
func (s *Service) IssueCreditNote(ctx context.Context, id int64) (*CreditNote, error) {
	return s.moveCreditNote(ctx, id, "issue", func(st CreditNoteStatus) bool {
		return st == CreditNoteStatusDraft
	}, func(c *CreditNote) {
		if c.IssueDate == nil {
			today := s.today()
			c.IssueDate = &today
		}
		c.Status = CreditNoteStatusIssued
	})
}

// CancelCreditNote cancels a DRAFT or ISSUED credit note.
func (s *Service) CancelCreditNote(ctx context.Context, id int64) (*CreditNote, error) {
	return s.moveCreditNote(ctx, id, "cancel", func(st CreditNoteStatus) bool {
		return st == CreditNoteStatusDraft || st == CreditNoteStatusIssued
	}, func(c *CreditNote) {
		c.Status = CreditNoteStatusCancelled
	})
}

func (s *Service) moveCreditNote(ctx context.Context, id int64, action string, allowed func(CreditNoteStatus) bool, apply func(*CreditNote)) (*CreditNote, error) {
	var (
		result *CreditNote
		from   CreditNoteStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCreditNote(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(c.Status) {
			return illegal(EntityCreditNote, action, c.Status)
		}
		from = c.Status
		apply(c)
		if err := tx.UpdateCreditNote(ctx, *c); err != nil {
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s credit note: %w", action, err)
	}
	s.hooks.Fire(ctx, s.event(EntityCreditNote, result.ID, result.Number, action, string(from), string(result.Status)))
	return result, nil
}
