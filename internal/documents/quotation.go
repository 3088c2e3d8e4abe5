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
// QUOTATION OPERATIONS
// ============================================================================

// GetQuotation returns a quotation with its items.
func (s *Service) GetQuotation(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.GetQuotation(ctx, id)
}

// ListQuotations returns quotations newest first.
func (s *Service) ListQuotations(ctx context.Context, f QuotationFilter) ([]Quotation, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, f.Status)
	}
	return s.repo.ListQuotations(ctx, f)
}

// createQuotation inserts header and items and numbers the new row.
func createQuotation(ctx context.Context, tx TxRepository, q Quotation, items []LineItem) (*Quotation, error) {
	created, err := tx.CreateQuotation(ctx, q)
	if err != nil {
		return nil, err
	}
	if created.Items, err = tx.ReplaceLines(ctx, LineKindQuotation, created.ID, items); err != nil {
		return nil, err
	}
	if created.Number, err = numbering.Assign(ctx, tx, numbering.KindQuotation, created.ID, created.CreatedAt, created.Number); err != nil {
		return nil, err
	}
	return created, nil
}

// CreateQuotation stores a new DRAFT quotation at version 1. Blank terms fall
// back to the configured default.
func (s *Service) CreateQuotation(ctx context.Context, req QuotationRequest, cfg settings.Settings) (*Quotation, error) {
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

	q := Quotation{
		ClientID: req.ClientID,
		Title:    strings.TrimSpace(req.Title),
		Status:   QuotationStatusDraft,
		Version:  1,
		Discount: discount,
		Terms:    defaultString(req.Terms, cfg.DefaultTerms),
		Notes:    req.Notes,
	}

	var created *Quotation
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = createQuotation(ctx, tx, q, items)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}

	s.hooks.Fire(ctx, s.event(EntityQuotation, created.ID, created.Number, "create", "", string(created.Status)))
	return created, nil
}

// UpdateQuotation replaces header fields and items of a DRAFT quotation.
func (s *Service) UpdateQuotation(ctx context.Context, id int64, req QuotationRequest) (*Quotation, error) {
	discount, err := parseDiscount(req.Discount)
	if err != nil {
		return nil, err
	}
	if err := s.verifyClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	var updated *Quotation
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		if !q.Status.CanEdit() {
			return illegal(EntityQuotation, "edit", q.Status)
		}
		items, err := s.buildLines(ctx, req.Items, menuItemSet(q.Items))
		if err != nil {
			return err
		}
		q.ClientID = req.ClientID
		q.Title = strings.TrimSpace(req.Title)
		q.Discount = discount
		q.Terms = req.Terms
		q.Notes = req.Notes
		if err := tx.UpdateQuotation(ctx, *q); err != nil {
			return err
		}
		if q.Items, err = tx.ReplaceLines(ctx, LineKindQuotation, q.ID, items); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	s.hooks.Fire(ctx, s.event(EntityQuotation, updated.ID, updated.Number, "update", "", ""))
	return updated, nil
}

// FinalizeQuotation stamps the issue date, defaults the validity window and
// moves a DRAFT quotation to SENT.
func (s *Service) FinalizeQuotation(ctx context.Context, id int64, cfg settings.Settings) (*Quotation, Warnings, error) {
	var (
		result   *Quotation
		warnings Warnings
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		if !q.Status.CanFinalize() {
			return illegal(EntityQuotation, "finalize", q.Status)
		}
		if q.IssueDate == nil {
			today := s.today()
			q.IssueDate = &today
		}
		if q.ValidUntil == nil {
			if cfg.DefaultValidityDays > 0 {
				until := q.IssueDate.AddDate(0, 0, cfg.DefaultValidityDays)
				q.ValidUntil = &until
			} else {
				warnings = append(warnings, "missing default validity days")
			}
		}
		q.Status = QuotationStatusSent
		if err := tx.UpdateQuotation(ctx, *q); err != nil {
			return err
		}
		result = q
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("finalize quotation: %w", err)
	}
	s.warn(ctx, EntityQuotation, id, warnings)
	s.hooks.Fire(ctx, s.event(EntityQuotation, result.ID, result.Number, "finalize",
		string(QuotationStatusDraft), string(result.Status)))
	return result, warnings, nil
}

// RevertQuotationToDraft clears both dates of a SENT quotation.
func (s *Service) RevertQuotationToDraft(ctx context.Context, id int64) (*Quotation, error) {
	return s.moveQuotation(ctx, id, "revert", QuotationStatus.CanRevert, func(q *Quotation) {
		q.IssueDate = nil
		q.ValidUntil = nil
		q.Status = QuotationStatusDraft
	})
}

// AcceptQuotation records the client's acceptance.
func (s *Service) AcceptQuotation(ctx context.Context, id int64) (*Quotation, error) {
	return s.moveQuotation(ctx, id, "accept", QuotationStatus.CanDecide, func(q *Quotation) {
		q.Status = QuotationStatusAccepted
	})
}

// RejectQuotation records the client's rejection.
func (s *Service) RejectQuotation(ctx context.Context, id int64) (*Quotation, error) {
	return s.moveQuotation(ctx, id, "reject", QuotationStatus.CanDecide, func(q *Quotation) {
		q.Status = QuotationStatusRejected
	})
}

func (s *Service) moveQuotation(ctx context.Context, id int64, action string, allowed func(QuotationStatus) bool, apply func(*Quotation)) (*Quotation, error) {
	var (
		result *Quotation
		from   QuotationStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(q.Status) {
			return illegal(EntityQuotation, action, q.Status)
		}
		from = q.Status
		apply(q)
		if err := tx.UpdateQuotation(ctx, *q); err != nil {
			return err
		}
		result = q
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s quotation: %w", action, err)
	}
	s.hooks.Fire(ctx, s.event(EntityQuotation, result.ID, result.Number, action, string(from), string(result.Status)))
	return result, nil
}

// CreateRevision clones a SENT, ACCEPTED or REJECTED quotation into a new DRAFT
// version and supersedes the source in the same transaction.
func (s *Service) CreateRevision(ctx context.Context, id int64) (*Quotation, error) {
	var (
		source   *Quotation
		from     QuotationStatus
		revision *Quotation
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		if !q.Status.CanRevise() {
			return illegal(EntityQuotation, "revise", q.Status)
		}
		prev := q.ID
		next := Quotation{
			ClientID:          q.ClientID,
			Title:             q.Title,
			Status:            QuotationStatusDraft,
			Version:           q.Version + 1,
			PreviousVersionID: &prev,
			Discount:          q.Discount,
			Terms:             q.Terms,
			Notes:             q.Notes,
		}
		if revision, err = createQuotation(ctx, tx, next, cloneItems(q.Items)); err != nil {
			return err
		}
		from = q.Status
		q.Status = QuotationStatusSuperseded
		if err := tx.UpdateQuotation(ctx, *q); err != nil {
			return err
		}
		source = q
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("revise quotation: %w", err)
	}

	s.logger.InfoContext(ctx, "quotation revised",
		slog.Int64("source_id", source.ID), slog.Int64("revision_id", revision.ID), slog.Int("version", revision.Version))
	s.hooks.Fire(ctx,
		s.event(EntityQuotation, source.ID, source.Number, "supersede", string(from), string(source.Status)),
		s.event(EntityQuotation, revision.ID, revision.Number, "revise", "", string(revision.Status)),
	)
	return revision, nil
}

// CreateOrderFromQuotation turns an ACCEPTED quotation into a CONFIRMED order.
// A quotation yields at most one order this way.
func (s *Service) CreateOrderFromQuotation(ctx context.Context, id int64) (*Order, error) {
	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		if !q.Status.CanCreateOrder() {
			return illegal(EntityQuotation, "create an order from", q.Status)
		}
		n, err := tx.CountOrdersForQuotation(ctx, q.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: quotation %s", ErrOrderExists, q.Number)
		}
		quotationID := q.ID
		order, err = createOrder(ctx, tx, Order{
			ClientID:    q.ClientID,
			QuotationID: &quotationID,
			Title:       q.Title,
			Status:      OrderStatusConfirmed,
			Discount:    q.Discount,
			Notes:       q.Notes,
		}, cloneItems(q.Items))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create order from quotation: %w", err)
	}

	s.logger.InfoContext(ctx, "order created from quotation",
		slog.Int64("quotation_id", id), slog.Int64("order_id", order.ID))
	s.hooks.Fire(ctx, Event{
		Entity: EntityOrder, ID: order.ID, Number: order.Number, Action: "create",
		To: string(order.Status), Meta: map[string]any{"quotation_id": id}, At: s.now(),
	})
	return order, nil
}
