package documents

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/catering/internal/money"
	"github.com/odyssey-erp/catering/internal/platform/db"
)

// ============================================================================
// QUOTATIONS
// ============================================================================

const quotationColumns = `id, COALESCE(number, ''), client_id, title, issue_date, valid_until, status,
	version, previous_version_id, discount_kind, discount_value, terms, notes, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var status, discountKind string
	if err := row.Scan(&q.ID, &q.Number, &q.ClientID, &q.Title, &q.IssueDate, &q.ValidUntil, &status,
		&q.Version, &q.PreviousVersionID, &discountKind, &q.Discount.Value, &q.Terms, &q.Notes,
		&q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	q.Status = QuotationStatus(status)
	q.Discount.Kind = money.DiscountKind(discountKind)
	q.Items = []LineItem{}
	return &q, nil
}

func (s *store) GetQuotation(ctx context.Context, id int64) (*Quotation, error) {
	q, err := scanQuotation(s.q.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if q.Items, err = s.loadLines(ctx, LineKindQuotation, id); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *store) ListQuotations(ctx context.Context, f QuotationFilter) ([]Quotation, int, error) {
	var b filterBuilder
	if f.Status != "" {
		b.add("status = $%d", string(f.Status))
	}
	if f.ClientID > 0 {
		b.add("client_id = $%d", f.ClientID)
	}
	total, err := s.count(ctx, "quotations", &b)
	if err != nil {
		return nil, 0, err
	}
	where := b.where()
	page := b.page(f.Limit, f.Offset)
	rows, err := s.q.Query(ctx, `SELECT `+quotationColumns+` FROM quotations `+where+
		` ORDER BY created_at DESC, id DESC `+page, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (s *store) CountOrdersForQuotation(ctx context.Context, quotationID int64) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE quotation_id = $1`, quotationID).Scan(&n)
	return n, err
}

func (s *store) CreateQuotation(ctx context.Context, q Quotation) (*Quotation, error) {
	return scanQuotation(s.q.QueryRow(ctx, `
		INSERT INTO quotations (client_id, title, issue_date, valid_until, status, version,
			previous_version_id, discount_kind, discount_value, terms, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+quotationColumns,
		q.ClientID, q.Title, q.IssueDate, q.ValidUntil, string(q.Status), q.Version,
		q.PreviousVersionID, string(q.Discount.Kind), q.Discount.Value, q.Terms, q.Notes))
}

// UpdateQuotation writes every mutable header column, status included.
func (s *store) UpdateQuotation(ctx context.Context, q Quotation) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE quotations SET client_id = $2, title = $3, issue_date = $4, valid_until = $5, status = $6,
			discount_kind = $7, discount_value = $8, terms = $9, notes = $10, updated_at = NOW()
		WHERE id = $1`,
		q.ID, q.ClientID, q.Title, q.IssueDate, q.ValidUntil, string(q.Status),
		string(q.Discount.Kind), q.Discount.Value, q.Terms, q.Notes)
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrNotFound)
}

// ============================================================================
// ORDERS
// ============================================================================

const orderColumns = `id, COALESCE(number, ''), client_id, quotation_id, title, status, event_date,
	delivery_address, discount_kind, discount_value, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status, discountKind string
	if err := row.Scan(&o.ID, &o.Number, &o.ClientID, &o.QuotationID, &o.Title, &status, &o.EventDate,
		&o.DeliveryAddress, &discountKind, &o.Discount.Value, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	o.Status = OrderStatus(status)
	o.Discount.Kind = money.DiscountKind(discountKind)
	o.Items = []LineItem{}
	return &o, nil
}

func (s *store) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(s.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.loadLines(ctx, LineKindOrder, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *store) ListOrders(ctx context.Context, f OrderFilter) ([]Order, int, error) {
	var b filterBuilder
	if f.Status != "" {
		b.add("status = $%d", string(f.Status))
	}
	if f.ClientID > 0 {
		b.add("client_id = $%d", f.ClientID)
	}
	total, err := s.count(ctx, "orders", &b)
	if err != nil {
		return nil, 0, err
	}
	where := b.where()
	page := b.page(f.Limit, f.Offset)
	rows, err := s.q.Query(ctx, `SELECT `+orderColumns+` FROM orders `+where+
		` ORDER BY event_date DESC NULLS LAST, id DESC `+page, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (s *store) CountInvoicesForOrder(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE order_id = $1`, orderID).Scan(&n)
	return n, err
}

func (s *store) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	created, err := scanOrder(s.q.QueryRow(ctx, `
		INSERT INTO orders (client_id, quotation_id, title, status, event_date, delivery_address,
			discount_kind, discount_value, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		o.ClientID, o.QuotationID, o.Title, string(o.Status), o.EventDate, o.DeliveryAddress,
		string(o.Discount.Kind), o.Discount.Value, o.Notes))
	if db.HasCode(err, db.CodeUniqueViolation) {
		return nil, ErrOrderExists
	}
	return created, err
}

func (s *store) UpdateOrder(ctx context.Context, o Order) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE orders SET client_id = $2, quotation_id = $3, title = $4, status = $5, event_date = $6,
			delivery_address = $7, discount_kind = $8, discount_value = $9, notes = $10, updated_at = NOW()
		WHERE id = $1`,
		o.ID, o.ClientID, o.QuotationID, o.Title, string(o.Status), o.EventDate,
		o.DeliveryAddress, string(o.Discount.Kind), o.Discount.Value, o.Notes)
	if db.HasCode(err, db.CodeUniqueViolation) {
		return ErrOrderExists
	}
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrNotFound)
}
