package documents

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/money"
	"github.com/odyssey-erp/catering/internal/platform/db"
)

// ============================================================================
// INVOICES
// ============================================================================

const invoiceColumns = `id, COALESCE(number, ''), client_id, quotation_id, order_id, title, issue_date, due_date,
	status, discount_kind, discount_value, terms, payment_details, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status, discountKind string
	if err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.QuotationID, &inv.OrderID, &inv.Title,
		&inv.IssueDate, &inv.DueDate, &status, &discountKind, &inv.Discount.Value, &inv.Terms,
		&inv.PaymentDetails, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	inv.Status = InvoiceStatus(status)
	inv.Discount.Kind = money.DiscountKind(discountKind)
	inv.Items = []LineItem{}
	inv.Payments = []Payment{}
	return &inv, nil
}

func (s *store) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(s.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if inv.Items, err = s.loadLines(ctx, LineKindInvoice, id); err != nil {
		return nil, err
	}
	if inv.Payments, err = s.listPayments(ctx, id); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *store) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error) {
	var b filterBuilder
	if f.Status != "" {
		b.add("status = $%d", string(f.Status))
	}
	if f.ClientID > 0 {
		b.add("client_id = $%d", f.ClientID)
	}
	if f.OrderID > 0 {
		b.add("order_id = $%d", f.OrderID)
	}
	total, err := s.count(ctx, "invoices", &b)
	if err != nil {
		return nil, 0, err
	}
	where := b.where()
	page := b.page(f.Limit, f.Offset)
	rows, err := s.q.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices `+where+
		` ORDER BY created_at DESC, id DESC `+page, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

// ListOpenInvoiceIDs returns every invoice reconciliation may move.
func (s *store) ListOpenInvoiceIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT id FROM invoices WHERE status IN ('SENT', 'PARTIALLY_PAID', 'PAID') ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	return scanInvoice(s.q.QueryRow(ctx, `
		INSERT INTO invoices (client_id, quotation_id, order_id, title, issue_date, due_date, status,
			discount_kind, discount_value, terms, payment_details, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+invoiceColumns,
		inv.ClientID, inv.QuotationID, inv.OrderID, inv.Title, inv.IssueDate, inv.DueDate, string(inv.Status),
		string(inv.Discount.Kind), inv.Discount.Value, inv.Terms, inv.PaymentDetails, inv.Notes))
}

func (s *store) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE invoices SET client_id = $2, quotation_id = $3, order_id = $4, title = $5, issue_date = $6,
			due_date = $7, status = $8, discount_kind = $9, discount_value = $10, terms = $11,
			payment_details = $12, notes = $13, updated_at = NOW()
		WHERE id = $1`,
		inv.ID, inv.ClientID, inv.QuotationID, inv.OrderID, inv.Title, inv.IssueDate, inv.DueDate,
		string(inv.Status), string(inv.Discount.Kind), inv.Discount.Value, inv.Terms, inv.PaymentDetails, inv.Notes)
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrNotFound)
}

// SetInvoiceStatus touches only the status so reconciliation never clobbers
// header edits.
func (s *store) SetInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	tag, err := s.q.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrNotFound)
}

// ============================================================================
// PAYMENTS
// ============================================================================

const paymentColumns = `id, invoice_id, payment_date, amount, method, reference, notes, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var method *string
	if err := row.Scan(&p.ID, &p.InvoiceID, &p.PaymentDate, &p.Amount, &method, &p.Reference, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if method != nil {
		m := PaymentMethod(*method)
		p.Method = &m
	}
	return &p, nil
}

func methodArg(m *PaymentMethod) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

func (s *store) listPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := s.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1
		ORDER BY payment_date, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *store) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(s.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (s *store) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	return scanPayment(s.q.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, payment_date, amount, method, reference, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+paymentColumns,
		p.InvoiceID, p.PaymentDate, p.Amount, methodArg(p.Method), p.Reference, p.Notes))
}

func (s *store) UpdatePayment(ctx context.Context, p Payment) (*Payment, error) {
	return scanPayment(s.q.QueryRow(ctx, `
		UPDATE payments SET payment_date = $2, amount = $3, method = $4, reference = $5, notes = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+paymentColumns,
		p.ID, p.PaymentDate, p.Amount, methodArg(p.Method), p.Reference, p.Notes))
}

func (s *store) DeletePayment(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrPaymentNotFound)
}

// ============================================================================
// DELIVERY ORDERS
// ============================================================================

const deliveryColumns = `id, COALESCE(number, ''), order_id, delivery_date, status, recipient,
	address_override, notes, created_at, updated_at`

func scanDelivery(row pgx.Row) (*DeliveryOrder, error) {
	var d DeliveryOrder
	var status string
	if err := row.Scan(&d.ID, &d.Number, &d.OrderID, &d.DeliveryDate, &status, &d.Recipient,
		&d.AddressOverride, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	d.Status = DeliveryStatus(status)
	d.Items = []DeliveryOrderItem{}
	return &d, nil
}

func (s *store) GetDeliveryOrder(ctx context.Context, id int64) (*DeliveryOrder, error) {
	d, err := scanDelivery(s.q.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM delivery_orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, `SELECT id, delivery_order_id, order_item_id, quantity_delivered
		FROM delivery_order_items WHERE delivery_order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it DeliveryOrderItem
		if err := rows.Scan(&it.ID, &it.DeliveryOrderID, &it.OrderItemID, &it.QuantityDelivered); err != nil {
			return nil, err
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

func (s *store) ListDeliveryOrders(ctx context.Context, f DeliveryOrderFilter) ([]DeliveryOrder, int, error) {
	var b filterBuilder
	if f.Status != "" {
		b.add("status = $%d", string(f.Status))
	}
	if f.OrderID > 0 {
		b.add("order_id = $%d", f.OrderID)
	}
	total, err := s.count(ctx, "delivery_orders", &b)
	if err != nil {
		return nil, 0, err
	}
	where := b.where()
	page := b.page(f.Limit, f.Offset)
	rows, err := s.q.Query(ctx, `SELECT `+deliveryColumns+` FROM delivery_orders `+where+
		` ORDER BY delivery_date DESC NULLS LAST, id DESC `+page, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []DeliveryOrder{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (s *store) DeliveredQuantities(ctx context.Context, orderID, excludeID int64) (map[int64]decimal.Decimal, error) {
	rows, err := s.q.Query(ctx, `
		SELECT doi.order_item_id, COALESCE(SUM(doi.quantity_delivered), 0)
		FROM delivery_order_items doi
		JOIN delivery_orders d ON d.id = doi.delivery_order_id
		WHERE d.order_id = $1 AND d.status <> 'CANCELLED' AND d.id <> $2
		GROUP BY doi.order_item_id`, orderID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var itemID int64
		var qty decimal.Decimal
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, err
		}
		out[itemID] = qty
	}
	return out, rows.Err()
}

func (s *store) CreateDeliveryOrder(ctx context.Context, d DeliveryOrder) (*DeliveryOrder, error) {
	return scanDelivery(s.q.QueryRow(ctx, `
		INSERT INTO delivery_orders (order_id, delivery_date, status, recipient, address_override, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+deliveryColumns,
		d.OrderID, d.DeliveryDate, string(d.Status), d.Recipient, d.AddressOverride, d.Notes))
}

func (s *store) UpdateDeliveryOrder(ctx context.Context, d DeliveryOrder) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE delivery_orders SET delivery_date = $2, status = $3, recipient = $4, address_override = $5,
			notes = $6, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.DeliveryDate, string(d.Status), d.Recipient, d.AddressOverride, d.Notes)
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrNotFound)
}

func (s *store) ReplaceDeliveryItems(ctx context.Context, deliveryOrderID int64, items []DeliveryOrderItem) ([]DeliveryOrderItem, error) {
	if _, err := s.q.Exec(ctx, `DELETE FROM delivery_order_items WHERE delivery_order_id = $1`, deliveryOrderID); err != nil {
		return nil, err
	}
	out := make([]DeliveryOrderItem, 0, len(items))
	for _, it := range items {
		it.DeliveryOrderID = deliveryOrderID
		if err := s.q.QueryRow(ctx, `
			INSERT INTO delivery_order_items (delivery_order_id, order_item_id, quantity_delivered)
			VALUES ($1, $2, $3) RETURNING id`,
			deliveryOrderID, it.OrderItemID, it.QuantityDelivered).Scan(&it.ID); err != nil {
			if db.HasCode(err, db.CodeForeignKeyViolation) {
				return nil, ErrItemNotInOrder
			}
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// ============================================================================
// CREDIT NOTES
// ============================================================================

const creditNoteColumns = `id, COALESCE(number, ''), client_id, invoice_id, issue_date, status, reason,
	created_at, updated_at`

func scanCreditNote(row pgx.Row) (*CreditNote, error) {
	var c CreditNote
	var status string
	if err := row.Scan(&c.ID, &c.Number, &c.ClientID, &c.InvoiceID, &c.IssueDate, &status, &c.Reason,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	c.Status = CreditNoteStatus(status)
	c.Items = []CreditNoteItem{}
	return &c, nil
}

func (s *store) GetCreditNote(ctx context.Context, id int64) (*CreditNote, error) {
	c, err := scanCreditNote(s.q.QueryRow(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, `SELECT id, credit_note_id, invoice_item_id, description, quantity, unit_price
		FROM credit_note_items WHERE credit_note_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it CreditNoteItem
		if err := rows.Scan(&it.ID, &it.CreditNoteID, &it.InvoiceItemID, &it.Description,
			&it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (s *store) ListCreditNotes(ctx context.Context, f CreditNoteFilter) ([]CreditNote, int, error) {
	var b filterBuilder
	if f.ClientID > 0 {
		b.add("client_id = $%d", f.ClientID)
	}
	if f.InvoiceID > 0 {
		b.add("invoice_id = $%d", f.InvoiceID)
	}
	total, err := s.count(ctx, "credit_notes", &b)
	if err != nil {
		return nil, 0, err
	}
	where := b.where()
	page := b.page(f.Limit, f.Offset)
	rows, err := s.q.Query(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes `+where+
		` ORDER BY created_at DESC, id DESC `+page, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []CreditNote{}
	for rows.Next() {
		c, err := scanCreditNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (s *store) CreateCreditNote(ctx context.Context, c CreditNote) (*CreditNote, error) {
	return scanCreditNote(s.q.QueryRow(ctx, `
		INSERT INTO credit_notes (client_id, invoice_id, issue_date, status, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+creditNoteColumns,
		c.ClientID, c.InvoiceID, c.IssueDate, string(c.Status), c.Reason))
}

func (s *store) UpdateCreditNote(ctx context.Context, c CreditNote) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE credit_notes SET issue_date = $2, status = $3, reason = $4, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.IssueDate, string(c.Status), c.Reason)
	if err != nil {
		return err
	}
	return mustAffect(tag.RowsAffected(), ErrNotFound)
}

func (s *store) ReplaceCreditNoteItems(ctx context.Context, creditNoteID int64, items []CreditNoteItem) ([]CreditNoteItem, error) {
	if _, err := s.q.Exec(ctx, `DELETE FROM credit_note_items WHERE credit_note_id = $1`, creditNoteID); err != nil {
		return nil, err
	}
	out := make([]CreditNoteItem, 0, len(items))
	for _, it := range items {
		it.CreditNoteID = creditNoteID
		if err := s.q.QueryRow(ctx, `
			INSERT INTO credit_note_items (credit_note_id, invoice_item_id, description, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			creditNoteID, it.InvoiceItemID, it.Description, it.Quantity, it.UnitPrice).Scan(&it.ID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}
