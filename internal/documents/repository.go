package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/numbering"
	"github.com/odyssey-erp/catering/internal/platform/db"
)

// Reader exposes document lookups. Get methods load items, and invoices also
// load their payments.
type Reader interface {
	GetQuotation(ctx context.Context, id int64) (*Quotation, error)
	ListQuotations(ctx context.Context, f QuotationFilter) ([]Quotation, int, error)
	CountOrdersForQuotation(ctx context.Context, quotationID int64) (int, error)

	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, int, error)
	CountInvoicesForOrder(ctx context.Context, orderID int64) (int, error)

	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error)
	ListOpenInvoiceIDs(ctx context.Context) ([]int64, error)
	GetPayment(ctx context.Context, id int64) (*Payment, error)

	GetDeliveryOrder(ctx context.Context, id int64) (*DeliveryOrder, error)
	ListDeliveryOrders(ctx context.Context, f DeliveryOrderFilter) ([]DeliveryOrder, int, error)
	// DeliveredQuantities sums quantity delivered per order item across the
	// order's non-cancelled delivery orders, skipping excludeID.
	DeliveredQuantities(ctx context.Context, orderID, excludeID int64) (map[int64]decimal.Decimal, error)

	GetCreditNote(ctx context.Context, id int64) (*CreditNote, error)
	ListCreditNotes(ctx context.Context, f CreditNoteFilter) ([]CreditNote, int, error)

	RecentDocuments(ctx context.Context, entity string, clientID int64, limit int) ([]clients.DocumentSummary, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	Reader

	CreateQuotation(ctx context.Context, q Quotation) (*Quotation, error)
	UpdateQuotation(ctx context.Context, q Quotation) error

	CreateOrder(ctx context.Context, o Order) (*Order, error)
	UpdateOrder(ctx context.Context, o Order) error

	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	SetInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error

	ReplaceLines(ctx context.Context, kind LineKind, parentID int64, items []LineItem) ([]LineItem, error)

	CreatePayment(ctx context.Context, p Payment) (*Payment, error)
	UpdatePayment(ctx context.Context, p Payment) (*Payment, error)
	DeletePayment(ctx context.Context, id int64) error

	CreateDeliveryOrder(ctx context.Context, d DeliveryOrder) (*DeliveryOrder, error)
	UpdateDeliveryOrder(ctx context.Context, d DeliveryOrder) error
	ReplaceDeliveryItems(ctx context.Context, deliveryOrderID int64, items []DeliveryOrderItem) ([]DeliveryOrderItem, error)

	CreateCreditNote(ctx context.Context, c CreditNote) (*CreditNote, error)
	UpdateCreditNote(ctx context.Context, c CreditNote) error
	ReplaceCreditNoteItems(ctx context.Context, creditNoteID int64, items []CreditNoteItem) ([]CreditNoteItem, error)

	// AssignNumber writes number only while the column is still NULL.
	AssignNumber(ctx context.Context, kind numbering.Kind, id int64, number string) (bool, error)
}

// Repository is the pool-level entry point.
type Repository interface {
	Reader
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// store runs every query against a pool or a transaction.
type store struct {
	q db.DBTX
}

type pgRepository struct {
	store
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{store: store{q: pool}, pool: pool}
}

// WithTx wraps fn in a repeatable-read transaction.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &store{q: tx})
	})
}

// ============================================================================
// HELPERS
// ============================================================================

type filterBuilder struct {
	conditions []string
	args       []any
}

func (b *filterBuilder) add(expr string, arg any) {
	b.args = append(b.args, arg)
	b.conditions = append(b.conditions, fmt.Sprintf(expr, len(b.args)))
}

func (b *filterBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// page appends limit/offset args and returns the matching SQL clause.
func (b *filterBuilder) page(limit, offset int) string {
	if limit <= 0 {
		limit = 50
	}
	b.args = append(b.args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(b.args)-1, len(b.args))
}

func (s *store) count(ctx context.Context, table string, b *filterBuilder) (int, error) {
	var total int
	err := s.q.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" "+b.where(), b.args...).Scan(&total)
	return total, err
}

func notFound(err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

func mustAffect(tagRows int64, target error) error {
	if tagRows == 0 {
		return target
	}
	return nil
}

// ============================================================================
// LINE ITEMS
// ============================================================================

var lineTables = map[LineKind]struct{ table, parent string }{
	LineKindQuotation: {"quotation_items", "quotation_id"},
	LineKindOrder:     {"order_items", "order_id"},
	LineKindInvoice:   {"invoice_items", "invoice_id"},
}

func (s *store) loadLines(ctx context.Context, kind LineKind, parentID int64) ([]LineItem, error) {
	t, ok := lineTables[kind]
	if !ok {
		return nil, fmt.Errorf("documents: unknown line kind %q", kind)
	}
	rows, err := s.q.Query(ctx, fmt.Sprintf(`
		SELECT id, %[2]s, menu_item_id, description, quantity, unit_price, grouping_label, position
		FROM %[1]s WHERE %[2]s = $1 ORDER BY position, id`, t.table, t.parent), parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []LineItem{}
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.ParentID, &it.MenuItemID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.GroupingLabel, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ReplaceLines deletes the parent's lines and inserts items in order.
func (s *store) ReplaceLines(ctx context.Context, kind LineKind, parentID int64, items []LineItem) ([]LineItem, error) {
	t, ok := lineTables[kind]
	if !ok {
		return nil, fmt.Errorf("documents: unknown line kind %q", kind)
	}
	if _, err := s.q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.table, t.parent), parentID); err != nil {
		if db.HasCode(err, db.CodeForeignKeyViolation) {
			return nil, ErrLinesReferenced
		}
		return nil, err
	}
	out := make([]LineItem, 0, len(items))
	insert := fmt.Sprintf(`
		INSERT INTO %s (%s, menu_item_id, description, quantity, unit_price, grouping_label, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`, t.table, t.parent)
	for i, it := range items {
		it.ParentID = parentID
		it.Position = i
		if err := s.q.QueryRow(ctx, insert, parentID, it.MenuItemID, it.Description,
			it.Quantity, it.UnitPrice, it.GroupingLabel, it.Position).Scan(&it.ID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// ============================================================================
// NUMBERING
// ============================================================================

var numberTables = map[numbering.Kind]string{
	numbering.KindQuotation:     "quotations",
	numbering.KindOrder:         "orders",
	numbering.KindInvoice:       "invoices",
	numbering.KindDeliveryOrder: "delivery_orders",
	numbering.KindCreditNote:    "credit_notes",
}

func (s *store) AssignNumber(ctx context.Context, kind numbering.Kind, id int64, number string) (bool, error) {
	table, ok := numberTables[kind]
	if !ok {
		return false, fmt.Errorf("documents: unknown number kind %q", kind)
	}
	tag, err := s.q.Exec(ctx, `UPDATE `+table+` SET number = $2 WHERE id = $1 AND number IS NULL`, id, number)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ============================================================================
// CLIENT INDEX
// ============================================================================

var recentQueries = map[string]string{
	EntityQuotation: `SELECT id, COALESCE(number, ''), title, status, issue_date FROM quotations
		WHERE client_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
	EntityOrder: `SELECT id, COALESCE(number, ''), title, status, event_date FROM orders
		WHERE client_id = $1 ORDER BY event_date DESC NULLS LAST, id DESC LIMIT $2`,
	EntityInvoice: `SELECT id, COALESCE(number, ''), title, status, issue_date FROM invoices
		WHERE client_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
}

func (s *store) RecentDocuments(ctx context.Context, entity string, clientID int64, limit int) ([]clients.DocumentSummary, error) {
	query, ok := recentQueries[entity]
	if !ok {
		return nil, fmt.Errorf("documents: no recent index for %q", entity)
	}
	rows, err := s.q.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []clients.DocumentSummary{}
	for rows.Next() {
		var d clients.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Number, &d.Title, &d.Status, &d.Date); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
