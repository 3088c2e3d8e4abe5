package documents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/menu"
	"github.com/odyssey-erp/catering/internal/numbering"
	"github.com/odyssey-erp/catering/internal/settings"
	"github.com/odyssey-erp/catering/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	quotations  map[int64]Quotation
	orders      map[int64]Order
	invoices    map[int64]Invoice
	payments    map[int64]Payment
	deliveries  map[int64]DeliveryOrder
	creditNotes map[int64]CreditNote
	lines       map[LineKind]map[int64][]LineItem
	numbers     map[numbering.Kind]map[int64]string

	nextID     int64
	nextLineID int64
	writes     int
	createdAt  time.Time

	txError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotations:  make(map[int64]Quotation),
		orders:      make(map[int64]Order),
		invoices:    make(map[int64]Invoice),
		payments:    make(map[int64]Payment),
		deliveries:  make(map[int64]DeliveryOrder),
		creditNotes: make(map[int64]CreditNote),
		lines: map[LineKind]map[int64][]LineItem{
			LineKindQuotation: {},
			LineKindOrder:     {},
			LineKindInvoice:   {},
		},
		numbers:    make(map[numbering.Kind]map[int64]string),
		nextID:     1,
		nextLineID: 1,
		createdAt:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func copyLines(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func (m *mockRepository) number(kind numbering.Kind, id int64) string {
	return m.numbers[kind][id]
}

// ----------------------------------------------------------------------------
// quotations
// ----------------------------------------------------------------------------

func (m *mockRepository) GetQuotation(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	q.Number = m.number(numbering.KindQuotation, id)
	q.Items = copyLines(m.lines[LineKindQuotation][id])
	return &q, nil
}

func (m *mockRepository) ListQuotations(ctx context.Context, f QuotationFilter) ([]Quotation, int, error) {
	out := []Quotation{}
	for id := range m.quotations {
		q, _ := m.GetQuotation(ctx, id)
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.ClientID > 0 && q.ClientID != f.ClientID {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) CountOrdersForQuotation(ctx context.Context, quotationID int64) (int, error) {
	n := 0
	for _, o := range m.orders {
		if o.QuotationID != nil && *o.QuotationID == quotationID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) CreateQuotation(ctx context.Context, q Quotation) (*Quotation, error) {
	m.writes++
	q.ID = m.id()
	q.CreatedAt = m.createdAt
	q.UpdatedAt = m.createdAt
	q.Items = nil
	m.quotations[q.ID] = q
	q.Items = []LineItem{}
	return &q, nil
}

func (m *mockRepository) UpdateQuotation(ctx context.Context, q Quotation) error {
	if _, ok := m.quotations[q.ID]; !ok {
		return ErrNotFound
	}
	m.writes++
	q.Items = nil
	m.quotations[q.ID] = q
	return nil
}

// ----------------------------------------------------------------------------
// orders
// ----------------------------------------------------------------------------

func (m *mockRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Number = m.number(numbering.KindOrder, id)
	o.Items = copyLines(m.lines[LineKindOrder][id])
	return &o, nil
}

func (m *mockRepository) ListOrders(ctx context.Context, f OrderFilter) ([]Order, int, error) {
	out := []Order{}
	for id := range m.orders {
		o, _ := m.GetOrder(ctx, id)
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.ClientID > 0 && o.ClientID != f.ClientID {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) CountInvoicesForOrder(ctx context.Context, orderID int64) (int, error) {
	n := 0
	for _, inv := range m.invoices {
		if inv.OrderID != nil && *inv.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

// quotationTaken mirrors the UNIQUE constraint on orders.quotation_id.
func (m *mockRepository) quotationTaken(o Order) bool {
	if o.QuotationID == nil {
		return false
	}
	for _, other := range m.orders {
		if other.ID != o.ID && other.QuotationID != nil && *other.QuotationID == *o.QuotationID {
			return true
		}
	}
	return false
}

func (m *mockRepository) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	if m.quotationTaken(o) {
		return nil, ErrOrderExists
	}
	m.writes++
	o.ID = m.id()
	o.CreatedAt = m.createdAt
	o.UpdatedAt = m.createdAt
	o.Items = nil
	m.orders[o.ID] = o
	o.Items = []LineItem{}
	return &o, nil
}

func (m *mockRepository) UpdateOrder(ctx context.Context, o Order) error {
	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	if m.quotationTaken(o) {
		return ErrOrderExists
	}
	m.writes++
	o.Items = nil
	m.orders[o.ID] = o
	return nil
}

// ----------------------------------------------------------------------------
// invoices and payments
// ----------------------------------------------------------------------------

func (m *mockRepository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	inv.Number = m.number(numbering.KindInvoice, id)
	inv.Items = copyLines(m.lines[LineKindInvoice][id])
	inv.Payments = []Payment{}
	ids := make([]int64, 0)
	for pid, p := range m.payments {
		if p.InvoiceID == id {
			ids = append(ids, pid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, pid := range ids {
		inv.Payments = append(inv.Payments, m.payments[pid])
	}
	return &inv, nil
}

func (m *mockRepository) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, int, error) {
	out := []Invoice{}
	for id := range m.invoices {
		inv, _ := m.GetInvoice(ctx, id)
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.ClientID > 0 && inv.ClientID != f.ClientID {
			continue
		}
		if f.OrderID > 0 && (inv.OrderID == nil || *inv.OrderID != f.OrderID) {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) ListOpenInvoiceIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for id, inv := range m.invoices {
		if inv.Status.AcceptsPayments() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockRepository) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	m.writes++
	inv.ID = m.id()
	inv.CreatedAt = m.createdAt
	inv.UpdatedAt = m.createdAt
	inv.Items = nil
	inv.Payments = nil
	m.invoices[inv.ID] = inv
	inv.Items = []LineItem{}
	inv.Payments = []Payment{}
	return &inv, nil
}

func (m *mockRepository) UpdateInvoice(ctx context.Context, inv Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	m.writes++
	inv.Items = nil
	inv.Payments = nil
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockRepository) SetInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	m.writes++
	inv.Status = status
	m.invoices[id] = inv
	return nil
}

func (m *mockRepository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (m *mockRepository) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	m.writes++
	p.ID = m.id()
	p.CreatedAt = m.createdAt
	p.UpdatedAt = m.createdAt
	m.payments[p.ID] = p
	return &p, nil
}

func (m *mockRepository) UpdatePayment(ctx context.Context, p Payment) (*Payment, error) {
	existing, ok := m.payments[p.ID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	m.writes++
	p.CreatedAt = existing.CreatedAt
	m.payments[p.ID] = p
	return &p, nil
}

func (m *mockRepository) DeletePayment(ctx context.Context, id int64) error {
	if _, ok := m.payments[id]; !ok {
		return ErrPaymentNotFound
	}
	m.writes++
	delete(m.payments, id)
	return nil
}

// ----------------------------------------------------------------------------
// lines and numbering
// ----------------------------------------------------------------------------

func (m *mockRepository) ReplaceLines(ctx context.Context, kind LineKind, parentID int64, items []LineItem) ([]LineItem, error) {
	m.writes++
	out := make([]LineItem, 0, len(items))
	for i, it := range items {
		it.ID = m.nextLineID
		m.nextLineID++
		it.ParentID = parentID
		it.Position = i
		out = append(out, it)
	}
	m.lines[kind][parentID] = out
	return copyLines(out), nil
}

func (m *mockRepository) AssignNumber(ctx context.Context, kind numbering.Kind, id int64, number string) (bool, error) {
	if m.numbers[kind] == nil {
		m.numbers[kind] = make(map[int64]string)
	}
	if _, ok := m.numbers[kind][id]; ok {
		return false, nil
	}
	m.writes++
	m.numbers[kind][id] = number
	return true, nil
}

// ----------------------------------------------------------------------------
// delivery orders
// ----------------------------------------------------------------------------

func (m *mockRepository) GetDeliveryOrder(ctx context.Context, id int64) (*DeliveryOrder, error) {
	d, ok := m.deliveries[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Number = m.number(numbering.KindDeliveryOrder, id)
	items := make([]DeliveryOrderItem, len(d.Items))
	copy(items, d.Items)
	d.Items = items
	return &d, nil
}

func (m *mockRepository) ListDeliveryOrders(ctx context.Context, f DeliveryOrderFilter) ([]DeliveryOrder, int, error) {
	out := []DeliveryOrder{}
	for id := range m.deliveries {
		d, _ := m.GetDeliveryOrder(ctx, id)
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.OrderID > 0 && d.OrderID != f.OrderID {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) DeliveredQuantities(ctx context.Context, orderID, excludeID int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal)
	for id, d := range m.deliveries {
		if d.OrderID != orderID || d.Status == DeliveryStatusCancelled || id == excludeID {
			continue
		}
		for _, it := range d.Items {
			out[it.OrderItemID] = out[it.OrderItemID].Add(it.QuantityDelivered)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateDeliveryOrder(ctx context.Context, d DeliveryOrder) (*DeliveryOrder, error) {
	m.writes++
	d.ID = m.id()
	d.CreatedAt = m.createdAt
	d.UpdatedAt = m.createdAt
	d.Items = []DeliveryOrderItem{}
	m.deliveries[d.ID] = d
	return &d, nil
}

func (m *mockRepository) UpdateDeliveryOrder(ctx context.Context, d DeliveryOrder) error {
	existing, ok := m.deliveries[d.ID]
	if !ok {
		return ErrNotFound
	}
	m.writes++
	d.Items = existing.Items
	m.deliveries[d.ID] = d
	return nil
}

func (m *mockRepository) ReplaceDeliveryItems(ctx context.Context, deliveryOrderID int64, items []DeliveryOrderItem) ([]DeliveryOrderItem, error) {
	d, ok := m.deliveries[deliveryOrderID]
	if !ok {
		return nil, ErrNotFound
	}
	m.writes++
	out := make([]DeliveryOrderItem, 0, len(items))
	for _, it := range items {
		it.ID = m.nextLineID
		m.nextLineID++
		it.DeliveryOrderID = deliveryOrderID
		out = append(out, it)
	}
	d.Items = out
	m.deliveries[deliveryOrderID] = d
	return out, nil
}

// ----------------------------------------------------------------------------
// credit notes
// ----------------------------------------------------------------------------

func (m *mockRepository) GetCreditNote(ctx context.Context, id int64) (*CreditNote, error) {
	c, ok := m.creditNotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Number = m.number(numbering.KindCreditNote, id)
	items := make([]CreditNoteItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return &c, nil
}

func (m *mockRepository) ListCreditNotes(ctx context.Context, f CreditNoteFilter) ([]CreditNote, int, error) {
	out := []CreditNote{}
	for id := range m.creditNotes {
		c, _ := m.GetCreditNote(ctx, id)
		if f.ClientID > 0 && c.ClientID != f.ClientID {
			continue
		}
		if f.InvoiceID > 0 && (c.InvoiceID == nil || *c.InvoiceID != f.InvoiceID) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) CreateCreditNote(ctx context.Context, c CreditNote) (*CreditNote, error) {
	m.writes++
	c.ID = m.id()
	c.CreatedAt = m.createdAt
	c.UpdatedAt = m.createdAt
	c.Items = []CreditNoteItem{}
	m.creditNotes[c.ID] = c
	return &c, nil
}

func (m *mockRepository) UpdateCreditNote(ctx context.Context, c CreditNote) error {
	existing, ok := m.creditNotes[c.ID]
	if !ok {
		return ErrNotFound
	}
	m.writes++
	c.Items = existing.Items
	m.creditNotes[c.ID] = c
	return nil
}

func (m *mockRepository) ReplaceCreditNoteItems(ctx context.Context, creditNoteID int64, items []CreditNoteItem) ([]CreditNoteItem, error) {
	c, ok := m.creditNotes[creditNoteID]
	if !ok {
		return nil, ErrNotFound
	}
	m.writes++
	out := make([]CreditNoteItem, 0, len(items))
	for _, it := range items {
		it.ID = m.nextLineID
		m.nextLineID++
		it.CreditNoteID = creditNoteID
		out = append(out, it)
	}
	c.Items = out
	m.creditNotes[creditNoteID] = c
	return out, nil
}

// ----------------------------------------------------------------------------
// client index
// ----------------------------------------------------------------------------

func (m *mockRepository) RecentDocuments(ctx context.Context, entity string, clientID int64, limit int) ([]clients.DocumentSummary, error) {
	out := []clients.DocumentSummary{}
	switch entity {
	case EntityQuotation:
		list, _, _ := m.ListQuotations(ctx, QuotationFilter{ClientID: clientID})
		for _, q := range list {
			out = append(out, clients.DocumentSummary{ID: q.ID, Number: q.Number, Title: q.Title, Status: string(q.Status), Date: q.IssueDate})
		}
	case EntityOrder:
		list, _, _ := m.ListOrders(ctx, OrderFilter{ClientID: clientID})
		for _, o := range list {
			out = append(out, clients.DocumentSummary{ID: o.ID, Number: o.Number, Title: o.Title, Status: string(o.Status), Date: o.EventDate})
		}
	case EntityInvoice:
		list, _, _ := m.ListInvoices(ctx, InvoiceFilter{ClientID: clientID})
		for _, inv := range list {
			out = append(out, clients.DocumentSummary{ID: inv.ID, Number: inv.Number, Title: inv.Title, Status: string(inv.Status), Date: inv.IssueDate})
		}
	default:
		return nil, fmt.Errorf("no index for %s", entity)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ============================================================================
// MOCK COLLABORATORS
// ============================================================================

type mockClients map[int64]bool

func (m mockClients) Exists(ctx context.Context, id int64) error {
	if !m[id] {
		return clients.ErrNotFound
	}
	return nil
}

type mockMenu map[int64]*menu.Item

func (m mockMenu) Get(ctx context.Context, id int64) (*menu.Item, error) {
	item, ok := m[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

type mockLocker struct {
	acquired int
	released int
	held     bool
}

func (l *mockLocker) Acquire(ctx context.Context, entity string, id int64) (func(), error) {
	if l.held {
		return nil, shared.ErrLockHeld
	}
	l.acquired++
	return func() { l.released++ }, nil
}

type mockAudit struct {
	logs []shared.AuditLog
	err  error
}

func (a *mockAudit) Record(ctx context.Context, log shared.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

func (a *mockAudit) actions() []string {
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type mockObserver struct {
	transitions []string
}

func (o *mockObserver) ObserveTransition(entity, action, status string) {
	o.transitions = append(o.transitions, entity+":"+action+":"+status)
}

// ============================================================================
// FIXTURES
// ============================================================================

const (
	testClientID      int64 = 7
	otherClientID     int64 = 8
	canapeMenuID      int64 = 100
	retiredMenuID     int64 = 101
	buffetMenuID      int64 = 102
	unknownMenuItemID int64 = 999
)

type testService struct {
	*Service
	repo    *mockRepository
	locker  *mockLocker
	audit   *mockAudit
	metrics *mockObserver
}

func newTestService() *testService {
	repo := newMockRepository()
	locker := &mockLocker{}
	audit := &mockAudit{}
	metrics := &mockObserver{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	menuItems := mockMenu{
		canapeMenuID:  {ID: canapeMenuID, Name: "Canape platter", Description: "Assorted canapes", UnitPrice: d("50.00"), Unit: menu.UnitTray, IsActive: true},
		retiredMenuID: {ID: retiredMenuID, Name: "Retired soup", UnitPrice: d("9.90"), Unit: menu.UnitPerson, IsActive: false},
		buffetMenuID:  {ID: buffetMenuID, Name: "Buffet", UnitPrice: d("60.00"), Unit: menu.UnitPerson, IsActive: true},
	}
	svc := NewService(repo, mockClients{testClientID: true, otherClientID: true}, menuItems,
		NewHooks(audit, metrics, logger), locker, logger)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC) }
	return &testService{Service: svc, repo: repo, locker: locker, audit: audit, metrics: metrics}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func testSettings() settings.Settings {
	cfg := settings.Defaults()
	cfg.DefaultTerms = "50% deposit on confirmation"
	cfg.DefaultPaymentDetails = "Maybank 5123-4567-8901"
	return cfg
}

func taxedSettings() settings.Settings {
	cfg := testSettings()
	cfg.TaxEnabled = true
	cfg.TaxRate = d("6")
	return cfg
}

func line(desc, qty, price string) LineRequest {
	return LineRequest{Description: desc, Quantity: d(qty), UnitPrice: ptr(d(price))}
}

func menuLine(id int64, qty string) LineRequest {
	return LineRequest{MenuItemID: ptr(id), Quantity: d(qty)}
}

func fixed(v decimal.Decimal) string { return v.StringFixed(2) }
