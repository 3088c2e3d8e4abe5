package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/menu"
	"github.com/odyssey-erp/catering/internal/money"
)

// ClientLookup verifies that a client exists.
type ClientLookup interface {
	Exists(ctx context.Context, id int64) error
}

// MenuLookup resolves menu items for line pricing.
type MenuLookup interface {
	Get(ctx context.Context, id int64) (*menu.Item, error)
}

// Locker serialises writers on one document.
type Locker interface {
	Acquire(ctx context.Context, entity string, id int64) (func(), error)
}

// Service implements the document lifecycle.
type Service struct {
	repo    Repository
	clients ClientLookup
	menu    MenuLookup
	hooks   *Hooks
	locker  Locker
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the document service. hooks and locker may be nil.
func NewService(repo Repository, clients ClientLookup, menu MenuLookup, hooks *Hooks, locker Locker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		clients: clients,
		menu:    menu,
		hooks:   hooks,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}
}

// today returns the current date at midnight UTC, matching DATE columns.
func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) event(entity string, id int64, number, action, from, to string) Event {
	return Event{Entity: entity, ID: id, Number: number, Action: action, From: from, To: to, At: s.now()}
}

func illegal(entity, action string, status any) error {
	return fmt.Errorf("%w: cannot %s %s in status %v", ErrIllegalTransition, action, entity, status)
}

func (s *Service) warn(ctx context.Context, entity string, id int64, warnings Warnings) {
	for _, w := range warnings {
		s.logger.WarnContext(ctx, "document warning",
			slog.String("entity", entity), slog.Int64("id", id), slog.String("warning", w))
	}
}

func (s *Service) verifyClient(ctx context.Context, id int64) error {
	if err := s.clients.Exists(ctx, id); err != nil {
		return fmt.Errorf("verify client: %w", err)
	}
	return nil
}

func parseDiscount(req DiscountRequest) (money.DiscountSpec, error) {
	kind, err := money.ParseDiscountKind(req.Kind)
	if err != nil {
		return money.DiscountSpec{}, fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	if req.Value.IsNegative() {
		return money.DiscountSpec{}, fmt.Errorf("%w: value must not be negative", ErrInvalidDiscount)
	}
	if kind == money.DiscountPercent && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return money.DiscountSpec{}, fmt.Errorf("%w: percentage above 100", ErrInvalidDiscount)
	}
	if kind == money.DiscountNone {
		return money.NoDiscount(), nil
	}
	return money.DiscountSpec{Kind: kind, Value: req.Value}, nil
}

// buildLines prices requested lines. Menu items in keep may be inactive, which
// lets existing lines survive an edit after their item was retired.
func (s *Service) buildLines(ctx context.Context, reqs []LineRequest, keep map[int64]bool) ([]LineItem, error) {
	items := make([]LineItem, 0, len(reqs))
	for i, req := range reqs {
		if req.Quantity.IsNegative() {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
		item := LineItem{
			Description:   strings.TrimSpace(req.Description),
			Quantity:      req.Quantity,
			GroupingLabel: strings.TrimSpace(req.GroupingLabel),
			Position:      i,
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		if req.MenuItemID != nil {
			mi, err := s.menu.Get(ctx, *req.MenuItemID)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			if !mi.IsActive && !keep[mi.ID] {
				return nil, fmt.Errorf("line %d: %w: %s", i+1, ErrMenuItemInactive, mi.Name)
			}
			id := mi.ID
			item.MenuItemID = &id
			if item.Description == "" {
				item.Description = mi.Description
				if item.Description == "" {
					item.Description = mi.Name
				}
			}
			if req.UnitPrice == nil {
				item.UnitPrice = mi.UnitPrice
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

func menuItemSet(items []LineItem) map[int64]bool {
	set := make(map[int64]bool, len(items))
	for _, it := range items {
		if it.MenuItemID != nil {
			set[*it.MenuItemID] = true
		}
	}
	return set
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// ============================================================================
// CLIENT INDEX
// ============================================================================

// RecentQuotations lists the client's latest quotations.
func (s *Service) RecentQuotations(ctx context.Context, clientID int64, limit int) ([]clients.DocumentSummary, error) {
	return s.repo.RecentDocuments(ctx, EntityQuotation, clientID, limit)
}

// RecentOrders lists the client's latest orders.
func (s *Service) RecentOrders(ctx context.Context, clientID int64, limit int) ([]clients.DocumentSummary, error) {
	return s.repo.RecentDocuments(ctx, EntityOrder, clientID, limit)
}

// RecentInvoices lists the client's latest invoices.
func (s *Service) RecentInvoices(ctx context.Context, clientID int64, limit int) ([]clients.DocumentSummary, error) {
	return s.repo.RecentDocuments(ctx, EntityInvoice, clientID, limit)
}

var _ clients.DocumentIndex = (*Service)(nil)
