package menu

import (
	"context"
	"strings"

	"github.com/odyssey-erp/catering/internal/money"
)

// Service implements menu item use cases.
type Service struct {
	repo Repository
}

// NewService wires the menu service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a menu item.
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// Details returns the values used to prefill a line item.
func (s *Service) Details(ctx context.Context, id int64) (*Details, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Details{UnitPrice: it.UnitPrice, Description: it.Description}, nil
}

// List returns items ordered by name.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Item, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// Create stores a new menu item. Items are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, req SaveRequest) (*Item, error) {
	item, err := buildItem(req)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, item)
}

// Update replaces a menu item. Existing line items keep their frozen prices.
func (s *Service) Update(ctx context.Context, id int64, req SaveRequest) (*Item, error) {
	item, err := buildItem(req)
	if err != nil {
		return nil, err
	}
	item.ID = id
	return s.repo.Update(ctx, item)
}

// Delete removes an unreferenced menu item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func buildItem(req SaveRequest) (Item, error) {
	if req.UnitPrice.IsNegative() {
		return Item{}, ErrNegativePrice
	}
	unit := req.Unit
	if unit == "" {
		unit = UnitItem
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return Item{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		UnitPrice:   money.Round(req.UnitPrice),
		Unit:        unit,
		IsActive:    active,
	}, nil
}
