package clients

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// RecentLimit is how many documents of each kind the detail view shows.
const RecentLimit = 10

// DocumentIndex lists a client's latest documents.
type DocumentIndex interface {
	RecentQuotations(ctx context.Context, clientID int64, limit int) ([]DocumentSummary, error)
	RecentOrders(ctx context.Context, clientID int64, limit int) ([]DocumentSummary, error)
	RecentInvoices(ctx context.Context, clientID int64, limit int) ([]DocumentSummary, error)
}

// Service implements client use cases.
type Service struct {
	repo  Repository
	index DocumentIndex
}

// NewService wires the client service. index may be attached later through
// AttachIndex because the documents service depends on this one.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AttachIndex sets the document index used by Detail.
func (s *Service) AttachIndex(index DocumentIndex) {
	s.index = index
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether the client exists.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.repo.Get(ctx, id)
	return err
}

// List returns clients ordered by name.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Client, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Create stores a new client.
func (s *Service) Create(ctx context.Context, req SaveRequest) (*Client, error) {
	c := Client{
		Name:    strings.TrimSpace(req.Name),
		Address: req.Address,
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

// Update replaces the client's contact fields.
func (s *Service) Update(ctx context.Context, id int64, req SaveRequest) (*Client, error) {
	c := Client{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		Address: req.Address,
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
	}
	return s.repo.Update(ctx, c)
}

// Delete removes a client that no document references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Detail loads a client together with its latest quotations, orders and invoices.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Client: *c}
	if s.index == nil {
		return detail, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.index.RecentQuotations(gctx, id, RecentLimit)
		detail.Quotations = docs
		return err
	})
	g.Go(func() error {
		docs, err := s.index.RecentOrders(gctx, id, RecentLimit)
		detail.Orders = docs
		return err
	})
	g.Go(func() error {
		docs, err := s.index.RecentInvoices(gctx, id, RecentLimit)
		detail.Invoices = docs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load client documents: %w", err)
	}
	return detail, nil
}
