package menu

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	items  map[int64]*Item
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{items: make(map[int64]*Item), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Item, int, error) {
	var out []Item
	for _, it := range m.items {
		if req.ActiveOnly && !it.IsActive {
			continue
		}
		out = append(out, *it)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, item Item) (*Item, error) {
	item.ID = m.nextID
	m.nextID++
	m.items[item.ID] = &item
	cp := item
	return &cp, nil
}

func (m *mockRepository) Update(ctx context.Context, item Item) (*Item, error) {
	if _, ok := m.items[item.ID]; !ok {
		return nil, ErrNotFound
	}
	m.items[item.ID] = &item
	cp := item
	return &cp, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func TestService_CreateDefaults(t *testing.T) {
	svc := NewService(newMockRepository())
	item, err := svc.Create(context.Background(), SaveRequest{
		Name:        " Nasi Lemak ",
		Description: "Fragrant rice with sambal, anchovies, egg",
		UnitPrice:   decimal.RequireFromString("8.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nasi Lemak", item.Name)
	assert.Equal(t, UnitItem, item.Unit)
	assert.True(t, item.IsActive)
	assert.Equal(t, "8.50", item.UnitPrice.StringFixed(2))
}

func TestService_CreateRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), SaveRequest{Name: "Bad", UnitPrice: decimal.RequireFromString("-1")})
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestService_Details(t *testing.T) {
	svc := NewService(newMockRepository())
	inactive := false
	item, err := svc.Create(context.Background(), SaveRequest{
		Name:        "Teh Tarik",
		Description: "Pulled milk tea",
		UnitPrice:   decimal.RequireFromString("2.50"),
		Unit:        UnitPack,
		IsActive:    &inactive,
	})
	require.NoError(t, err)
	assert.False(t, item.IsActive)

	d, err := svc.Details(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pulled milk tea", d.Description)
	assert.Equal(t, "2.50", d.UnitPrice.StringFixed(2))

	_, err = svc.Details(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnit_IsValid(t *testing.T) {
	assert.True(t, UnitTray.IsValid())
	assert.False(t, Unit("BOX").IsValid())
}
