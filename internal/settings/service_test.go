package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catering/internal/shared"
)

type mockRepository struct {
	mu      sync.Mutex
	stored  *Settings
	loads   int
	loadErr error
}

func (m *mockRepository) Load(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return Settings{}, m.loadErr
	}
	if m.stored == nil {
		return Defaults(), nil
	}
	return *m.stored, nil
}

func (m *mockRepository) Save(ctx context.Context, s Settings) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	m.stored = &s
	return s, nil
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestService_CurrentUsesCache(t *testing.T) {
	client, mr := newRedis(t)
	repo := &mockRepository{}
	svc := NewService(repo, NewCache(client, time.Minute), nil)
	ctx := context.Background()

	first, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RM", first.CurrencySymbol)
	assert.Equal(t, 15, first.DefaultValidityDays)
	assert.True(t, mr.Exists(cacheKey))

	_, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)
}

func TestService_UpdateInvalidatesCache(t *testing.T) {
	client, mr := newRedis(t)
	repo := &mockRepository{}
	svc := NewService(repo, NewCache(client, time.Minute), nil)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateRequest{
		CompanyName:         "Dapur Aina",
		CurrencySymbol:      "RM",
		TaxEnabled:          true,
		TaxRate:             decimal.RequireFromString("8"),
		DefaultValidityDays: 30,
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dapur Aina", current.CompanyName)
	assert.True(t, current.Tax().Active())
	assert.Equal(t, "8", current.Tax().RatePercent.String())
	assert.Equal(t, 2, repo.loads)
}

func TestService_UpdateRejectsBadRate(t *testing.T) {
	svc := NewService(&mockRepository{}, NewCache(nil, 0), nil)
	_, err := svc.Update(context.Background(), UpdateRequest{
		CompanyName:    "x",
		CurrencySymbol: "RM",
		TaxRate:        decimal.RequireFromString("101"),
	})
	assert.ErrorIs(t, err, ErrInvalidTaxRate)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCache_WithoutRedisCallsLoader(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, NewCache(nil, 0), nil)
	for i := 0; i < 3; i++ {
		_, err := svc.Current(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.loads)
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	client, mr := newRedis(t)
	repo := &mockRepository{loadErr: errors.New("db down")}
	svc := NewService(repo, NewCache(client, time.Minute), nil)

	_, err := svc.Current(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.False(t, mr.Exists(cacheKey))
}

func TestCache_LoaderOutlivesCallerCancel(t *testing.T) {
	client, mr := newRedis(t)
	cache := NewCache(client, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got, err := cache.Fetch(ctx, func(loadCtx context.Context) (Settings, error) {
		cancel()
		if err := loadCtx.Err(); err != nil {
			return Settings{}, err
		}
		return Defaults(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, Defaults().CurrencySymbol, got.CurrencySymbol)
	assert.True(t, mr.Exists(cacheKey))
}

func TestDefaults_TaxDisabled(t *testing.T) {
	assert.False(t, Defaults().Tax().Active())
}
