package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/analytics"
	"github.com/Additional-Code/bazaar/internal/cache"
	"github.com/Additional-Code/bazaar/pkg/errorbank"
)

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	m.sets++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func testService(store cache.Store) *Service {
	return &Service{
		cache:    store,
		cacheTTL: time.Minute,
		logger:   zap.NewNop(),
	}
}

func TestNamesListsEveryReport(t *testing.T) {
	names := Names()
	assert.Len(t, names, 6)
	assert.Contains(t, names, NameRevenueByCategory)
	assert.Contains(t, names, NameRevenueByProduct)
}

func TestRunUnknownReport(t *testing.T) {
	svc := testService(newMemoryCache())

	_, err := svc.Run(context.Background(), "no-such-report")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestCachedFetchesOnceThenServesFromCache(t *testing.T) {
	store := newMemoryCache()
	svc := testService(store)

	calls := 0
	fetch := func(ctx context.Context) ([]analytics.StateCustomers, error) {
		calls++
		return []analytics.StateCustomers{{State: "TX", CustomerCount: 4}}, nil
	}

	rows, err := cached(context.Background(), svc, NameCustomersByState, fetch)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, calls)
	assert.Contains(t, store.entries, "reports:customers-by-state")

	rows, err = cached(context.Background(), svc, NameCustomersByState, fetch)
	require.NoError(t, err)
	assert.Equal(t, "TX", rows[0].State)
	assert.Equal(t, 1, calls, "second run must come from the cache")
}

func TestCachedDiscardsCorruptEntries(t *testing.T) {
	store := newMemoryCache()
	store.entries["reports:customers-by-state"] = []byte("{not json")
	svc := testService(store)

	fetch := func(ctx context.Context) ([]analytics.StateCustomers, error) {
		return []analytics.StateCustomers{{State: "CO", CustomerCount: 2}}, nil
	}

	rows, err := cached(context.Background(), svc, NameCustomersByState, fetch)
	require.NoError(t, err)
	assert.Equal(t, "CO", rows[0].State)
	assert.Equal(t, 1, store.sets, "fresh rows replace the corrupt entry")
}

func TestCachedReportsFetchErrors(t *testing.T) {
	svc := testService(newMemoryCache())

	fetch := func(ctx context.Context) ([]analytics.StateCustomers, error) {
		return nil, errors.New("aggregate failed")
	}

	_, err := cached(context.Background(), svc, NameCustomersByState, fetch)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindInternal, errorbank.From(err).Kind())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "reports:revenue-by-category", cacheKey(NameRevenueByCategory))
}
