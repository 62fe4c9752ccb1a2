package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const testSellerID int64 = 1

var (
	testCustomer  = domain.Customer(7)
	otherCustomer = domain.Customer(8)
	testSeller    = domain.Seller(testSellerID)
)

// MockNotifier records the sellers it was told about.
type MockNotifier struct {
	mu    sync.Mutex
	Calls []int64
}

func (m *MockNotifier) SellerDataChanged(_ context.Context, sellerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, sellerID)
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// restoreFailingStore fails every stock increment made inside a savepoint,
// as happens when the product can no longer be resolved.
type restoreFailingStore struct {
	*store.MemoryStore
}

func (s *restoreFailingStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.MemoryStore.WithTx(ctx, func(tx store.Tx) error {
		return fn(restoreFailingTx{tx})
	})
}

type restoreFailingTx struct {
	store.Tx
}

func (t restoreFailingTx) Savepoint(ctx context.Context, fn func(q store.Queries) error) error {
	return t.Tx.Savepoint(ctx, func(q store.Queries) error {
		return fn(restoreFailingQueries{q})
	})
}

type restoreFailingQueries struct {
	store.Queries
}

func (restoreFailingQueries) IncrementStock(context.Context, int64, int) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}

// CountingLog counts the pages read from the wrapped message log.
type CountingLog struct {
	store.MessageLog
	Reads atomic.Int32
}

func (c *CountingLog) ListMessages(ctx context.Context, orderID int64, after *domain.MessageCursor, limit int) ([]*domain.OrderMessage, error) {
	c.Reads.Add(1)
	return c.MessageLog.ListMessages(ctx, orderID, after, limit)
}

// stepClock returns start, then advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}
