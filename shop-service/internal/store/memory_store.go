package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Tx    = (*memTx)(nil)
)

// MemoryStore implements Store with in-memory storage.
// Transactions hold the write lock for their whole duration and are
// rolled back by replaying an undo log.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memData
}

type memData struct {
	sellers  map[int64]*domain.SellerProfile // userID -> profile
	products map[int64]*domain.Product
	orders   map[int64]*domain.Order
	designs  map[int64]*domain.CustomBraceletDesign
	messages map[int64][]*domain.OrderMessage // orderID -> thread
	events   []*domain.OrderEvent

	lastSellerID  int64
	lastProductID int64
	lastOrderID   int64
	lastDesignID  int64
	lastEventID   int64
}

// NewMemoryStore creates a new empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memData{
			sellers:  make(map[int64]*domain.SellerProfile),
			products: make(map[int64]*domain.Product),
			orders:   make(map[int64]*domain.Order),
			designs:  make(map[int64]*domain.CustomBraceletDesign),
			messages: make(map[int64][]*domain.OrderMessage),
		},
	}
}

func (s *MemoryStore) read(fn func(t *memTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{data: s.data})
}

func (s *MemoryStore) write(fn func(t *memTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &memTx{data: s.data}
	if err := fn(t); err != nil {
		t.rollbackTo(0)
		return err
	}
	return nil
}

// WithTx runs fn under the store's write lock.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{data: s.data}
	defer func() {
		if p := recover(); p != nil {
			t.rollbackTo(0)
			panic(p)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = fn(t); err != nil {
		t.rollbackTo(0)
		return err
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) CreateSellerProfile(ctx context.Context, profile *domain.SellerProfile) error {
	return s.write(func(t *memTx) error { return t.CreateSellerProfile(ctx, profile) })
}

func (s *MemoryStore) GetSellerProfile(ctx context.Context, userID int64) (p *domain.SellerProfile, err error) {
	err = s.read(func(t *memTx) error { p, err = t.GetSellerProfile(ctx, userID); return err })
	return p, err
}

func (s *MemoryStore) CountSellerProfiles(ctx context.Context) (n int, err error) {
	err = s.read(func(t *memTx) error { n, err = t.CountSellerProfiles(ctx); return err })
	return n, err
}

func (s *MemoryStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	return s.write(func(t *memTx) error { return t.CreateProduct(ctx, product) })
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (p *domain.Product, err error) {
	err = s.read(func(t *memTx) error { p, err = t.GetProduct(ctx, id); return err })
	return p, err
}

func (s *MemoryStore) ListProducts(ctx context.Context, filter ProductFilter) (ps []*domain.Product, total int, err error) {
	err = s.read(func(t *memTx) error { ps, total, err = t.ListProducts(ctx, filter); return err })
	return ps, total, err
}

func (s *MemoryStore) SetStock(ctx context.Context, id int64, stock int) (p *domain.Product, err error) {
	err = s.write(func(t *memTx) error { p, err = t.SetStock(ctx, id, stock); return err })
	return p, err
}

func (s *MemoryStore) DecrementStock(ctx context.Context, id int64, qty int) (p *domain.Product, err error) {
	err = s.write(func(t *memTx) error { p, err = t.DecrementStock(ctx, id, qty); return err })
	return p, err
}

func (s *MemoryStore) IncrementStock(ctx context.Context, id int64, qty int) (p *domain.Product, err error) {
	err = s.write(func(t *memTx) error { p, err = t.IncrementStock(ctx, id, qty); return err })
	return p, err
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	return s.write(func(t *memTx) error { return t.CreateOrder(ctx, order) })
}

func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (o *domain.Order, err error) {
	err = s.read(func(t *memTx) error { o, err = t.GetOrder(ctx, id); return err })
	return o, err
}

func (s *MemoryStore) GetOrderForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return s.GetOrder(ctx, id)
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, order *domain.Order) error {
	return s.write(func(t *memTx) error { return t.UpdateOrder(ctx, order) })
}

func (s *MemoryStore) ListOrders(ctx context.Context, filter OrderFilter) (orders []*domain.Order, total int, err error) {
	err = s.read(func(t *memTx) error { orders, total, err = t.ListOrders(ctx, filter); return err })
	return orders, total, err
}

func (s *MemoryStore) ListOrderLines(ctx context.Context, sellerID int64) (ls []domain.OrderLine, err error) {
	err = s.read(func(t *memTx) error { ls, err = t.ListOrderLines(ctx, sellerID); return err })
	return ls, err
}

func (s *MemoryStore) CreateDesign(ctx context.Context, design *domain.CustomBraceletDesign) error {
	return s.write(func(t *memTx) error { return t.CreateDesign(ctx, design) })
}

func (s *MemoryStore) GetDesign(ctx context.Context, id int64) (d *domain.CustomBraceletDesign, err error) {
	err = s.read(func(t *memTx) error { d, err = t.GetDesign(ctx, id); return err })
	return d, err
}

func (s *MemoryStore) ListDesigns(ctx context.Context, filter DesignFilter) (ds []*domain.CustomBraceletDesign, err error) {
	err = s.read(func(t *memTx) error { ds, err = t.ListDesigns(ctx, filter); return err })
	return ds, err
}

func (s *MemoryStore) DeleteDesign(ctx context.Context, id int64) error {
	return s.write(func(t *memTx) error { return t.DeleteDesign(ctx, id) })
}

func (s *MemoryStore) AppendEvent(ctx context.Context, event *domain.OrderEvent) error {
	return s.write(func(t *memTx) error { return t.AppendEvent(ctx, event) })
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg *domain.OrderMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.orders[msg.OrderID]; !ok {
		return domain.ErrOrderNotFound
	}
	cp := *msg
	s.data.messages[msg.OrderID] = append(s.data.messages[msg.OrderID], &cp)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, orderID int64, after *domain.MessageCursor, limit int) ([]*domain.OrderMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := make([]*domain.OrderMessage, len(s.data.messages[orderID]))
	copy(thread, s.data.messages[orderID])
	sort.SliceStable(thread, func(i, j int) bool {
		return messageLess(thread[i].Cursor(), thread[j].Cursor())
	})

	out := make([]*domain.OrderMessage, 0)
	for _, m := range thread {
		if after != nil && !messageLess(*after, m.Cursor()) {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func messageLess(a, b domain.MessageCursor) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func (s *MemoryStore) PendingEvents(_ context.Context, limit int) ([]*domain.OrderEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.OrderEvent, 0)
	for _, e := range s.data.events {
		if e.PublishedAt != nil {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkEventPublished(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.data.events {
		if e.ID == id {
			now := time.Now().UTC()
			e.PublishedAt = &now
			return nil
		}
	}
	return fmt.Errorf("event %d not found", id)
}

// memTx operates on the data without locking. The caller holds the lock.
type memTx struct {
	data *memData
	undo []func()
}

func (t *memTx) record(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *memTx) rollbackTo(mark int) {
	for i := len(t.undo) - 1; i >= mark; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:mark]
}

func (t *memTx) Savepoint(ctx context.Context, fn func(q Queries) error) error {
	mark := len(t.undo)
	if err := fn(t); err != nil {
		t.rollbackTo(mark)
		return err
	}
	return nil
}

func (t *memTx) CreateSellerProfile(_ context.Context, profile *domain.SellerProfile) error {
	if _, exists := t.data.sellers[profile.UserID]; exists {
		return domain.ErrSellerExists
	}
	last := t.data.lastSellerID
	t.data.lastSellerID++
	profile.ID = t.data.lastSellerID
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	cp := *profile
	t.data.sellers[profile.UserID] = &cp
	t.record(func() {
		delete(t.data.sellers, cp.UserID)
		t.data.lastSellerID = last
	})
	return nil
}

func (t *memTx) GetSellerProfile(_ context.Context, userID int64) (*domain.SellerProfile, error) {
	p, ok := t.data.sellers[userID]
	if !ok {
		return nil, domain.ErrSellerNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) CountSellerProfiles(context.Context) (int, error) {
	return len(t.data.sellers), nil
}

func (t *memTx) CreateProduct(_ context.Context, product *domain.Product) error {
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	if !domain.ValidProductName(product.Name) {
		return fmt.Errorf("%w: product name must be 1 to %d characters", domain.ErrInvalidInput, domain.MaxProductNameLength)
	}
	last := t.data.lastProductID
	t.data.lastProductID++
	product.ID = t.data.lastProductID
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	cp := *product
	t.data.products[cp.ID] = &cp
	t.record(func() {
		delete(t.data.products, cp.ID)
		t.data.lastProductID = last
	})
	return nil
}

func (t *memTx) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := t.data.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) ListProducts(_ context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	search := strings.ToLower(filter.Search)
	matched := make([]*domain.Product, 0)
	for _, p := range t.data.products {
		if filter.SellerID != 0 && p.SellerID != filter.SellerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var c int
		switch filter.SortBy {
		case ProductSortPrice:
			c = a.Price.Cmp(b.Price)
		case ProductSortStock:
			c = compareInt(int64(a.Stock), int64(b.Stock))
		default:
			c = compareTime(a.CreatedAt, b.CreatedAt)
		}
		if c == 0 {
			c = compareInt(a.ID, b.ID)
		}
		if filter.Desc {
			return c > 0
		}
		return c < 0
	})

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (t *memTx) SetStock(_ context.Context, id int64, stock int) (*domain.Product, error) {
	p, ok := t.data.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	t.setStock(p, stock)
	cp := *p
	return &cp, nil
}

func (t *memTx) DecrementStock(_ context.Context, id int64, qty int) (*domain.Product, error) {
	p, ok := t.data.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if p.Stock == 0 {
		return nil, domain.ErrOutOfStock
	}
	if qty > p.Stock {
		return nil, domain.ErrInsufficientStock
	}
	t.setStock(p, p.Stock-qty)
	cp := *p
	return &cp, nil
}

func (t *memTx) IncrementStock(_ context.Context, id int64, qty int) (*domain.Product, error) {
	p, ok := t.data.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	t.setStock(p, p.Stock+qty)
	cp := *p
	return &cp, nil
}

func (t *memTx) setStock(p *domain.Product, stock int) {
	prev := p.Stock
	p.Stock = stock
	t.record(func() { p.Stock = prev })
}

func (t *memTx) CreateOrder(_ context.Context, order *domain.Order) error {
	if _, ok := t.data.products[order.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	last := t.data.lastOrderID
	t.data.lastOrderID++
	order.ID = t.data.lastOrderID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	cp := cloneOrder(order)
	t.data.orders[cp.ID] = cp
	t.record(func() {
		delete(t.data.orders, cp.ID)
		t.data.lastOrderID = last
	})
	return nil
}

func (t *memTx) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := t.data.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return t.GetOrder(ctx, id)
}

func (t *memTx) UpdateOrder(_ context.Context, order *domain.Order) error {
	prev, ok := t.data.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	t.data.orders[order.ID] = cloneOrder(order)
	t.record(func() { t.data.orders[prev.ID] = prev })
	return nil
}

func (t *memTx) ListOrders(_ context.Context, filter OrderFilter) ([]*domain.Order, int, error) {
	search := strings.ToLower(filter.Search)
	matched := make([]*domain.Order, 0)
	for _, o := range t.data.orders {
		p := t.data.products[o.ProductID]
		if filter.CustomerID != 0 && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.SellerID != 0 && (p == nil || p.SellerID != filter.SellerID) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Cancelled != nil && o.Cancelled != *filter.Cancelled {
			continue
		}
		if search != "" && (p == nil || !strings.Contains(strings.ToLower(p.Name), search)) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		c := 0
		switch filter.SortBy {
		case OrderSortDeliveredAt:
			// undelivered orders go last in both directions
			switch {
			case a.DeliveredAt == nil && b.DeliveredAt == nil:
			case a.DeliveredAt == nil:
				return false
			case b.DeliveredAt == nil:
				return true
			default:
				c = compareTime(*a.DeliveredAt, *b.DeliveredAt)
			}
		default:
			c = compareTime(a.CreatedAt, b.CreatedAt)
		}
		if c == 0 {
			c = compareInt(a.ID, b.ID)
		}
		if filter.Desc {
			return c > 0
		}
		return c < 0
	})

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (t *memTx) ListOrderLines(_ context.Context, sellerID int64) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0)
	for _, o := range t.data.orders {
		p, ok := t.data.products[o.ProductID]
		if !ok || p.SellerID != sellerID {
			continue
		}
		lines = append(lines, domain.OrderLine{
			Order:        *cloneOrder(o),
			ProductName:  p.Name,
			ProductPrice: p.Price,
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if c := compareTime(lines[i].CreatedAt, lines[j].CreatedAt); c != 0 {
			return c < 0
		}
		return lines[i].ID < lines[j].ID
	})
	return lines, nil
}

func (t *memTx) CreateDesign(_ context.Context, design *domain.CustomBraceletDesign) error {
	last := t.data.lastDesignID
	t.data.lastDesignID++
	design.ID = t.data.lastDesignID
	if design.CreatedAt.IsZero() {
		design.CreatedAt = time.Now().UTC()
	}
	cp := cloneDesign(design)
	t.data.designs[cp.ID] = cp
	t.record(func() {
		delete(t.data.designs, cp.ID)
		t.data.lastDesignID = last
	})
	return nil
}

func (t *memTx) GetDesign(_ context.Context, id int64) (*domain.CustomBraceletDesign, error) {
	d, ok := t.data.designs[id]
	if !ok {
		return nil, domain.ErrDesignNotFound
	}
	return cloneDesign(d), nil
}

func (t *memTx) ListDesigns(_ context.Context, filter DesignFilter) ([]*domain.CustomBraceletDesign, error) {
	matched := make([]*domain.CustomBraceletDesign, 0)
	for _, d := range t.data.designs {
		if filter.CustomerID != 0 && d.CustomerID != filter.CustomerID {
			continue
		}
		if filter.ExcludeCustomerID != 0 && d.CustomerID == filter.ExcludeCustomerID {
			continue
		}
		if filter.Name != "" && d.Name != filter.Name {
			continue
		}
		matched = append(matched, cloneDesign(d))
	}
	sort.Slice(matched, func(i, j int) bool {
		if c := compareTime(matched[i].CreatedAt, matched[j].CreatedAt); c != 0 {
			return c > 0
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (t *memTx) DeleteDesign(_ context.Context, id int64) error {
	d, ok := t.data.designs[id]
	if !ok {
		return domain.ErrDesignNotFound
	}
	delete(t.data.designs, id)
	t.record(func() { t.data.designs[id] = d })
	return nil
}

func (t *memTx) AppendEvent(_ context.Context, event *domain.OrderEvent) error {
	last := t.data.lastEventID
	t.data.lastEventID++
	event.ID = t.data.lastEventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	cp := *event
	n := len(t.data.events)
	t.data.events = append(t.data.events, &cp)
	t.record(func() {
		t.data.events = t.data.events[:n]
		t.data.lastEventID = last
	})
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		cp.DeliveredAt = &at
	}
	return &cp
}

func cloneDesign(d *domain.CustomBraceletDesign) *domain.CustomBraceletDesign {
	cp := *d
	cp.Beads = append([]domain.Bead(nil), d.Beads...)
	return &cp
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}
