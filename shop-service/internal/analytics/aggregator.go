package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const (
	topProductsLimit = 3
	recentLimit      = 5
)

// Reader is the read-only slice of the store the dashboard needs.
type Reader interface {
	ListOrderLines(ctx context.Context, sellerID int64) ([]domain.OrderLine, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]*domain.Product, int, error)
}

// Aggregator computes the seller dashboard. It never writes.
type Aggregator struct {
	reader   Reader
	sellerID int64
	loc      *time.Location
}

func NewAggregator(r Reader, sellerID int64, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{reader: r, sellerID: sellerID, loc: loc}
}

func (a *Aggregator) Location() *time.Location {
	return a.loc
}

func (a *Aggregator) ComputeDashboard(ctx context.Context, actor domain.Actor, asOf time.Time) (*DashboardReport, error) {
	if !actor.IsSeller() || actor.UserID != a.sellerID {
		return nil, domain.ErrForbidden
	}

	lines, err := a.reader.ListOrderLines(ctx, a.sellerID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	recent, totalProducts, err := a.reader.ListProducts(ctx, store.ProductFilter{
		SellerID: a.sellerID,
		SortBy:   store.ProductSortCreatedAt,
		Desc:     true,
		Limit:    recentLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	report := Build(lines, asOf, a.loc)
	report.SellerID = a.sellerID
	report.TotalProducts = totalProducts
	report.RecentProducts = recent
	return report, nil
}

// Build aggregates order lines into a report as seen at asOf in loc.
func Build(lines []domain.OrderLine, asOf time.Time, loc *time.Location) *DashboardReport {
	sorted := make([]domain.OrderLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	r := &DashboardReport{
		AsOf:           asOf,
		TimeZone:       loc.String(),
		TotalEarnings:  decimal.Zero,
		RecentProducts: []*domain.Product{},
	}
	for _, l := range sorted {
		r.TotalOrders++
		if l.IsCompleted() {
			r.TotalCompleted++
			r.TotalEarnings = r.TotalEarnings.Add(l.Total())
		}
		if l.Cancelled {
			r.TotalCancelled++
		}
	}
	r.AverageOrderValue = decimal.Zero
	if r.TotalCompleted > 0 {
		r.AverageOrderValue = r.TotalEarnings.DivRound(decimal.NewFromInt(int64(r.TotalCompleted)), 2)
	}

	r.TopProducts = topProducts(sorted)
	r.RecentOrders = recentOrders(sorted)

	today := dayOf(asOf, loc)
	firstDay := today
	if len(sorted) > 0 {
		firstDay = dayOf(sorted[0].CreatedAt, loc)
		if firstDay.After(today) {
			firstDay = today
		}
	}

	r.Today = hourlySeries(sorted, today, loc)
	r.Last7Days = dailySeries(WindowLast7Days, sorted, today.AddDate(0, 0, -6), today, loc)
	r.Last30Days = dailySeries(WindowLast30Days, sorted, today.AddDate(0, 0, -29), today, loc)
	r.AllTime = dailySeries(WindowAllTime, sorted, firstDay, today, loc)
	return r
}

// dayOf returns the local calendar date of t as midnight UTC, so that
// consecutive days are exactly 24 hours apart regardless of DST.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hourlySeries(lines []domain.OrderLine, day time.Time, loc *time.Location) Series {
	buckets := make([]Bucket, 24)
	for h := range buckets {
		buckets[h] = Bucket{
			Label:    fmt.Sprintf("%d:00", h),
			Start:    time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc),
			Earnings: decimal.Zero,
		}
	}
	for _, l := range lines {
		if !dayOf(l.CreatedAt, loc).Equal(day) {
			continue
		}
		buckets[l.CreatedAt.In(loc).Hour()].add(l)
	}
	return Series{Window: WindowToday, Granularity: Hourly, Buckets: buckets}
}

func dailySeries(window Window, lines []domain.OrderLine, from, to time.Time, loc *time.Location) Series {
	n := int(to.Sub(from).Hours()/24) + 1
	buckets := make([]Bucket, n)
	for i := range buckets {
		d := from.AddDate(0, 0, i)
		buckets[i] = Bucket{
			Label:    d.Format("Jan 02"),
			Start:    time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc),
			Earnings: decimal.Zero,
		}
	}
	for _, l := range lines {
		d := dayOf(l.CreatedAt, loc)
		if d.Before(from) || d.After(to) {
			continue
		}
		buckets[int(d.Sub(from).Hours()/24)].add(l)
	}
	return Series{Window: window, Granularity: Daily, Buckets: buckets}
}

func topProducts(lines []domain.OrderLine) []ProductTotal {
	byID := make(map[int64]*ProductTotal)
	for _, l := range lines {
		t, ok := byID[l.ProductID]
		if !ok {
			t = &ProductTotal{ProductID: l.ProductID, Name: l.ProductName}
			byID[l.ProductID] = t
		}
		t.Quantity += l.Quantity
	}

	totals := make([]ProductTotal, 0, len(byID))
	for _, t := range byID {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Quantity != totals[j].Quantity {
			return totals[i].Quantity > totals[j].Quantity
		}
		return totals[i].ProductID < totals[j].ProductID
	})
	if len(totals) > topProductsLimit {
		totals = totals[:topProductsLimit]
	}
	return totals
}

// recentOrders expects lines sorted oldest first.
func recentOrders(lines []domain.OrderLine) []*domain.Order {
	out := make([]*domain.Order, 0, recentLimit)
	for i := len(lines) - 1; i >= 0 && len(out) < recentLimit; i-- {
		o := lines[i].Order
		out = append(out, &o)
	}
	return out
}
