package analytics

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

var manila = time.FixedZone("PHT", 8*60*60)

// 11:00 on May 4 in Manila
var asOf = time.Date(2026, 5, 4, 3, 0, 0, 0, time.UTC)

type lineOpt func(*domain.OrderLine)

func done(l *domain.OrderLine)      { l.Done = true }
func cancelled(l *domain.OrderLine) { l.Cancelled = true; l.CancelReason = "x" }

func newLine(id, productID int64, price string, qty int, at time.Time, opts ...lineOpt) domain.OrderLine {
	l := domain.OrderLine{
		Order: domain.Order{
			ID:        id,
			ProductID: productID,
			Quantity:  qty,
			Status:    domain.StatusWaiting,
			CreatedAt: at,
		},
		ProductName:  "product",
		ProductPrice: decimal.RequireFromString(price),
	}
	for _, o := range opts {
		o(&l)
	}
	return l
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, asOf, manila)

	assert.Zero(t, r.TotalOrders)
	assert.True(t, r.TotalEarnings.IsZero())
	assert.True(t, r.AverageOrderValue.IsZero())
	assert.Empty(t, r.TopProducts)
	assert.Empty(t, r.RecentOrders)

	assert.Len(t, r.Today.Buckets, 24)
	assert.Len(t, r.Last7Days.Buckets, 7)
	assert.Len(t, r.Last30Days.Buckets, 30)
	require.Len(t, r.AllTime.Buckets, 1)
	assert.Equal(t, "May 04", r.AllTime.Buckets[0].Label)

	for _, s := range r.Windows() {
		for _, m := range Metrics {
			assert.True(t, s.Total(m).IsZero(), "%s %s", s.Window, m)
		}
	}
}

func TestBuild_EarningsAreExact(t *testing.T) {
	day := time.Date(2026, 5, 1, 2, 0, 0, 0, time.UTC)
	lines := []domain.OrderLine{
		newLine(1, 1, "0.10", 3, day, done),
		newLine(2, 2, "0.20", 1, day, done),
		newLine(3, 2, "99.99", 4, day, cancelled),
		newLine(4, 3, "5.00", 1, day),
		// done but cancelled does not count
		newLine(5, 3, "5.00", 1, day, done, cancelled),
	}

	r := Build(lines, asOf, manila)

	assert.Equal(t, 5, r.TotalOrders)
	assert.Equal(t, 2, r.TotalCompleted)
	assert.Equal(t, 2, r.TotalCancelled)
	assert.True(t, decimal.RequireFromString("0.50").Equal(r.TotalEarnings), r.TotalEarnings.String())
	assert.True(t, decimal.RequireFromString("0.25").Equal(r.AverageOrderValue))
	assert.True(t, r.TotalEarnings.Equal(r.AllTime.Total(MetricEarnings)))
}

func TestBuild_AverageRoundsToCents(t *testing.T) {
	day := time.Date(2026, 5, 1, 2, 0, 0, 0, time.UTC)
	lines := []domain.OrderLine{
		newLine(1, 1, "10.00", 1, day, done),
		newLine(2, 1, "10.00", 1, day, done),
		newLine(3, 1, "0.01", 1, day, done),
	}

	r := Build(lines, asOf, manila)

	assert.Equal(t, "20.01", r.TotalEarnings.StringFixed(2))
	assert.Equal(t, "6.67", r.AverageOrderValue.StringFixed(2))
}

func TestBuild_BucketsUseLocalTime(t *testing.T) {
	lines := []domain.OrderLine{
		// 01:30 May 4 local, still May 3 in UTC
		newLine(1, 1, "1", 1, time.Date(2026, 5, 3, 17, 30, 0, 0, time.UTC)),
		// 10:15 May 4 local
		newLine(2, 1, "1", 1, time.Date(2026, 5, 4, 2, 15, 0, 0, time.UTC), done),
		// 23:59 May 3 local
		newLine(3, 1, "1", 1, time.Date(2026, 5, 3, 15, 59, 0, 0, time.UTC), cancelled),
		// 29 days before today, the first day of the 30 day window
		newLine(4, 1, "1", 1, time.Date(2026, 4, 5, 4, 0, 0, 0, time.UTC)),
		// outside the 30 day window
		newLine(5, 1, "1", 1, time.Date(2026, 4, 4, 4, 0, 0, 0, time.UTC)),
	}

	r := Build(lines, asOf, manila)

	today := r.Today
	assert.Equal(t, 1, today.Buckets[1].Orders)
	assert.Equal(t, 1, today.Buckets[10].Orders)
	assert.Equal(t, 1, today.Buckets[10].Completed)
	assert.Equal(t, "2", today.Total(MetricOrders).String())
	assert.Equal(t, time.Date(2026, 5, 4, 1, 0, 0, 0, manila), today.Buckets[1].Start)

	week := r.Last7Days
	assert.Equal(t, "Apr 28", week.Buckets[0].Label)
	assert.Equal(t, "May 04", week.Buckets[6].Label)
	assert.Equal(t, 1, week.Buckets[5].Cancelled)
	assert.Equal(t, 2, week.Buckets[6].Orders)
	assert.Equal(t, "3", week.Total(MetricOrders).String())

	month := r.Last30Days
	assert.Equal(t, "Apr 05", month.Buckets[0].Label)
	assert.Equal(t, 1, month.Buckets[0].Orders)
	assert.Equal(t, "4", month.Total(MetricOrders).String())

	all := r.AllTime
	require.Len(t, all.Buckets, 31)
	assert.Equal(t, "Apr 04", all.Buckets[0].Label)
	assert.Equal(t, "5", all.Total(MetricOrders).String())

	for _, s := range r.Windows() {
		assert.Len(t, s.Labels(), len(s.Buckets))
		assert.Len(t, s.Values(MetricEarnings), len(s.Buckets))
	}
}

func TestBuild_HourlyBucketsAcrossDST(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name       string
		asOf       time.Time
		lines      []domain.OrderLine
		wantByHour map[int]int
		emptyHour  int
	}{
		{
			// 02:00 EST jumps to 03:00 EDT
			name: "spring forward",
			asOf: time.Date(2026, 3, 9, 3, 59, 0, 0, time.UTC),
			lines: []domain.OrderLine{
				newLine(1, 1, "10", 1, time.Date(2026, 3, 8, 5, 10, 0, 0, time.UTC)),       // 00:10 EST
				newLine(2, 1, "10", 1, time.Date(2026, 3, 8, 6, 30, 0, 0, time.UTC), done), // 01:30 EST
				newLine(3, 1, "10", 1, time.Date(2026, 3, 8, 7, 30, 0, 0, time.UTC)),       // 03:30 EDT
				newLine(4, 1, "10", 1, time.Date(2026, 3, 9, 3, 50, 0, 0, time.UTC)),       // 23:50 EDT
				newLine(5, 1, "10", 1, time.Date(2026, 3, 8, 4, 59, 0, 0, time.UTC)),       // 23:59 EST the day before
				newLine(6, 1, "10", 1, time.Date(2026, 3, 9, 4, 0, 30, 0, time.UTC)),       // after asOf, next day
			},
			wantByHour: map[int]int{0: 1, 1: 1, 3: 1, 23: 1},
			emptyHour:  2,
		},
		{
			// 02:00 EDT falls back to 01:00 EST, so 01:xx happens twice
			name: "fall back",
			asOf: time.Date(2026, 11, 2, 1, 0, 0, 0, time.UTC),
			lines: []domain.OrderLine{
				newLine(1, 1, "10", 1, time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC)),       // 01:30 EDT
				newLine(2, 1, "10", 1, time.Date(2026, 11, 1, 6, 30, 0, 0, time.UTC), done), // 01:30 EST
				newLine(3, 1, "10", 1, time.Date(2026, 11, 1, 17, 0, 0, 0, time.UTC)),       // 12:00 EST
			},
			wantByHour: map[int]int{1: 2, 12: 1},
			emptyHour:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Build(tt.lines, tt.asOf, newYork)

			today := r.Today
			require.Len(t, today.Buckets, 24)

			want := 0
			for h, b := range today.Buckets {
				assert.Equal(t, tt.wantByHour[h], b.Orders, "hour %d", h)
				want += tt.wantByHour[h]
			}
			assert.Equal(t, 0, today.Buckets[tt.emptyHour].Orders)

			// the hourly series adds up to the day's daily bucket
			week := r.Last7Days
			day := week.Buckets[len(week.Buckets)-1]
			assert.Equal(t, want, day.Orders)
			assert.Equal(t, day.Orders, int(today.Total(MetricOrders).IntPart()))
			assert.Equal(t, "10", today.Total(MetricEarnings).String())
			assert.True(t, day.Earnings.Equal(today.Total(MetricEarnings)))
		})
	}
}

func TestBuild_TopProductsAndRecent(t *testing.T) {
	at := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	lines := []domain.OrderLine{
		newLine(1, 4, "1", 2, at),
		newLine(2, 2, "1", 5, at.Add(time.Minute)),
		newLine(3, 3, "1", 2, at.Add(2*time.Minute)),
		newLine(4, 1, "1", 2, at.Add(3*time.Minute)),
		newLine(5, 2, "1", 1, at.Add(4*time.Minute), cancelled),
		newLine(6, 5, "1", 1, at.Add(5*time.Minute)),
		newLine(7, 5, "1", 1, at.Add(6*time.Minute)),
	}

	r := Build(lines, asOf, manila)

	require.Len(t, r.TopProducts, 3)
	assert.Equal(t, ProductTotal{ProductID: 2, Name: "product", Quantity: 6}, r.TopProducts[0])
	// ties on quantity 2 resolve by product id
	assert.Equal(t, int64(1), r.TopProducts[1].ProductID)
	assert.Equal(t, int64(3), r.TopProducts[2].ProductID)

	require.Len(t, r.RecentOrders, 5)
	assert.Equal(t, int64(7), r.RecentOrders[0].ID)
	assert.Equal(t, int64(3), r.RecentOrders[4].ID)
}

func TestAggregator_ComputeDashboard(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	agg := NewAggregator(st, 1, manila)
	assert.Equal(t, manila, agg.Location())

	p := &domain.Product{Name: "Ocean Blue", Price: decimal.RequireFromString("149.50"), Stock: 5, SellerID: 1}
	require.NoError(t, st.CreateProduct(ctx, p))
	order := &domain.Order{
		CustomerID: 7,
		ProductID:  p.ID,
		Quantity:   2,
		Status:     domain.StatusDelivered,
		Done:       true,
		CreatedAt:  asOf.Add(-time.Hour),
	}
	require.NoError(t, st.CreateOrder(ctx, order))

	r, err := agg.ComputeDashboard(ctx, domain.Seller(1), asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.SellerID)
	assert.Equal(t, "PHT", r.TimeZone)
	assert.Equal(t, 1, r.TotalProducts)
	require.Len(t, r.RecentProducts, 1)
	assert.Equal(t, "299", r.TotalEarnings.String())
	require.Len(t, r.TopProducts, 1)
	assert.Equal(t, "Ocean Blue", r.TopProducts[0].Name)

	_, err = agg.ComputeDashboard(ctx, domain.Customer(7), asOf)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = agg.ComputeDashboard(ctx, domain.Seller(2), asOf)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNewAggregator_DefaultsToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, NewAggregator(store.NewMemoryStore(), 1, nil).Location())
}
