package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

type Window string

const (
	WindowToday      Window = "today"
	WindowLast7Days  Window = "last_7_days"
	WindowLast30Days Window = "last_30_days"
	WindowAllTime    Window = "all_time"
)

type Granularity string

const (
	Hourly Granularity = "hour"
	Daily  Granularity = "day"
)

type Metric string

const (
	MetricOrders    Metric = "orders"
	MetricCompleted Metric = "completed"
	MetricCancelled Metric = "cancelled"
	MetricEarnings  Metric = "earnings"
)

// Metrics lists the four per-bucket measures.
var Metrics = []Metric{MetricOrders, MetricCompleted, MetricCancelled, MetricEarnings}

// Bucket holds the totals for one hour or one local calendar day.
type Bucket struct {
	Label     string          `json:"label"`
	Start     time.Time       `json:"start"`
	Orders    int             `json:"orders"`
	Completed int             `json:"completed"`
	Cancelled int             `json:"cancelled"`
	Earnings  decimal.Decimal `json:"earnings"`
}

func (b *Bucket) add(line domain.OrderLine) {
	b.Orders++
	if line.IsCompleted() {
		b.Completed++
		b.Earnings = b.Earnings.Add(line.Total())
	}
	if line.Cancelled {
		b.Cancelled++
	}
}

func (b Bucket) Value(m Metric) decimal.Decimal {
	switch m {
	case MetricCompleted:
		return decimal.NewFromInt(int64(b.Completed))
	case MetricCancelled:
		return decimal.NewFromInt(int64(b.Cancelled))
	case MetricEarnings:
		return b.Earnings
	}
	return decimal.NewFromInt(int64(b.Orders))
}

// Series is one window; each metric over its buckets is one chart line.
type Series struct {
	Window      Window      `json:"window"`
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
}

// Values returns the metric for every bucket, in bucket order.
func (s Series) Values(m Metric) []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Buckets))
	for i, b := range s.Buckets {
		out[i] = b.Value(m)
	}
	return out
}

func (s Series) Labels() []string {
	out := make([]string, len(s.Buckets))
	for i, b := range s.Buckets {
		out[i] = b.Label
	}
	return out
}

// Total sums a count metric over every bucket.
func (s Series) Total(m Metric) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range s.Buckets {
		sum = sum.Add(b.Value(m))
	}
	return sum
}

type ProductTotal struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type DashboardReport struct {
	SellerID          int64             `json:"seller_id"`
	AsOf              time.Time         `json:"as_of"`
	TimeZone          string            `json:"time_zone"`
	TotalProducts     int               `json:"total_products"`
	TotalOrders       int               `json:"total_orders"`
	TotalCompleted    int               `json:"total_completed"`
	TotalCancelled    int               `json:"total_cancelled"`
	TotalEarnings     decimal.Decimal   `json:"total_earnings"`
	AverageOrderValue decimal.Decimal   `json:"average_order_value"`
	TopProducts       []ProductTotal    `json:"top_products"`
	RecentProducts    []*domain.Product `json:"recent_products"`
	RecentOrders      []*domain.Order   `json:"recent_orders"`
	Today             Series            `json:"today"`
	Last7Days         Series            `json:"last_7_days"`
	Last30Days        Series            `json:"last_30_days"`
	AllTime           Series            `json:"all_time"`
}

// Windows returns the four series in display order.
func (r *DashboardReport) Windows() []Series {
	return []Series{r.Today, r.Last7Days, r.Last30Days, r.AllTime}
}
