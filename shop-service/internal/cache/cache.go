package cache

import (
	"context"
	"errors"
	"time"

	"github.com/mcadelacruz/braceurself/shop-service/internal/analytics"
)

// ReportCache stores reports under a seller generation. Callers read the
// generation once before computing and pass it to both Get and Set, so a
// report computed before an Invalidate is never stored under the new one.
type ReportCache interface {
	Generation(ctx context.Context, sellerID int64) (int64, error)
	Get(ctx context.Context, sellerID, gen int64, asOf time.Time) (*analytics.DashboardReport, error)
	Set(ctx context.Context, sellerID, gen int64, asOf time.Time, report *analytics.DashboardReport) error
	// Invalidate drops every cached report for the seller.
	Invalidate(ctx context.Context, sellerID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
