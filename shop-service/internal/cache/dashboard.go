package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mcadelacruz/braceurself/shop-service/internal/analytics"
	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

// Computer produces a dashboard report; analytics.Aggregator satisfies it.
type Computer interface {
	ComputeDashboard(ctx context.Context, actor domain.Actor, asOf time.Time) (*analytics.DashboardReport, error)
}

// CachedDashboard is a cache-aside decorator over the dashboard computation.
type CachedDashboard struct {
	next   Computer
	cache  ReportCache
	logger *slog.Logger
	sfg    singleflight.Group
}

func NewCachedDashboard(next Computer, cache ReportCache, logger *slog.Logger) *CachedDashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDashboard{next: next, cache: cache, logger: logger}
}

func (d *CachedDashboard) ComputeDashboard(ctx context.Context, actor domain.Actor, asOf time.Time) (*analytics.DashboardReport, error) {
	key := fmt.Sprintf("%d:%d", actor.UserID, asOf.Truncate(time.Minute).Unix())
	v, err, _ := d.sfg.Do(key, func() (interface{}, error) {
		gen, err := d.cache.Generation(ctx, actor.UserID)
		if err != nil {
			d.logger.WarnContext(ctx, "dashboard cache generation failed", "error", err)
			return d.next.ComputeDashboard(ctx, actor, asOf)
		}

		report, err := d.cache.Get(ctx, actor.UserID, gen, asOf)
		if err == nil {
			if !actor.IsSeller() || report.SellerID != actor.UserID {
				return nil, domain.ErrForbidden
			}
			return report, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			d.logger.WarnContext(ctx, "dashboard cache get failed", "error", err)
		}

		report, err = d.next.ComputeDashboard(ctx, actor, asOf)
		if err != nil {
			return nil, err
		}

		if err := d.cache.Set(ctx, actor.UserID, gen, asOf, report); err != nil {
			d.logger.WarnContext(ctx, "dashboard cache set failed", "error", err)
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*analytics.DashboardReport), nil
}

// SellerDataChanged invalidates the seller's cached reports.
func (d *CachedDashboard) SellerDataChanged(ctx context.Context, sellerID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := d.cache.Invalidate(ctx, sellerID); err != nil {
		d.logger.WarnContext(ctx, "dashboard cache invalidate failed", "seller_id", sellerID, "error", err)
	}
}
