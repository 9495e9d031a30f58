// Package dashboard is the client side of the vehicle processing dashboard:
// date range resolution, the authenticated request gateway, and the
// vehicle list and statistics views that sit on top of them.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dashboard ties the views to a session and the active filters. A filter
// change recomputes the date range; Refresh reloads both views.
type Dashboard struct {
	Vehicles   *VehicleListController
	Statistics *StatisticsPresenter

	session  *Session
	resolver Resolver
	logger   *zap.Logger

	mu       sync.Mutex
	selector Selector
	rng      DateRange
	filters  FilterState
}

// New builds a dashboard over client. The initial range is month to date.
func New(client *Client, notifier Notifier, resolver Resolver, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{
		Vehicles:   NewVehicleListController(client, notifier, logger),
		Statistics: NewStatisticsPresenter(client, notifier, logger),
		session:    client.Session(),
		resolver:   resolver,
		logger:     logger,
		filters:    DefaultFilterState(),
	}
	d.selector = MonthToDate
	d.rng, _ = resolver.Resolve(MonthToDate, "", "")
	return d
}

// Range returns the active date range.
func (d *Dashboard) Range() DateRange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng
}

// Selector returns the active date selector.
func (d *Dashboard) Selector() Selector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selector
}

// SetRange recomputes the active range. An incomplete custom range leaves
// the current range in place and reports changed=false without an error.
// Changing the range returns the list to its first page.
func (d *Dashboard) SetRange(sel Selector, customStart, customEnd string) (bool, error) {
	rng, err := d.resolver.Resolve(sel, customStart, customEnd)
	if err != nil {
		if errors.Is(err, ErrValidationSkipped) {
			d.logger.Debug("custom range incomplete, keeping current range", zap.Error(err))
			return false, nil
		}
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.selector = sel
	d.rng = rng
	d.filters.Page = 1
	return true, nil
}

// Filters returns the current filter state.
func (d *Dashboard) Filters() FilterState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters
}

// SetFilters replaces the filter state.
func (d *Dashboard) SetFilters(f FilterState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = f
}

// Refresh reloads statistics and the vehicle list concurrently. Each view
// updates only its own state; a failure in one does not stop the other.
// The first error is returned.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	rng := d.rng
	filters := d.filters
	d.mu.Unlock()

	storeID := d.session.StoreID()
	filters.StoreID = storeID

	var g errgroup.Group
	g.Go(func() error {
		_, err := d.Statistics.Load(ctx, rng, storeID)
		return err
	})
	g.Go(func() error {
		_, err := d.Vehicles.Load(ctx, filters, &rng)
		return err
	})
	return g.Wait()
}
