package dashboard

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// StatusFilter narrows the displayed page by processing outcome.
type StatusFilter string

const (
	StatusAny     StatusFilter = ""
	StatusSuccess StatusFilter = "success"
	StatusFailed  StatusFilter = "failed"
	StatusPending StatusFilter = "pending"
)

// Match reports whether v passes the filter.
func (f StatusFilter) Match(v *models.VehicleSummary) bool {
	status := strings.ToLower(strings.TrimSpace(v.ProcessingStatus))
	switch f {
	case StatusSuccess:
		return v.ProcessingSuccessful
	case StatusFailed:
		return status == models.StatusFailed || (!v.ProcessingSuccessful && status != models.StatusProcessing)
	case StatusPending:
		return status == models.StatusPending || status == models.StatusProcessing
	}
	return true
}

// DescriptionFilter narrows the displayed page by description state.
type DescriptionFilter string

const (
	DescriptionAny        DescriptionFilter = ""
	DescriptionUpdated    DescriptionFilter = "updated"
	DescriptionNotUpdated DescriptionFilter = "not_updated"
)

// Match reports whether v passes the filter.
func (f DescriptionFilter) Match(v *models.VehicleSummary) bool {
	switch f {
	case DescriptionUpdated:
		return v.DescriptionUpdated
	case DescriptionNotUpdated:
		return !v.DescriptionUpdated
	}
	return true
}

// FilterState is the vehicle list's search and filter input.
type FilterState struct {
	Search      string
	Status      StatusFilter
	Description DescriptionFilter
	StoreID     string
	Page        int
	PerPage     int
}

// DefaultFilterState is the first page with the service's default size.
func DefaultFilterState() FilterState {
	return FilterState{Page: 1, PerPage: 20}
}

// Query builds the list request parameters. Status and description filters
// are not sent; they only apply to the fetched page.
func (f FilterState) Query(r *DateRange) url.Values {
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		query.Set("search", search)
	}
	if r != nil {
		query.Set("start_date", r.Start)
		query.Set("end_date", r.End)
	}
	if f.StoreID != "" {
		query.Set("store_id", f.StoreID)
	}
	return query
}

// ApplyFilters returns the items of a fetched page that pass the status and
// description filters. Only the current page is filtered, so the result can
// be shorter than the page and will not agree with the pagination totals.
func ApplyFilters(items []*models.VehicleSummary, f FilterState) []*models.VehicleSummary {
	out := make([]*models.VehicleSummary, 0, len(items))
	for _, v := range items {
		if f.Status.Match(v) && f.Description.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

// VehicleListResult is what the vehicle list displays.
type VehicleListResult struct {
	Items      []*models.VehicleSummary
	Pagination models.Pagination
	Fetched    int // items on the page before client-side filtering
	Filters    FilterState
	Range      *DateRange
}

// VehicleSource fetches vehicle pages; *Client implements it.
type VehicleSource interface {
	Vehicles(ctx context.Context, query url.Values) (*VehiclePage, error)
}

// Notifier shows recoverable, toast-style messages.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// VehicleListController loads and filters pages of vehicles. A failed load
// keeps the previous result displayed. Loads are sequenced so a response to
// a superseded request never replaces a newer one.
type VehicleListController struct {
	source   VehicleSource
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	issued  uint64
	current *VehicleListResult
}

// NewVehicleListController creates a controller.
func NewVehicleListController(source VehicleSource, notifier Notifier, logger *zap.Logger) *VehicleListController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleListController{source: source, notifier: notifier, logger: logger}
}

// Current returns the displayed result, nil before the first success.
func (c *VehicleListController) Current() *VehicleListResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Load fetches the page described by f and r and filters it. On failure
// the previous result is returned with the error.
func (c *VehicleListController) Load(ctx context.Context, f FilterState, r *DateRange) (*VehicleListResult, error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	page, err := c.source.Vehicles(ctx, f.Query(r))

	c.mu.Lock()
	defer c.mu.Unlock()
	stale := seq != c.issued

	if err != nil {
		c.logger.Warn("vehicle list load failed", zap.Stringer("kind", Kind(err)), zap.Error(err))
		if !stale && notifiable(err) && c.notifier != nil {
			c.notifier.Notify("Error loading vehicles: " + UserMessage(err))
		}
		return c.current, err
	}
	if stale {
		c.logger.Debug("discarding superseded vehicle list response", zap.Uint64("seq", seq))
		return c.current, nil
	}

	c.current = &VehicleListResult{
		Items:      ApplyFilters(page.Vehicles, f),
		Pagination: page.Pagination,
		Fetched:    len(page.Vehicles),
		Filters:    f,
		Range:      r,
	}
	return c.current, nil
}
