package dashboard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

func stockNumbers(items []*models.VehicleSummary) []string {
	out := make([]string, 0, len(items))
	for _, v := range items {
		out = append(out, v.StockNumber)
	}
	return out
}

func TestApplyFiltersStatus(t *testing.T) {
	items := []*models.VehicleSummary{
		{StockNumber: "A1", ProcessingStatus: "processing"},
		{StockNumber: "A2", ProcessingStatus: "complete", ProcessingSuccessful: true},
		{StockNumber: "A3", ProcessingStatus: "pending"},
		{StockNumber: "A4", ProcessingStatus: "failed"},
		{StockNumber: "A5", ProcessingStatus: " Completed ", ProcessingSuccessful: false},
	}

	tests := []struct {
		status StatusFilter
		want   []string
	}{
		{StatusAny, []string{"A1", "A2", "A3", "A4", "A5"}},
		{StatusSuccess, []string{"A2"}},
		{StatusFailed, []string{"A3", "A4", "A5"}},
		{StatusPending, []string{"A1", "A3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := ApplyFilters(items, FilterState{Status: tt.status})
			assert.Equal(t, tt.want, stockNumbers(got))
		})
	}
}

func TestApplyFiltersPendingScenario(t *testing.T) {
	items := []*models.VehicleSummary{
		{StockNumber: "first", ProcessingStatus: "processing"},
		{StockNumber: "second", ProcessingStatus: "complete", ProcessingSuccessful: true},
		{StockNumber: "third", ProcessingStatus: "pending"},
	}
	got := ApplyFilters(items, FilterState{Status: StatusPending})
	assert.Equal(t, []string{"first", "third"}, stockNumbers(got))
}

func TestApplyFiltersDescription(t *testing.T) {
	items := []*models.VehicleSummary{
		{StockNumber: "A1", DescriptionUpdated: true, ProcessingSuccessful: true},
		{StockNumber: "A2"},
		{StockNumber: "A3", DescriptionUpdated: true},
	}
	assert.Equal(t, []string{"A1", "A3"}, stockNumbers(ApplyFilters(items, FilterState{Description: DescriptionUpdated})))
	assert.Equal(t, []string{"A2"}, stockNumbers(ApplyFilters(items, FilterState{Description: DescriptionNotUpdated})))
	assert.Equal(t, []string{"A1"}, stockNumbers(ApplyFilters(items, FilterState{
		Status:      StatusSuccess,
		Description: DescriptionUpdated,
	})))
}

func TestFilterStateQuery(t *testing.T) {
	f := FilterState{Search: "  A10 ", Status: StatusFailed, StoreID: "S1", Page: 3, PerPage: 50}
	q := f.Query(&DateRange{Start: "2024-03-01", End: "2024-03-15"})

	assert.Equal(t, url.Values{
		"page":       {"3"},
		"per_page":   {"50"},
		"search":     {"A10"},
		"start_date": {"2024-03-01"},
		"end_date":   {"2024-03-15"},
		"store_id":   {"S1"},
	}, q)

	q = FilterState{}.Query(nil)
	assert.Equal(t, url.Values{"page": {"1"}, "per_page": {"20"}}, q)
}

type vehicleSourceFunc func(ctx context.Context, query url.Values) (*VehiclePage, error)

func (f vehicleSourceFunc) Vehicles(ctx context.Context, query url.Values) (*VehiclePage, error) {
	return f(ctx, query)
}

func pageOf(stock ...string) *VehiclePage {
	page := &VehiclePage{Pagination: models.NewPagination(1, 20, len(stock))}
	for _, s := range stock {
		page.Vehicles = append(page.Vehicles, &models.VehicleSummary{StockNumber: s, ProcessingSuccessful: true})
	}
	return page
}

func TestVehicleListLoad(t *testing.T) {
	var got url.Values
	source := vehicleSourceFunc(func(_ context.Context, q url.Values) (*VehiclePage, error) {
		got = q
		return pageOf("A1", "A2"), nil
	})
	c := NewVehicleListController(source, &toasts{}, zap.NewNop())
	assert.Nil(t, c.Current())

	rng := DateRange{Start: "2024-03-01", End: "2024-03-15"}
	res, err := c.Load(context.Background(), FilterState{Page: 1, PerPage: 20, Status: StatusSuccess}, &rng)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, stockNumbers(res.Items))
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Pagination.Total)
	assert.Same(t, res, c.Current())
	assert.Equal(t, "2024-03-01", got.Get("start_date"))
	assert.Empty(t, got.Get("status"), "status filter stays client side")
}

func TestVehicleListFailureKeepsPreviousResult(t *testing.T) {
	fail := false
	source := vehicleSourceFunc(func(context.Context, url.Values) (*VehiclePage, error) {
		if fail {
			return nil, &ServerRejectedError{Status: 500, Message: "db down"}
		}
		return pageOf("A1"), nil
	})
	notes := &toasts{}
	c := NewVehicleListController(source, notes, nil)

	first, err := c.Load(context.Background(), DefaultFilterState(), nil)
	require.NoError(t, err)

	fail = true
	res, err := c.Load(context.Background(), DefaultFilterState(), nil)
	assert.Equal(t, KindServerRejected, Kind(err))
	assert.Same(t, first, res)
	assert.Same(t, first, c.Current())
	assert.Equal(t, []string{"Error loading vehicles: db down"}, notes.all())
}

func TestVehicleListAuthFailureIsSilent(t *testing.T) {
	source := vehicleSourceFunc(func(context.Context, url.Values) (*VehiclePage, error) {
		return nil, ErrAuthRequired
	})
	notes := &toasts{}
	c := NewVehicleListController(source, notes, nil)

	res, err := c.Load(context.Background(), DefaultFilterState(), nil)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Nil(t, res)
	assert.Empty(t, notes.all())
}

func TestVehicleListTransportFailureNotifies(t *testing.T) {
	source := vehicleSourceFunc(func(context.Context, url.Values) (*VehiclePage, error) {
		return nil, errors.New("connection refused")
	})
	notes := &toasts{}
	c := NewVehicleListController(source, notes, nil)

	_, err := c.Load(context.Background(), DefaultFilterState(), nil)
	assert.Equal(t, KindTransportFailure, Kind(err))
	assert.Equal(t, []string{"Error loading vehicles: connection refused"}, notes.all())
}

// blockingSource holds each request until its page is released, so tests can
// control the order responses arrive in.
type blockingSource struct {
	mu      sync.Mutex
	started chan string
	replies map[string]chan error
}

func newBlockingSource() *blockingSource {
	return &blockingSource{started: make(chan string, 4), replies: map[string]chan error{}}
}

func (b *blockingSource) reply(search string) chan error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.replies[search]
	if !ok {
		ch = make(chan error, 1)
		b.replies[search] = ch
	}
	return ch
}

func (b *blockingSource) Vehicles(_ context.Context, q url.Values) (*VehiclePage, error) {
	search := q.Get("search")
	ch := b.reply(search)
	b.started <- search
	if err := <-ch; err != nil {
		return nil, err
	}
	return pageOf(search), nil
}

func TestVehicleListDiscardsSupersededResponse(t *testing.T) {
	source := newBlockingSource()
	notes := &toasts{}
	c := NewVehicleListController(source, notes, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var oldRes *VehicleListResult
	go func() {
		defer wg.Done()
		oldRes, _ = c.Load(context.Background(), FilterState{Search: "old"}, nil)
	}()
	require.Equal(t, "old", <-source.started)

	wg.Add(1)
	var newRes *VehicleListResult
	go func() {
		defer wg.Done()
		newRes, _ = c.Load(context.Background(), FilterState{Search: "new"}, nil)
	}()
	require.Equal(t, "new", <-source.started)

	source.reply("new") <- nil
	source.reply("old") <- nil
	wg.Wait()

	require.NotNil(t, newRes)
	assert.Equal(t, []string{"new"}, stockNumbers(newRes.Items))
	assert.Equal(t, []string{"new"}, stockNumbers(c.Current().Items))
	if oldRes != nil {
		assert.NotEqual(t, []string{"old"}, stockNumbers(oldRes.Items))
	}
}

func TestVehicleListSupersededFailureIsSilent(t *testing.T) {
	source := newBlockingSource()
	notes := &toasts{}
	c := NewVehicleListController(source, notes, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), FilterState{Search: "old"}, nil)
		done <- err
	}()
	require.Equal(t, "old", <-source.started)

	newDone := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), FilterState{Search: "new"}, nil)
		newDone <- err
	}()
	require.Equal(t, "new", <-source.started)

	source.reply("old") <- errors.New("timeout")
	assert.Error(t, <-done)
	source.reply("new") <- nil
	require.NoError(t, <-newDone)

	assert.Empty(t, notes.all())
	assert.Equal(t, []string{"new"}, stockNumbers(c.Current().Items))
}
