package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

type statisticsSourceFunc func(ctx context.Context, r DateRange, storeID string) (*models.Statistics, error)

func (f statisticsSourceFunc) Statistics(ctx context.Context, r DateRange, storeID string) (*models.Statistics, error) {
	return f(ctx, r, storeID)
}

func TestStatisticsPresenter(t *testing.T) {
	var err error
	source := statisticsSourceFunc(func(_ context.Context, r DateRange, storeID string) (*models.Statistics, error) {
		if err != nil {
			return nil, err
		}
		return &models.Statistics{TotalVehicles: 4, StartDate: r.Start, EndDate: r.End, StoreID: storeID}, nil
	})
	notes := &toasts{}
	p := NewStatisticsPresenter(source, notes, nil)
	assert.Nil(t, p.Current())

	rng := DateRange{Start: "2024-03-01", End: "2024-03-15", Label: "Month to Date"}
	first, loadErr := p.Load(context.Background(), rng, "S1")
	require.NoError(t, loadErr)
	assert.Equal(t, 4, first.Statistics.TotalVehicles)
	assert.Equal(t, "S1", first.StoreID)
	assert.Equal(t, rng, first.Range)

	err = &ServerRejectedError{Status: 500, Message: "db down"}
	res, loadErr := p.Load(context.Background(), DateRange{Start: "2024-01-01", End: "2024-01-31"}, "S1")
	assert.Error(t, loadErr)
	assert.Same(t, first, res)
	assert.Same(t, first, p.Current())
	assert.Equal(t, []string{"Error loading statistics: db down"}, notes.all())

	err = ErrAuthRequired
	_, loadErr = p.Load(context.Background(), rng, "S1")
	assert.ErrorIs(t, loadErr, ErrAuthRequired)
	assert.Len(t, notes.all(), 1, "auth failures redirect instead of notifying")
}
