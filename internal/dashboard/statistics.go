package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// StatisticsSource fetches counters; *Client implements it.
type StatisticsSource interface {
	Statistics(ctx context.Context, r DateRange, storeID string) (*models.Statistics, error)
}

// StatisticsResult is what the statistics panel displays.
type StatisticsResult struct {
	Statistics *models.Statistics
	Range      DateRange
	StoreID    string
}

// StatisticsPresenter loads counters for a range and store. Once a load has
// succeeded the panel never returns to its placeholder state.
type StatisticsPresenter struct {
	source   StatisticsSource
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	issued  uint64
	current *StatisticsResult
}

// NewStatisticsPresenter creates a presenter.
func NewStatisticsPresenter(source StatisticsSource, notifier Notifier, logger *zap.Logger) *StatisticsPresenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsPresenter{source: source, notifier: notifier, logger: logger}
}

// Current returns the displayed counters, nil before the first success.
func (p *StatisticsPresenter) Current() *StatisticsResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Load fetches counters for r and storeID. On failure the previous result
// is returned with the error.
func (p *StatisticsPresenter) Load(ctx context.Context, r DateRange, storeID string) (*StatisticsResult, error) {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	stats, err := p.source.Statistics(ctx, r, storeID)

	p.mu.Lock()
	defer p.mu.Unlock()
	stale := seq != p.issued

	if err != nil {
		p.logger.Warn("statistics load failed", zap.Stringer("kind", Kind(err)), zap.Error(err))
		if !stale && notifiable(err) && p.notifier != nil {
			p.notifier.Notify("Error loading statistics: " + UserMessage(err))
		}
		return p.current, err
	}
	if stale {
		p.logger.Debug("discarding superseded statistics response", zap.Uint64("seq", seq))
		return p.current, nil
	}

	p.current = &StatisticsResult{Statistics: stats, Range: r, StoreID: storeID}
	return p.current, nil
}
