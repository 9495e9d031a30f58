package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

// GetStatistics returns the dashboard counters for a store and date range.
// The range defaults to month to date; YTD figures run from January 1 of
// the range's end year through its end.
func (h *Handler) GetStatistics(c *fiber.Ctx) error {
	storeID, err := storeScope(c)
	if err != nil {
		return err
	}
	now := h.now()
	window, _, err := parseDateWindow(c, now)
	if err != nil {
		return err
	}

	start := window.Start.Format(DateLayout)
	end := window.End.Format(DateLayout)
	if cached, ok := h.cache.Get(c.Context(), storeID, start, end); ok {
		h.countCache("hit")
		return c.JSON(models.StatisticsResponse{Success: true, Statistics: cached})
	}
	h.countCache("miss")

	stats, err := h.computeStatistics(c.Context(), storeID, window, now)
	if err != nil {
		h.logger.Error("compute statistics failed", zap.String("store_id", storeID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to compute statistics")
	}
	stats.StartDate = start
	stats.EndDate = end
	stats.StoreID = storeID

	h.cache.Set(c.Context(), storeID, start, end, stats)
	return c.JSON(models.StatisticsResponse{Success: true, Statistics: stats})
}

func (h *Handler) computeStatistics(ctx context.Context, storeID string, window *dateWindow, now time.Time) (*models.Statistics, error) {
	yearStart := time.Date(window.End.Year(), time.January, 1, 0, 0, 0, 0, window.End.Location())

	var (
		counts   *models.VehicleCounts
		mtdPairs []*models.BookValuePair
		ytdPairs []*models.BookValuePair
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = h.repo.GetVehicleCounts(gctx, &models.StatsParams{
			StoreID: storeID,
			Since:   window.Since,
			Until:   window.Until,
			Now:     now,
		})
		if err != nil {
			return fmt.Errorf("vehicle counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mtdPairs, err = h.repo.ListBookValuePairs(gctx, storeID, window.Since, window.Until)
		if err != nil {
			return fmt.Errorf("range book values: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ytdPairs, err = h.repo.ListBookValuePairs(gctx, storeID, yearStart, window.Until)
		if err != nil {
			return fmt.Errorf("ytd book values: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mtdTotal, mtdInsights := services.AggregateBookValues(mtdPairs, "MTD")
	ytdTotal, ytdInsights := services.AggregateBookValues(ytdPairs, "YTD")
	savedMinutes, savedText := services.TimeSaved(counts.SuccessfulProcessing)

	var successRate, avgFeatures float64
	if counts.TotalVehicles > 0 {
		successRate = float64(counts.SuccessfulProcessing) / float64(counts.TotalVehicles) * 100
		avgFeatures = float64(counts.TotalFeaturesMarked) / float64(counts.TotalVehicles)
	}

	return &models.Statistics{
		TotalVehicles:         counts.TotalVehicles,
		SuccessfulProcessing:  counts.SuccessfulProcessing,
		SuccessRate:           fmt.Sprintf("%.1f%%", successRate),
		SuccessRateValue:      successRate,
		DescriptionsUpdated:   counts.DescriptionsUpdated,
		NoFearCertificates:    counts.NoFearCertificates,
		RecentActivity7Days:   counts.RecentActivity7Days,
		TotalFeaturesMarked:   counts.TotalFeaturesMarked,
		AvgFeaturesPerVehicle: fmt.Sprintf("%.1f", avgFeatures),
		TotalBookValueMTD:     mtdTotal,
		TotalBookValueYTD:     ytdTotal,
		BookValueInsightsMTD:  mtdInsights,
		BookValueInsightsYTD:  ytdInsights,
		TimeSavedMinutes:      savedMinutes,
		TimeSavedFormatted:    savedText,
	}, nil
}

// DebugBookValues shows raw book value payloads next to the computed
// difference for a handful of records
func (h *Handler) DebugBookValues(c *fiber.Ctx) error {
	storeID, err := storeScope(c)
	if err != nil {
		return err
	}

	records, err := h.repo.SampleBookValueVehicles(c.Context(), storeID, 5)
	if err != nil {
		h.logger.Error("sample book values failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to load book values")
	}

	samples := make([]fiber.Map, 0, len(records))
	for _, v := range records {
		before := services.ParseBookValues(deref(v.BookValuesBeforeProcessing))
		after := services.ParseBookValues(deref(v.BookValuesAfterProcessing))
		samples = append(samples, fiber.Map{
			"stock_number":          v.StockNumber,
			"before_data":           before,
			"after_data":            after,
			"calculated_difference": services.BookValueDifference(before, after),
			"insights":              services.VehicleBookValueInsights(before, after),
		})
	}

	return c.JSON(fiber.Map{
		"success":                         true,
		"total_vehicles_with_book_values": len(records),
		"sample_data":                     samples,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
