package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// RecentActivity returns the latest processing events, newest first
func (h *Handler) RecentActivity(c *fiber.Ctx) error {
	storeID, err := storeScope(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 50 {
		return Error(c, fiber.StatusBadRequest, "limit must be between 1 and 50")
	}

	records, err := h.repo.RecentVehicles(c.Context(), storeID, limit)
	if err != nil {
		h.logger.Error("recent activity failed", zap.String("store_id", storeID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to load recent activity")
	}

	now := h.now()
	activity := make([]*models.ActivityItem, 0, len(records))
	for _, v := range records {
		item := &models.ActivityItem{
			ID:                   v.ID,
			StockNumber:          v.StockNumber,
			Action:               activityAction(v),
			TimeAgo:              "Unknown time",
			ProcessingSuccessful: v.ProcessingSuccessful,
		}
		if !v.ProcessingDate.IsZero() {
			item.TimeAgo = timeAgo(now.Sub(v.ProcessingDate))
			raw := v.ProcessingDate.Format(time.RFC3339)
			item.ProcessingDate = &raw
		}
		activity = append(activity, item)
	}

	return c.JSON(models.ActivityResponse{Success: true, Activity: activity})
}

func activityAction(v *models.VehicleRecord) string {
	var parts []string
	if v.ProcessingSuccessful {
		parts = append(parts, "✅ processed")
	} else {
		parts = append(parts, "❌ failed to process")
	}
	if v.DescriptionUpdated {
		parts = append(parts, "📝 updated description")
	}
	if n := v.FeaturesCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("⭐ marked %d features", n))
	}
	if v.NoFearCertificate {
		parts = append(parts, "🏆 NO FEAR certified")
	}
	return fmt.Sprintf("Vehicle #%s %s", v.StockNumber, strings.Join(parts, ", "))
}

func timeAgo(d time.Duration) string {
	days := int(d.Hours()) / 24
	rest := d - time.Duration(days)*24*time.Hour
	switch {
	case days > 0:
		return countAgo(days, "day")
	case rest > time.Hour:
		return countAgo(int(rest/time.Hour), "hour")
	case rest > time.Minute:
		return countAgo(int(rest/time.Minute), "minute")
	default:
		return "Just now"
	}
}

func countAgo(n int, unit string) string {
	if n > 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
