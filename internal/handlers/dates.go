package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DateLayout is the wire format of start_date and end_date.
const DateLayout = "2006-01-02"

// dateWindow is an inclusive calendar range and its half-open timestamps.
type dateWindow struct {
	Start time.Time
	End   time.Time
	Since time.Time
	Until time.Time // exclusive, the day after End
}

// parseDateWindow reads start_date/end_date. A missing start defaults to the
// first of the current month and a missing end to today; reversed bounds are
// swapped.
func parseDateWindow(c *fiber.Ctx, now time.Time) (*dateWindow, bool, error) {
	startRaw := c.Query("start_date")
	endRaw := c.Query("end_date")

	today := truncateDay(now)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	end := today
	if startRaw == "" && endRaw == "" {
		return newDateWindow(start, end), false, nil
	}

	if startRaw != "" {
		t, err := time.ParseInLocation(DateLayout, startRaw, now.Location())
		if err != nil {
			return nil, true, fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		start = t
	}
	if endRaw != "" {
		t, err := time.ParseInLocation(DateLayout, endRaw, now.Location())
		if err != nil {
			return nil, true, fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		end = t
	}
	if end.Before(start) {
		start, end = end, start
	}
	return newDateWindow(start, end), true, nil
}

func newDateWindow(start, end time.Time) *dateWindow {
	return &dateWindow{
		Start: start,
		End:   end,
		Since: start,
		Until: end.AddDate(0, 0, 1),
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
