package dashboard

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

const labelLayout = "Jan 2, 2006"

// DateRange is an inclusive calendar range. Start <= End always holds for
// values returned by Resolve. Label is for display only.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// Query returns the start_date/end_date parameters for the range.
func (r DateRange) Query() url.Values {
	return url.Values{
		"start_date": {r.Start},
		"end_date":   {r.End},
	}
}

// Selector names a date filter choice.
type Selector string

const (
	MonthToDate Selector = "month_to_date"
	ThisMonth   Selector = "this_month"
	LastMonth   Selector = "last_month"
	YearToDate  Selector = "year_to_date"
	ThisYear    Selector = "this_year"
	Custom      Selector = "custom"
)

var quickPattern = regexp.MustCompile(`^quick_([0-9]+)_days$`)

// MaxQuickDays bounds quick ranges to about a century.
const MaxQuickDays = 36500

// QuickDays returns the selector for the trailing n-day window ending today.
func QuickDays(n int) Selector {
	return Selector(fmt.Sprintf("quick_%d_days", n))
}

func (s Selector) quickDays() (int, bool) {
	m := quickPattern.FindStringSubmatch(string(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxQuickDays {
		return 0, false
	}
	return n, true
}

// ParseSelector validates a selector string.
func ParseSelector(s string) (Selector, error) {
	sel := Selector(s)
	switch sel {
	case MonthToDate, ThisMonth, LastMonth, YearToDate, ThisYear, Custom:
		return sel, nil
	}
	if _, ok := sel.quickDays(); ok {
		return sel, nil
	}
	return "", fmt.Errorf("unknown date selector %q", s)
}

// Resolver turns selectors into concrete ranges. Dates are computed in the
// location of Now's result; no timezone conversion happens.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a Resolver on the local clock.
func NewResolver() Resolver {
	return Resolver{Now: time.Now}
}

// Resolve computes the range for sel. customStart and customEnd are only
// read for Custom; a missing bound yields ErrValidationSkipped and inverted
// bounds are swapped.
func (r Resolver) Resolve(sel Selector, customStart, customEnd string) (DateRange, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())

	switch sel {
	case MonthToDate:
		return newRange(monthStart, today, "Month to Date"), nil
	case ThisMonth:
		// day 0 of next month is the last day of this one
		end := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, today.Location())
		return newRange(monthStart, end, "This Month"), nil
	case LastMonth:
		start := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		end := time.Date(today.Year(), today.Month(), 0, 0, 0, 0, 0, today.Location())
		return newRange(start, end, "Last Month"), nil
	case YearToDate:
		return newRange(yearStart, today, "Year to Date"), nil
	case ThisYear:
		return newRange(yearStart, today, "This Year"), nil
	case Custom:
		return resolveCustom(customStart, customEnd, today.Location())
	}

	if n, ok := sel.quickDays(); ok {
		start := today.AddDate(0, 0, -(n - 1))
		return newRange(start, today, quickLabel(n)), nil
	}
	return DateRange{}, fmt.Errorf("unknown date selector %q", sel)
}

func resolveCustom(startRaw, endRaw string, loc *time.Location) (DateRange, error) {
	if startRaw == "" || endRaw == "" {
		return DateRange{}, ErrValidationSkipped
	}
	start, err := time.ParseInLocation(DateLayout, startRaw, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start %q is not YYYY-MM-DD", ErrValidationSkipped, startRaw)
	}
	end, err := time.ParseInLocation(DateLayout, endRaw, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end %q is not YYYY-MM-DD", ErrValidationSkipped, endRaw)
	}
	if start.After(end) {
		start, end = end, start
	}
	return newRange(start, end, start.Format(labelLayout)+" - "+end.Format(labelLayout)), nil
}

func newRange(start, end time.Time, label string) DateRange {
	return DateRange{
		Start: start.Format(DateLayout),
		End:   end.Format(DateLayout),
		Label: label,
	}
}

func quickLabel(n int) string {
	if n == 1 {
		return "Today"
	}
	return fmt.Sprintf("Last %d Days", n)
}
