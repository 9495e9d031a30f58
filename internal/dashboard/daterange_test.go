package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedResolver(y int, m time.Month, d int) Resolver {
	return Resolver{Now: func() time.Time { return time.Date(y, m, d, 15, 30, 0, 0, time.UTC) }}
}

func TestResolve(t *testing.T) {
	r := fixedResolver(2024, time.March, 15)

	tests := []struct {
		name       string
		sel        Selector
		start, end string
		want       DateRange
	}{
		{"month to date", MonthToDate, "", "", DateRange{"2024-03-01", "2024-03-15", "Month to Date"}},
		{"this month", ThisMonth, "", "", DateRange{"2024-03-01", "2024-03-31", "This Month"}},
		{"last month leap year", LastMonth, "", "", DateRange{"2024-02-01", "2024-02-29", "Last Month"}},
		{"year to date", YearToDate, "", "", DateRange{"2024-01-01", "2024-03-15", "Year to Date"}},
		{"this year", ThisYear, "", "", DateRange{"2024-01-01", "2024-03-15", "This Year"}},
		{"quick 7", QuickDays(7), "", "", DateRange{"2024-03-09", "2024-03-15", "Last 7 Days"}},
		{"quick 30 crosses month", QuickDays(30), "", "", DateRange{"2024-02-15", "2024-03-15", "Last 30 Days"}},
		{"quick 1", QuickDays(1), "", "", DateRange{"2024-03-15", "2024-03-15", "Today"}},
		{"custom", Custom, "2024-05-01", "2024-05-10", DateRange{"2024-05-01", "2024-05-10", "May 1, 2024 - May 10, 2024"}},
		{"custom inverted", Custom, "2024-05-10", "2024-05-01", DateRange{"2024-05-01", "2024-05-10", "May 1, 2024 - May 10, 2024"}},
		{"custom single day", Custom, "2024-05-10", "2024-05-10", DateRange{"2024-05-10", "2024-05-10", "May 10, 2024 - May 10, 2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.sel, tt.start, tt.end)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%s) mismatch (-want +got):\n%s", tt.sel, diff)
			}
		})
	}
}

func TestResolveLastMonthInJanuary(t *testing.T) {
	got, err := fixedResolver(2024, time.January, 10).Resolve(LastMonth, "", "")
	require.NoError(t, err)
	assert.Equal(t, DateRange{"2023-12-01", "2023-12-31", "Last Month"}, got)
}

func TestResolveThisMonthInDecember(t *testing.T) {
	got, err := fixedResolver(2023, time.December, 5).Resolve(ThisMonth, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", got.End)
}

func TestResolveLastMonthEndsOnFinalDay(t *testing.T) {
	day := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for ; day.Year() < 2026; day = day.AddDate(0, 0, 1) {
		r := fixedResolver(day.Year(), day.Month(), day.Day())
		got, err := r.Resolve(LastMonth, "", "")
		require.NoError(t, err)

		start, err := time.Parse(DateLayout, got.Start)
		require.NoError(t, err)
		end, err := time.Parse(DateLayout, got.End)
		require.NoError(t, err)

		prev := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		assert.Equal(t, prev, start, day.Format(DateLayout))
		assert.Equal(t, 1, end.AddDate(0, 0, 1).Day(), day.Format(DateLayout))
		assert.Equal(t, prev.Month(), end.Month(), day.Format(DateLayout))
	}
}

func TestResolveQuickDaysWindow(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for ; day.Year() < 2025; day = day.AddDate(0, 0, 3) {
		r := fixedResolver(day.Year(), day.Month(), day.Day())
		for _, n := range []int{1, 7, 14, 30, 90, 365, MaxQuickDays} {
			got, err := r.Resolve(QuickDays(n), "", "")
			require.NoError(t, err)

			start, err := time.Parse(DateLayout, got.Start)
			require.NoError(t, err)
			end, err := time.Parse(DateLayout, got.End)
			require.NoError(t, err)

			assert.Equal(t, day.Format(DateLayout), got.End)
			assert.Equal(t, n-1, int(end.Sub(start).Hours()/24), "n=%d on %s", n, got.End)
		}
	}
}

func TestResolveRejectsOversizedQuickRange(t *testing.T) {
	r := fixedResolver(2024, time.March, 15)
	for _, sel := range []Selector{QuickDays(MaxQuickDays + 1), "quick_200000000000000_days", "quick_9223372036854775807_days"} {
		_, err := r.Resolve(sel, "", "")
		assert.Error(t, err, sel)
	}

	got, err := r.Resolve(QuickDays(MaxQuickDays), "", "")
	require.NoError(t, err)
	assert.LessOrEqual(t, got.Start, got.End)
}

func TestResolveCustomMissingBound(t *testing.T) {
	r := fixedResolver(2024, time.March, 15)

	for _, bounds := range [][2]string{{"", "2024-05-01"}, {"2024-05-01", ""}, {"", ""}} {
		_, err := r.Resolve(Custom, bounds[0], bounds[1])
		assert.ErrorIs(t, err, ErrValidationSkipped)
		assert.Equal(t, KindValidationSkipped, Kind(err))
	}

	_, err := r.Resolve(Custom, "05/01/2024", "2024-05-10")
	assert.True(t, errors.Is(err, ErrValidationSkipped))
}

func TestParseSelector(t *testing.T) {
	for _, s := range []string{"month_to_date", "this_month", "last_month", "year_to_date", "this_year", "custom", "quick_7_days", "quick_90_days"} {
		sel, err := ParseSelector(s)
		require.NoError(t, err, s)
		assert.Equal(t, Selector(s), sel)
	}
	for _, s := range []string{
		"", "yesterday", "quick_0_days", "quick_x_days", "quick_7",
		"quick_36501_days", "quick_200000000000000_days", "quick_9223372036854775807_days", "quick_99999999999999999999_days",
	} {
		_, err := ParseSelector(s)
		assert.Error(t, err, s)
	}
}

func TestDateRangeQuery(t *testing.T) {
	q := DateRange{Start: "2024-02-01", End: "2024-02-29"}.Query()
	assert.Equal(t, "2024-02-01", q.Get("start_date"))
	assert.Equal(t, "2024-02-29", q.Get("end_date"))
}
