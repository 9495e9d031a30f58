package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// PrimaryBookSource is the valuation preferred when reporting a difference.
const PrimaryBookSource = "KBB"

// fallbackBookSources are consulted in order when KBB carries no value.
var fallbackBookSources = []string{"rBook", "J.D. Power", "MMR", "Black Book"}

var printer = message.NewPrinter(language.English)

// FormatDollars renders an amount as whole dollars with thousands
// separators, e.g. 12500.4 -> "$12,500".
func FormatDollars(amount float64) string {
	return printer.Sprintf("$%d", int64(math.RoundToEven(math.Abs(amount))))
}

// ParseBookValues decodes a JSON object of source -> value. Malformed or
// empty payloads yield an empty map.
func ParseBookValues(raw string) map[string]any {
	values := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return values
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return map[string]any{}
	}
	return values
}

// ParseCurrency converts "$25,000", "25000" or a JSON number to a float.
// Anything unparseable is zero.
func ParseCurrency(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(val))
		if cleaned == "" {
			return 0
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// BookValueDifference returns after-before for the primary source, falling
// back to the first other source that carries a value.
func BookValueDifference(before, after map[string]any) float64 {
	beforeKBB := ParseCurrency(before[PrimaryBookSource])
	afterKBB := ParseCurrency(after[PrimaryBookSource])
	if beforeKBB == 0 && afterKBB == 0 {
		for _, source := range fallbackBookSources {
			b := ParseCurrency(before[source])
			a := ParseCurrency(after[source])
			if b > 0 || a > 0 {
				return a - b
			}
		}
	}
	return afterKBB - beforeKBB
}

// VehicleBookValueInsights compares one vehicle's before/after payloads
// category by category.
func VehicleBookValueInsights(before, after map[string]any) *models.BookValueInsights {
	insights := &models.BookValueInsights{
		Categories:    map[string]*models.CategoryInsight{},
		PrimarySource: PrimaryBookSource,
		Summary:       "No data available",
	}
	if len(before) == 0 || len(after) == 0 {
		return insights
	}

	var primaryDiff float64
	for _, category := range bookCategories(before, after) {
		b := ParseCurrency(before[category])
		a := ParseCurrency(after[category])
		diff := a - b
		insights.Categories[category] = &models.CategoryInsight{
			Before:      b,
			After:       a,
			Difference:  diff,
			Improvement: diff > 0,
		}
		if diff > insights.BestImprovement.Amount {
			insights.BestImprovement = models.BestImprovement{Category: category, Amount: diff}
		}
	}

	if c, ok := insights.Categories[PrimaryBookSource]; ok {
		primaryDiff = c.Difference
	} else {
		for _, source := range fallbackBookSources {
			if c, ok := insights.Categories[source]; ok && c.Difference != 0 {
				primaryDiff = c.Difference
				insights.PrimarySource = source
				break
			}
		}
	}

	insights.TotalDifference = primaryDiff
	switch {
	case primaryDiff > 0:
		insights.Summary = fmt.Sprintf("%s increase found by automation", FormatDollars(primaryDiff))
	case primaryDiff < 0:
		insights.Summary = fmt.Sprintf("%s decrease found by automation", FormatDollars(primaryDiff))
	default:
		insights.Summary = "No value change detected"
	}
	return insights
}

// AggregateBookValues sums per-vehicle differences for a reporting period.
// period is a short label such as "MTD" used in the summary text.
func AggregateBookValues(pairs []*models.BookValuePair, period string) (float64, *models.BookValueInsights) {
	agg := &models.BookValueInsights{
		Categories:    map[string]*models.CategoryInsight{},
		PrimarySource: PrimaryBookSource,
	}

	var total float64
	for _, p := range pairs {
		before := ParseBookValues(p.Before)
		after := ParseBookValues(p.After)
		total += BookValueDifference(before, after)

		for name, c := range VehicleBookValueInsights(before, after).Categories {
			a, ok := agg.Categories[name]
			if !ok {
				a = &models.CategoryInsight{}
				agg.Categories[name] = a
			}
			a.Before += c.Before
			a.After += c.After
			a.Difference += c.Difference
			a.Improvement = a.Difference > 0
		}
	}

	for _, name := range sortedKeys(agg.Categories) {
		if d := agg.Categories[name].Difference; d > agg.BestImprovement.Amount {
			agg.BestImprovement = models.BestImprovement{Category: name, Amount: d}
		}
	}

	agg.TotalDifference = total
	switch {
	case total > 0:
		agg.Summary = fmt.Sprintf("%s total increase (%s)", FormatDollars(total), period)
	case total < 0:
		agg.Summary = fmt.Sprintf("%s total decrease (%s)", FormatDollars(total), period)
	default:
		agg.Summary = fmt.Sprintf("No %s value changes detected", period)
	}
	return total, agg
}

func bookCategories(before, after map[string]any) []string {
	seen := map[string]struct{}{}
	for k := range before {
		seen[k] = struct{}{}
	}
	for k := range after {
		seen[k] = struct{}{}
	}
	delete(seen, "")
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]*models.CategoryInsight) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MinutesSavedPerVehicle is the manual effort one processed vehicle replaces.
const MinutesSavedPerVehicle = 11

// TimeSaved returns total minutes saved and a display string such as
// "2 HOURS 45 MINUTES".
func TimeSaved(vehicleCount int) (int, string) {
	total := vehicleCount * MinutesSavedPerVehicle
	hours := total / 60
	minutes := total % 60

	if hours > 0 {
		return total, fmt.Sprintf("%d %s %d %s", hours, plural("HOUR", hours), minutes, plural("MINUTE", minutes))
	}
	return total, fmt.Sprintf("%d %s", minutes, plural("MINUTE", minutes))
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "S"
}
