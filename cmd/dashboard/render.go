package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/foxxcyber/dealer-dashboard/internal/dashboard"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

var (
	colorAccent = lipgloss.Color("#2196F3")
	colorOK     = lipgloss.Color("#8BC34A")
	colorWarn   = lipgloss.Color("#FFC107")
	colorError  = lipgloss.Color("#e53935")
	colorMuted  = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted).Width(26)
	okStyle    = lipgloss.NewStyle().Foreground(colorOK)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		})
}

func renderStatistics(res *dashboard.StatisticsResult) string {
	s := res.Statistics
	store := res.StoreID
	if store == "" {
		store = "all stores"
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Statistics: %s (%s to %s), %s", res.Range.Label, res.Range.Start, res.Range.End, store)),
		field("Total vehicles", strconv.Itoa(s.TotalVehicles)),
		field("Successful", fmt.Sprintf("%d (%s)", s.SuccessfulProcessing, s.SuccessRate)),
		field("Descriptions updated", strconv.Itoa(s.DescriptionsUpdated)),
		field("No Fear certificates", strconv.Itoa(s.NoFearCertificates)),
		field("Features marked", fmt.Sprintf("%d (avg %s)", s.TotalFeaturesMarked, s.AvgFeaturesPerVehicle)),
		field("Processed last 7 days", strconv.Itoa(s.RecentActivity7Days)),
		field("Time saved", s.TimeSavedFormatted),
		field("Book value MTD", insightSummary(s.BookValueInsightsMTD)),
		field("Book value YTD", insightSummary(s.BookValueInsightsYTD)),
	}
	return strings.Join(lines, "\n")
}

func insightSummary(in *models.BookValueInsights) string {
	if in == nil || in.Summary == "" {
		return mutedStyle.Render("No data available")
	}
	return in.Summary
}

func renderVehicles(res *dashboard.VehicleListResult) string {
	p := res.Pagination
	title := fmt.Sprintf("Vehicles: page %d of %d, %d total", p.Page, max(p.Pages, 1), p.Total)
	if res.Range != nil {
		title += fmt.Sprintf(" (%s)", res.Range.Label)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if len(res.Items) == 0 {
		b.WriteString(mutedStyle.Render("No vehicles match."))
	} else {
		t := newTable("ID", "Stock #", "Vehicle", "Status", "Description", "Features", "Processed")
		for _, v := range res.Items {
			t.Row(strconv.Itoa(v.ID), v.StockNumber, v.Name, v.Status, v.DescriptionStatus, v.FeaturesText, v.ProcessingDate)
		}
		b.WriteString(t.String())
	}

	if len(res.Items) != res.Fetched {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Showing %d of %d vehicles on this page; status and description filters apply to this page only.", len(res.Items), res.Fetched)))
	}
	var nav []string
	if p.HasPrev {
		nav = append(nav, fmt.Sprintf("--page %d for previous", p.Page-1))
	}
	if p.HasNext {
		nav = append(nav, fmt.Sprintf("--page %d for next", p.Page+1))
	}
	if len(nav) > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(strings.Join(nav, ", ")))
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderVehicleDetail(v *models.VehicleDetail) string {
	status := v.ProcessingStatus
	if v.ProcessingSuccessful {
		status = okStyle.Render(status)
	} else {
		status = errorStyle.Render(status)
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Vehicle #%s (id %d)", v.StockNumber, v.ID)),
		field("Vehicle", deref(v.VehicleName)),
		field("VIN", deref(v.VIN)),
		field("Store", deref(v.StoreID)),
		field("Odometer", deref(v.Odometer)),
		field("Days in inventory", deref(v.DaysInInventory)),
		field("Processed", deref(v.ProcessingDate)),
		field("Status", status),
		field("Duration", deref(v.ProcessingDuration)),
		field("Description updated", yesNo(v.DescriptionUpdated)),
		field("Marked features", strconv.Itoa(v.MarkedFeaturesCount)),
		field("Starred features", deref(v.StarredFeaturesSummary)),
		field("No Fear certificate", yesNo(v.NoFearCertificate)),
		field("Book values processed", yesNo(v.BookValuesProcessed)),
		field("Media tab processed", yesNo(v.MediaTabProcessed)),
	}
	if v.NoBuildDataFound {
		lines = append(lines, warnStyle.Render("No build data found"))
	}
	if len(v.BookValuesAfterProcessing) > 0 {
		lines = append(lines, field("Book values after", formatValues(v.BookValuesAfterProcessing)))
	}
	if len(v.ErrorsEncountered) > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Errors: %v", v.ErrorsEncountered)))
	}
	if v.FinalDescription != nil && *v.FinalDescription != "" {
		lines = append(lines, "", titleStyle.Render("Description"), *v.FinalDescription)
	}
	if v.ScreenshotURL != nil {
		lines = append(lines, "", field("Screenshot", *v.ScreenshotURL))
	}
	return strings.Join(lines, "\n")
}

func formatValues(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func renderStores(stores []*models.Store, selected string) string {
	t := newTable("", "Store", "Label")
	for _, s := range stores {
		mark := ""
		if s.ID == selected {
			mark = "*"
		}
		t.Row(mark, s.ID, s.Label)
	}
	return titleStyle.Render("Stores") + "\n" + t.String()
}

func renderActivity(items []*models.ActivityItem) string {
	if len(items) == 0 {
		return titleStyle.Render("Recent activity") + "\n" + mutedStyle.Render("No recent activity.")
	}
	lines := []string{titleStyle.Render("Recent activity")}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%-14s %s", it.TimeAgo, it.Action))
	}
	return strings.Join(lines, "\n")
}
