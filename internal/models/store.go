package models

import (
	"time"
)

// Store is a dealership location. Stores are not a table of their own; they
// are the distinct store ids recorded on vehicle records and users.
type Store struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

type StoresResponse struct {
	Success bool     `json:"success"`
	Stores  []*Store `json:"stores"`
}

// StatsParams scopes a statistics query.
type StatsParams struct {
	StoreID string // empty means all stores
	Since   time.Time
	Until   time.Time // exclusive
	Now     time.Time
}

// VehicleCounts are the aggregate counters computed in SQL.
type VehicleCounts struct {
	TotalVehicles        int
	SuccessfulProcessing int
	DescriptionsUpdated  int
	NoFearCertificates   int
	RecentActivity7Days  int
	TotalFeaturesMarked  int
}

// BookValuePair holds the raw before/after book value payloads of one vehicle.
type BookValuePair struct {
	StockNumber string
	Before      string
	After       string
}

// CategoryInsight is the aggregated change for one book value source.
type CategoryInsight struct {
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Difference  float64 `json:"difference"`
	Improvement bool    `json:"improvement"`
}

// BestImprovement names the category with the largest increase.
type BestImprovement struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// BookValueInsights summarizes book value changes across vehicles.
type BookValueInsights struct {
	TotalDifference float64                     `json:"total_difference"`
	Categories      map[string]*CategoryInsight `json:"categories"`
	BestImprovement BestImprovement             `json:"best_improvement"`
	PrimarySource   string                      `json:"primary_source"`
	Summary         string                      `json:"summary"`
}

type Statistics struct {
	TotalVehicles         int                `json:"total_vehicles"`
	SuccessfulProcessing  int                `json:"successful_processing"`
	SuccessRate           string             `json:"success_rate"`
	SuccessRateValue      float64            `json:"success_rate_value"`
	DescriptionsUpdated   int                `json:"descriptions_updated"`
	NoFearCertificates    int                `json:"no_fear_certificates"`
	RecentActivity7Days   int                `json:"recent_activity_7_days"`
	TotalFeaturesMarked   int                `json:"total_features_marked"`
	AvgFeaturesPerVehicle string             `json:"avg_features_per_vehicle"`
	TotalBookValueMTD     float64            `json:"total_book_value_mtd"`
	TotalBookValueYTD     float64            `json:"total_book_value_ytd"`
	BookValueInsightsMTD  *BookValueInsights `json:"book_value_insights_mtd"`
	BookValueInsightsYTD  *BookValueInsights `json:"book_value_insights_ytd"`
	TimeSavedMinutes      int                `json:"time_saved_minutes"`
	TimeSavedFormatted    string             `json:"time_saved_formatted"`
	StartDate             string             `json:"start_date"`
	EndDate               string             `json:"end_date"`
	StoreID               string             `json:"store_id,omitempty"`
}

type StatisticsResponse struct {
	Success    bool        `json:"success"`
	Statistics *Statistics `json:"statistics"`
}
