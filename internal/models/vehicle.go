package models

import (
	"time"
)

// Processing status values written by the automation system.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// VehicleRecord is a row of vehicle_processing_records. JSON payload columns
// are kept as raw text; the automation system owns their shape.
type VehicleRecord struct {
	ID                         int
	StockNumber                string
	VIN                        *string
	VehicleName                *string
	StoreID                    *string
	ProcessingDate             time.Time
	ProcessingSessionID        *string
	Odometer                   *string
	DaysInInventory            *string
	OriginalDescription        *string
	AIGeneratedDescription     *string
	FinalDescription           *string
	DescriptionUpdated         bool
	StarredFeatures            *string
	MarkedFeaturesCount        *int
	FeatureDecisions           *string
	NoFearCertificate          bool
	NoFearCertificateText      *string
	AIAnalysisResult           *string
	ScreenshotPath             *string
	ProcessingStatus           *string
	ProcessingSuccessful       bool
	ErrorsEncountered          *string
	ProcessingDuration         *string
	NoBuildDataFound           bool
	BookValuesProcessed        bool
	BookValuesBeforeProcessing *string
	BookValuesAfterProcessing  *string
	MediaTabProcessed          bool
	MediaTotalsFound           *string
}

// EffectiveStatus returns the stored processing status, inferring it from
// the success flag when the column is empty.
func (v *VehicleRecord) EffectiveStatus() string {
	if v.ProcessingStatus != nil && *v.ProcessingStatus != "" {
		return *v.ProcessingStatus
	}
	if v.ProcessingSuccessful {
		return StatusCompleted
	}
	return StatusFailed
}

// FeaturesCount returns the marked feature count, zero when unset.
func (v *VehicleRecord) FeaturesCount() int {
	if v.MarkedFeaturesCount == nil {
		return 0
	}
	return *v.MarkedFeaturesCount
}

// VehicleListParams contains parameters for listing vehicles
type VehicleListParams struct {
	Page    int
	PerPage int
	Search  string
	StoreID string // empty means all stores
	Since   *time.Time
	Until   *time.Time // exclusive
}

// Offset returns the row offset for the requested page.
func (p *VehicleListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// VehicleSummary is the list projection returned by /api/vehicles.
type VehicleSummary struct {
	ID                          int      `json:"id"`
	Name                        string   `json:"name"`
	StockNumber                 string   `json:"stock_number"`
	VehicleName                 *string  `json:"vehicle_name"`
	VIN                         *string  `json:"vin"`
	Odometer                    *string  `json:"odometer"`
	DaysInInventory             *string  `json:"days_in_inventory"`
	ProcessingDate              string   `json:"processing_date"`
	ProcessingDateRaw           *string  `json:"processing_date_raw"`
	Status                      string   `json:"status"`
	StatusClass                 string   `json:"status_class"`
	ProcessingStatus            string   `json:"processing_status"`
	ProcessingSuccessful        bool     `json:"processing_successful"`
	DescriptionStatus           string   `json:"description_status"`
	DescriptionClass            string   `json:"description_class"`
	DescriptionUpdated          bool     `json:"description_updated"`
	FeaturesCount               int      `json:"features_count"`
	FeaturesText                string   `json:"features_text"`
	NoFearCertificate           bool     `json:"no_fear_certificate"`
	SpecialFeatures             []string `json:"special_features"`
	ProcessingDuration          *string  `json:"processing_duration"`
	HasErrors                   bool     `json:"has_errors"`
	FinalDescription            *string  `json:"final_description"`
	NoBuildDataFound            bool     `json:"no_build_data_found"`
	BookValuesProcessed         bool     `json:"book_values_processed"`
	MediaTabProcessed           bool     `json:"media_tab_processed"`
	BookValuesStatus            string   `json:"book_values_status"`
	MediaStatus                 string   `json:"media_status"`
	ProcessingCompleteness      string   `json:"processing_completeness"`
	ProcessingCompletenessClass string   `json:"processing_completeness_class"`
}

// Pagination is recomputed on every list request.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// NewPagination computes pagination metadata for a page of results.
func NewPagination(page, perPage, total int) Pagination {
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   (total + perPage - 1) / perPage,
		HasPrev: page > 1,
		HasNext: page*perPage < total,
	}
}

type VehiclesResponse struct {
	Success    bool              `json:"success"`
	Vehicles   []*VehicleSummary `json:"vehicles"`
	Pagination Pagination        `json:"pagination"`
}

// VehicleDetail is the full record returned by /api/vehicle/:id.
type VehicleDetail struct {
	ID                         int              `json:"id"`
	StockNumber                string           `json:"stock_number"`
	VehicleName                *string          `json:"vehicle_name"`
	VIN                        *string          `json:"vin"`
	StoreID                    *string          `json:"store_id"`
	Odometer                   *string          `json:"odometer"`
	DaysInInventory            *string          `json:"days_in_inventory"`
	ProcessingDate             *string          `json:"processing_date"`
	ProcessingStatus           string           `json:"processing_status"`
	ProcessingSuccessful       bool             `json:"processing_successful"`
	ProcessingDuration         *string          `json:"processing_duration"`
	OriginalDescription        *string          `json:"original_description"`
	AIGeneratedDescription     *string          `json:"ai_generated_description"`
	FinalDescription           *string          `json:"final_description"`
	DescriptionUpdated         bool             `json:"description_updated"`
	StarredFeatures            []any            `json:"starred_features"`
	StarredFeaturesSummary     *string          `json:"starred_features_summary"`
	MarkedFeaturesCount        int              `json:"marked_features_count"`
	FeatureDecisions           map[string]any   `json:"feature_decisions"`
	FeatureDecisionsSummary    *string          `json:"feature_decisions_summary"`
	NoFearCertificate          bool             `json:"no_fear_certificate"`
	NoFearCertificateText      *string          `json:"no_fear_certificate_text"`
	BookValuesProcessed        bool             `json:"book_values_processed"`
	BookValuesBeforeProcessing map[string]any   `json:"book_values_before_processing"`
	BookValuesAfterProcessing  map[string]any   `json:"book_values_after_processing"`
	MediaTabProcessed          bool             `json:"media_tab_processed"`
	MediaTotalsFound           map[string]any   `json:"media_totals_found"`
	AIAnalysisResult           map[string]any   `json:"ai_analysis_result"`
	ErrorsEncountered          []any            `json:"errors_encountered"`
	ScreenshotPath             *string          `json:"screenshot_path"`
	ScreenshotURL              *string          `json:"screenshot_url,omitempty"`
	NoBuildDataFound           bool             `json:"no_build_data_found"`
}

type VehicleDetailResponse struct {
	Success bool           `json:"success"`
	Vehicle *VehicleDetail `json:"vehicle"`
}

// DeletedVehicle identifies a removed record in the delete response.
type DeletedVehicle struct {
	StockNumber string  `json:"stock_number"`
	VehicleName *string `json:"vehicle_name"`
}

type DeleteVehicleResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	DeletedVehicle *DeletedVehicle `json:"deleted_vehicle"`
}

// ActivityItem is one entry in the recent activity feed.
type ActivityItem struct {
	ID                   int     `json:"id"`
	StockNumber          string  `json:"stock_number"`
	Action               string  `json:"action"`
	TimeAgo              string  `json:"time_ago"`
	ProcessingSuccessful bool    `json:"processing_successful"`
	ProcessingDate       *string `json:"processing_date"`
}

type ActivityResponse struct {
	Success  bool            `json:"success"`
	Activity []*ActivityItem `json:"activity"`
}
