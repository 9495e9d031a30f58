package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/database"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

const (
	displayDateLayout   = "January 02, 2006 at 03:04 PM"
	descriptionPreview  = 200
	featureNameMax      = 50
	featureSummaryLimit = 5
	screenshotURLExpiry = 15 * time.Minute
)

// ListVehicles returns a page of processed vehicles for the caller's store
func (h *Handler) ListVehicles(c *fiber.Ctx) error {
	storeID, err := storeScope(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		return Error(c, fiber.StatusBadRequest, "page must be at least 1")
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		return Error(c, fiber.StatusBadRequest, "per_page must be between 1 and 100")
	}
	if page > math.MaxInt32/perPage {
		return Error(c, fiber.StatusBadRequest, "page is out of range")
	}

	params := &models.VehicleListParams{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(c.Query("search")),
		StoreID: storeID,
	}

	window, explicit, err := parseDateWindow(c, h.now())
	if err != nil {
		return err
	}
	if explicit {
		params.Since = &window.Since
		params.Until = &window.Until
	}

	records, total, err := h.repo.ListVehicles(c.Context(), params)
	if err != nil {
		h.logger.Error("list vehicles failed", zap.String("store_id", storeID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list vehicles")
	}

	vehicles := make([]*models.VehicleSummary, 0, len(records))
	for _, v := range records {
		vehicles = append(vehicles, summarizeVehicle(v))
	}

	return c.JSON(models.VehiclesResponse{
		Success:    true,
		Vehicles:   vehicles,
		Pagination: models.NewPagination(page, perPage, total),
	})
}

// GetVehicle returns the full record of one vehicle
func (h *Handler) GetVehicle(c *fiber.Ctx) error {
	storeID, err := storeScope(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid vehicle id")
	}

	v, err := h.repo.GetVehicleByID(c.Context(), id, storeID)
	if err != nil {
		if errors.Is(err, database.ErrVehicleNotFound) {
			return Error(c, fiber.StatusNotFound, "Vehicle not found")
		}
		h.logger.Error("get vehicle failed", zap.Int("id", id), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to load vehicle")
	}

	detail := detailVehicle(v)
	if h.storage != nil && v.ScreenshotPath != nil && *v.ScreenshotPath != "" {
		url, err := h.storage.PresignedURL(c.Context(), *v.ScreenshotPath, screenshotURLExpiry)
		if err != nil {
			h.logger.Warn("presign screenshot failed", zap.Int("id", id), zap.Error(err))
		} else {
			detail.ScreenshotURL = &url
		}
	}

	return c.JSON(models.VehicleDetailResponse{Success: true, Vehicle: detail})
}

// DeleteVehicle removes a vehicle record within the caller's store
func (h *Handler) DeleteVehicle(c *fiber.Ctx) error {
	storeID, err := storeScope(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid vehicle id")
	}

	v, err := h.repo.DeleteVehicle(c.Context(), id, storeID)
	if err != nil {
		if errors.Is(err, database.ErrVehicleNotFound) {
			return Error(c, fiber.StatusNotFound, "Vehicle not found")
		}
		h.logger.Error("delete vehicle failed", zap.Int("id", id), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "Failed to delete vehicle")
	}

	if v.StoreID != nil {
		h.cache.InvalidateStore(c.Context(), *v.StoreID)
	} else {
		h.cache.InvalidateStore(c.Context(), "")
	}
	if h.storage != nil && v.ScreenshotPath != nil && *v.ScreenshotPath != "" {
		if err := h.storage.Delete(c.Context(), *v.ScreenshotPath); err != nil {
			h.logger.Warn("delete screenshot failed", zap.Int("id", id), zap.Error(err))
		}
	}

	h.logger.Info("vehicle deleted", zap.Int("id", id), zap.String("stock_number", v.StockNumber))
	return c.JSON(models.DeleteVehicleResponse{
		Success: true,
		Message: fmt.Sprintf("Vehicle %s deleted successfully", v.StockNumber),
		DeletedVehicle: &models.DeletedVehicle{
			StockNumber: v.StockNumber,
			VehicleName: v.VehicleName,
		},
	})
}

func summarizeVehicle(v *models.VehicleRecord) *models.VehicleSummary {
	s := &models.VehicleSummary{
		ID:                   v.ID,
		Name:                 displayName(v),
		StockNumber:          v.StockNumber,
		VehicleName:          v.VehicleName,
		VIN:                  v.VIN,
		Odometer:             v.Odometer,
		DaysInInventory:      v.DaysInInventory,
		ProcessingDate:       "Unknown",
		ProcessingStatus:     v.EffectiveStatus(),
		ProcessingSuccessful: v.ProcessingSuccessful,
		DescriptionUpdated:   v.DescriptionUpdated,
		FeaturesCount:        v.FeaturesCount(),
		FeaturesText:         fmt.Sprintf("%d features marked", v.FeaturesCount()),
		NoFearCertificate:    v.NoFearCertificate,
		SpecialFeatures:      []string{},
		ProcessingDuration:   v.ProcessingDuration,
		HasErrors:            hasErrors(v.ErrorsEncountered),
		FinalDescription:     truncateDescription(v.FinalDescription),
		NoBuildDataFound:     v.NoBuildDataFound,
		BookValuesProcessed:  v.BookValuesProcessed,
		MediaTabProcessed:    v.MediaTabProcessed,
	}
	if !v.ProcessingDate.IsZero() {
		s.ProcessingDate = v.ProcessingDate.Format(displayDateLayout)
		raw := v.ProcessingDate.Format(time.RFC3339)
		s.ProcessingDateRaw = &raw
	}

	switch {
	case v.NoBuildDataFound:
		s.Status, s.StatusClass = "📋 No Build Data Found", "warning"
	case s.ProcessingStatus == models.StatusProcessing:
		s.Status, s.StatusClass = "🔄 Processing...", "warning"
	case s.ProcessingStatus == models.StatusPending:
		s.Status, s.StatusClass = "⏳ Pending", "muted"
	case v.ProcessingSuccessful:
		s.Status, s.StatusClass = "✅ Completed Successfully", "success"
	default:
		s.Status, s.StatusClass = "❌ Processing Failed", "danger"
	}

	if v.DescriptionUpdated {
		s.DescriptionStatus, s.DescriptionClass = "📝 Description Updated", "success"
	} else {
		s.DescriptionStatus, s.DescriptionClass = "📄 No Description", "muted"
	}
	if v.NoFearCertificate {
		s.SpecialFeatures = append(s.SpecialFeatures, "🏆 NO FEAR Certified")
	}
	if v.BookValuesProcessed {
		s.BookValuesStatus = "📊 Book Values Processed"
	} else {
		s.BookValuesStatus = "📊 Book Values Pending"
	}
	if v.MediaTabProcessed {
		s.MediaStatus = "📸 Media Processed"
	} else {
		s.MediaStatus = "📸 Media Pending"
	}

	s.ProcessingCompleteness, s.ProcessingCompletenessClass = completeness(
		v.ProcessingSuccessful, v.DescriptionUpdated, v.BookValuesProcessed, v.MediaTabProcessed,
	)
	return s
}

func displayName(v *models.VehicleRecord) string {
	if v.VehicleName != nil && *v.VehicleName != "" {
		return *v.VehicleName
	}
	name := "Vehicle #" + v.StockNumber
	if v.VIN != nil && *v.VIN != "" {
		vin := *v.VIN
		if len(vin) > 6 {
			vin = vin[len(vin)-6:]
		}
		name += " (VIN: ..." + vin + ")"
	}
	return name
}

func completeness(steps ...bool) (string, string) {
	done := 0
	for _, s := range steps {
		if s {
			done++
		}
	}
	total := len(steps)
	switch {
	case done == total:
		return fmt.Sprintf("✅ Complete (%d/%d)", done, total), "success"
	case done > total/2:
		return fmt.Sprintf("🔄 Mostly Complete (%d/%d)", done, total), "warning"
	default:
		return fmt.Sprintf("🟡 Partial (%d/%d)", done, total), "danger"
	}
}

func truncateDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	runes := []rune(*desc)
	if len(runes) <= descriptionPreview {
		return desc
	}
	short := string(runes[:descriptionPreview]) + "..."
	return &short
}

// hasErrors treats empty payloads and empty JSON collections as no errors.
func hasErrors(raw *string) bool {
	if raw == nil {
		return false
	}
	switch strings.TrimSpace(*raw) {
	case "", "[]", "{}", "null":
		return false
	}
	return true
}

func detailVehicle(v *models.VehicleRecord) *models.VehicleDetail {
	d := &models.VehicleDetail{
		ID:                         v.ID,
		StockNumber:                v.StockNumber,
		VehicleName:                v.VehicleName,
		VIN:                        v.VIN,
		StoreID:                    v.StoreID,
		Odometer:                   v.Odometer,
		DaysInInventory:            v.DaysInInventory,
		ProcessingStatus:           v.EffectiveStatus(),
		ProcessingSuccessful:       v.ProcessingSuccessful,
		ProcessingDuration:         v.ProcessingDuration,
		OriginalDescription:        v.OriginalDescription,
		AIGeneratedDescription:     v.AIGeneratedDescription,
		FinalDescription:           v.FinalDescription,
		DescriptionUpdated:         v.DescriptionUpdated,
		StarredFeatures:            decodeList(v.StarredFeatures),
		MarkedFeaturesCount:        v.FeaturesCount(),
		FeatureDecisions:           decodeObject(v.FeatureDecisions),
		NoFearCertificate:          v.NoFearCertificate,
		NoFearCertificateText:      v.NoFearCertificateText,
		BookValuesProcessed:        v.BookValuesProcessed,
		BookValuesBeforeProcessing: decodeObject(v.BookValuesBeforeProcessing),
		BookValuesAfterProcessing:  decodeObject(v.BookValuesAfterProcessing),
		MediaTabProcessed:          v.MediaTabProcessed,
		MediaTotalsFound:           decodeObject(v.MediaTotalsFound),
		AIAnalysisResult:           decodeObject(v.AIAnalysisResult),
		ErrorsEncountered:          decodeList(v.ErrorsEncountered),
		ScreenshotPath:             v.ScreenshotPath,
		NoBuildDataFound:           v.NoBuildDataFound,
	}
	if !v.ProcessingDate.IsZero() {
		formatted := v.ProcessingDate.Format(displayDateLayout)
		d.ProcessingDate = &formatted
	}
	d.StarredFeaturesSummary = starredSummary(d.StarredFeatures)
	if len(d.FeatureDecisions) > 0 {
		summary := fmt.Sprintf("AI analyzed %d features with recommendations", len(d.FeatureDecisions))
		d.FeatureDecisionsSummary = &summary
	}
	return d
}

func starredSummary(features []any) *string {
	var names []string
	for _, f := range features {
		switch val := f.(type) {
		case string:
			names = append(names, truncateRunes(val, featureNameMax))
		case map[string]any:
			if text, ok := val["text"].(string); ok {
				names = append(names, truncateRunes(text, featureNameMax))
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	shown := names
	if len(shown) > featureSummaryLimit {
		shown = shown[:featureSummaryLimit]
	}
	summary := strings.Join(shown, ", ")
	if extra := len(names) - featureSummaryLimit; extra > 0 {
		summary += fmt.Sprintf(" (+%d more)", extra)
	}
	return &summary
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// decodeList and decodeObject read JSON text columns leniently; anything
// malformed decodes to an empty value.
func decodeList(raw *string) []any {
	out := []any{}
	if raw == nil || *raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(*raw), &out); err != nil || out == nil {
		return []any{}
	}
	return out
}

func decodeObject(raw *string) map[string]any {
	out := map[string]any{}
	if raw == nil || *raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(*raw), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
