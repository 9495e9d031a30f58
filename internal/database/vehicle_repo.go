package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

var ErrVehicleNotFound = errors.New("vehicle not found")

const vehicleColumns = `
	v.id, v.stock_number, v.vin, v.vehicle_name, v.environment_id,
	v.processing_date, v.processing_session_id, v.odometer, v.days_in_inventory,
	v.original_description, v.ai_generated_description, v.final_description,
	COALESCE(v.description_updated, false),
	v.starred_features, v.marked_features_count, v.feature_decisions,
	COALESCE(v.no_fear_certificate, false), v.no_fear_certificate_text,
	v.ai_analysis_result, v.screenshot_path, v.processing_status,
	COALESCE(v.processing_successful, false), v.errors_encountered, v.processing_duration,
	COALESCE(v.no_build_data_found, false), COALESCE(v.book_values_processed, false),
	v.book_values_before_processing, v.book_values_after_processing,
	COALESCE(v.media_tab_processed, false), v.media_totals_found`

func scanVehicle(row pgx.Row) (*models.VehicleRecord, error) {
	v := &models.VehicleRecord{}
	err := row.Scan(
		&v.ID, &v.StockNumber, &v.VIN, &v.VehicleName, &v.StoreID,
		&v.ProcessingDate, &v.ProcessingSessionID, &v.Odometer, &v.DaysInInventory,
		&v.OriginalDescription, &v.AIGeneratedDescription, &v.FinalDescription,
		&v.DescriptionUpdated,
		&v.StarredFeatures, &v.MarkedFeaturesCount, &v.FeatureDecisions,
		&v.NoFearCertificate, &v.NoFearCertificateText,
		&v.AIAnalysisResult, &v.ScreenshotPath, &v.ProcessingStatus,
		&v.ProcessingSuccessful, &v.ErrorsEncountered, &v.ProcessingDuration,
		&v.NoBuildDataFound, &v.BookValuesProcessed,
		&v.BookValuesBeforeProcessing, &v.BookValuesAfterProcessing,
		&v.MediaTabProcessed, &v.MediaTotalsFound,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return v, nil
}

// whereBuilder accumulates positional-argument predicates.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

// ListVehicles returns a page of vehicle records, newest first, and the
// total number of matching records
func (db *DB) ListVehicles(ctx context.Context, params *models.VehicleListParams) ([]*models.VehicleRecord, int, error) {
	w := &whereBuilder{}
	if params.StoreID != "" {
		w.add("v.environment_id = $%d", params.StoreID)
	}
	if params.Search != "" {
		w.add("v.stock_number ILIKE $%d", "%"+params.Search+"%")
	}
	if params.Since != nil {
		w.add("v.processing_date >= $%d", *params.Since)
	}
	if params.Until != nil {
		w.add("v.processing_date < $%d", *params.Until)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vehicle_processing_records v %s", w)
	if err := db.Pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM vehicle_processing_records v
		%s
		ORDER BY v.processing_date DESC, v.id DESC
		LIMIT $%d OFFSET $%d
	`, vehicleColumns, w, len(w.args)+1, len(w.args)+2)
	args := append(w.args, params.PerPage, params.Offset())

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vehicles []*models.VehicleRecord
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

// GetVehicleByID retrieves a vehicle record within a store scope. An empty
// storeID matches any store.
func (db *DB) GetVehicleByID(ctx context.Context, id int, storeID string) (*models.VehicleRecord, error) {
	w := &whereBuilder{}
	w.add("v.id = $%d", id)
	if storeID != "" {
		w.add("v.environment_id = $%d", storeID)
	}
	return scanVehicle(db.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM vehicle_processing_records v %s`, vehicleColumns, w),
		w.args...,
	))
}

// DeleteVehicle removes a vehicle record within a store scope and returns
// the deleted row
func (db *DB) DeleteVehicle(ctx context.Context, id int, storeID string) (*models.VehicleRecord, error) {
	w := &whereBuilder{}
	w.add("v.id = $%d", id)
	if storeID != "" {
		w.add("v.environment_id = $%d", storeID)
	}
	return scanVehicle(db.Pool.QueryRow(ctx,
		fmt.Sprintf(`DELETE FROM vehicle_processing_records v %s RETURNING %s`, w, vehicleColumns),
		w.args...,
	))
}

// RecentVehicles returns the latest processed vehicles for a store
func (db *DB) RecentVehicles(ctx context.Context, storeID string, limit int) ([]*models.VehicleRecord, error) {
	params := &models.VehicleListParams{Page: 1, PerPage: limit, StoreID: storeID}
	vehicles, _, err := db.ListVehicles(ctx, params)
	return vehicles, err
}

// SampleBookValueVehicles returns up to limit records that carry book values
func (db *DB) SampleBookValueVehicles(ctx context.Context, storeID string, limit int) ([]*models.VehicleRecord, error) {
	w := &whereBuilder{}
	w.clauses = append(w.clauses, "COALESCE(v.book_values_processed, false)", "v.book_values_before_processing IS NOT NULL")
	if storeID != "" {
		w.add("v.environment_id = $%d", storeID)
	}
	rows, err := db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM vehicle_processing_records v %s ORDER BY v.processing_date DESC LIMIT $%d`,
			vehicleColumns, w, len(w.args)+1),
		append(w.args, limit)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.VehicleRecord
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ListStoreIDs returns every distinct store id seen on vehicle records
func (db *DB) ListStoreIDs(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT environment_id
		FROM vehicle_processing_records
		WHERE environment_id IS NOT NULL AND environment_id <> ''
		ORDER BY environment_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertVehicle writes a vehicle record the way the automation system does
func (db *DB) InsertVehicle(ctx context.Context, v *models.VehicleRecord) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO vehicle_processing_records (
			stock_number, vin, vehicle_name, environment_id, processing_date, processing_session_id,
			odometer, days_in_inventory, original_description, ai_generated_description, final_description,
			description_updated, starred_features, marked_features_count, feature_decisions,
			no_fear_certificate, no_fear_certificate_text, ai_analysis_result, screenshot_path,
			processing_status, processing_successful, errors_encountered, processing_duration,
			no_build_data_found, book_values_processed, book_values_before_processing,
			book_values_after_processing, media_tab_processed, media_totals_found
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		) RETURNING id
	`,
		v.StockNumber, v.VIN, v.VehicleName, v.StoreID, v.ProcessingDate, v.ProcessingSessionID,
		v.Odometer, v.DaysInInventory, v.OriginalDescription, v.AIGeneratedDescription, v.FinalDescription,
		v.DescriptionUpdated, v.StarredFeatures, v.MarkedFeaturesCount, v.FeatureDecisions,
		v.NoFearCertificate, v.NoFearCertificateText, v.AIAnalysisResult, v.ScreenshotPath,
		v.ProcessingStatus, v.ProcessingSuccessful, v.ErrorsEncountered, v.ProcessingDuration,
		v.NoBuildDataFound, v.BookValuesProcessed, v.BookValuesBeforeProcessing,
		v.BookValuesAfterProcessing, v.MediaTabProcessed, v.MediaTotalsFound,
	).Scan(&id)
	return id, err
}

// GetVehicleCounts computes the statistics counters for a store and range
func (db *DB) GetVehicleCounts(ctx context.Context, params *models.StatsParams) (*models.VehicleCounts, error) {
	w := &whereBuilder{}
	w.add("processing_date >= $%d", params.Since)
	w.add("processing_date < $%d", params.Until)
	if params.StoreID != "" {
		w.add("environment_id = $%d", params.StoreID)
	}
	recentIdx := len(w.args) + 1

	counts := &models.VehicleCounts{}
	err := db.Pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE processing_successful),
			COUNT(*) FILTER (WHERE description_updated),
			COUNT(*) FILTER (WHERE no_fear_certificate),
			COUNT(*) FILTER (WHERE processing_date >= $%d),
			COALESCE(SUM(marked_features_count), 0)
		FROM vehicle_processing_records
		%s
	`, recentIdx, w), append(w.args, params.Now.Add(-7*24*time.Hour))...).Scan(
		&counts.TotalVehicles,
		&counts.SuccessfulProcessing,
		&counts.DescriptionsUpdated,
		&counts.NoFearCertificates,
		&counts.RecentActivity7Days,
		&counts.TotalFeaturesMarked,
	)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// ListBookValuePairs returns the before/after book values of processed
// vehicles in a range
func (db *DB) ListBookValuePairs(ctx context.Context, storeID string, since, until time.Time) ([]*models.BookValuePair, error) {
	w := &whereBuilder{}
	w.clauses = append(w.clauses,
		"COALESCE(book_values_processed, false)",
		"book_values_before_processing IS NOT NULL",
		"book_values_after_processing IS NOT NULL",
	)
	w.add("processing_date >= $%d", since)
	w.add("processing_date < $%d", until)
	if storeID != "" {
		w.add("environment_id = $%d", storeID)
	}

	rows, err := db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT stock_number, book_values_before_processing, book_values_after_processing
		FROM vehicle_processing_records
		%s
	`, w), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []*models.BookValuePair
	for rows.Next() {
		p := &models.BookValuePair{}
		if err := rows.Scan(&p.StockNumber, &p.Before, &p.After); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
