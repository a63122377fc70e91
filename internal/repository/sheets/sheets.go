// FilePath: internal/repository/sheets/sheets.go

// Package sheets implements the reading store over the Google Sheets
// values API. One worksheet, one flat row per reading, append-only.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/models"
	"github.com/floodwatch/hub/internal/repository"
)

// header is the stable column order. Replacement storage backends
// must keep it to stay row-compatible.
var header = []string{
	"data_id", "node_id", "piezo_value", "ultrasonic_value",
	"rain_sensor_value", "location", "timestamp",
}

// ReadingRepository stores readings in a Google spreadsheet.
type ReadingRepository struct {
	cfg    config.SheetsConfig
	client *resty.Client

	mu          sync.Mutex
	headerKnown bool
}

// NewReadingRepository creates a sheets-backed reading store.
func NewReadingRepository(cfg config.SheetsConfig) *ReadingRepository {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.AccessToken)
	return &ReadingRepository{cfg: cfg, client: client}
}

type valueRange struct {
	Values [][]interface{} `json:"values"`
}

// Store appends one reading row. When the backend is unreachable and
// ephemeral mode is enabled, it reports a non-durable local success
// instead of failing; callers can tell the two apart via Durable.
func (r *ReadingRepository) Store(ctx context.Context, reading *models.SensorReading) (*models.Stored, error) {
	now := time.Now()
	reading.Normalize(now)

	if err := r.ensureHeader(ctx); err != nil {
		return r.storeFallback(reading, err)
	}

	row := [][]interface{}{{
		reading.DataID, reading.NodeID,
		reading.PiezoValue, reading.UltrasonicValue, reading.RainSensorValue,
		reading.Location, reading.Timestamp,
	}}

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "USER_ENTERED").
		SetBody(valueRange{Values: row}).
		Post(r.valuesURL(":append"))
	if err != nil {
		return r.storeFallback(reading, err)
	}
	if !resp.IsSuccess() {
		return r.storeFallback(reading,
			fmt.Errorf("sheets append returned status %d", resp.StatusCode()))
	}

	return &models.Stored{
		DataID:    reading.DataID,
		Timestamp: reading.Timestamp,
		Durable:   true,
	}, nil
}

// Query reads the whole sheet, maps rows to readings, skips malformed
// rows, and applies filters newest first.
func (r *ReadingRepository) Query(ctx context.Context, filters models.ReadingFilters) ([]models.SensorReading, error) {
	var out valueRange
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(r.valuesURL(""))
	if err != nil {
		return nil, errors.NewTransportError("sheets read failed", err)
	}
	if !resp.IsSuccess() {
		return nil, errors.NewTransportError(
			fmt.Sprintf("sheets read returned status %d", resp.StatusCode()), nil)
	}

	readings := make([]models.SensorReading, 0, len(out.Values))
	for i, row := range out.Values {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		reading, ok := parseRow(row)
		if !ok {
			nuts.L.Debugf("[Sheets] Skipping malformed row %d", i+1)
			continue
		}
		readings = append(readings, reading)
	}

	repository.SortNewestFirst(readings)
	return repository.FilterReadings(readings, filters, time.Now()), nil
}

// Statistics aggregates over the last 30 days of rows.
func (r *ReadingRepository) Statistics(ctx context.Context) (*models.DataStatistics, error) {
	readings, err := r.Query(ctx, models.ReadingFilters{Limit: 1000, DaysBack: 30})
	if err != nil {
		return nil, err
	}
	return repository.BuildStatistics(readings), nil
}

// Ping verifies the spreadsheet is reachable.
func (r *ReadingRepository) Ping(ctx context.Context) error {
	resp, err := r.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v4/spreadsheets/%s", r.cfg.SpreadsheetID))
	if err != nil {
		return errors.NewTransportError("sheets ping failed", err)
	}
	if !resp.IsSuccess() {
		return errors.NewTransportError(
			fmt.Sprintf("sheets ping returned status %d", resp.StatusCode()), nil)
	}
	return nil
}

// ensureHeader bootstraps the header row on first use of an empty
// sheet. Checked once per process; the sheet is append-only after
// that.
func (r *ReadingRepository) ensureHeader(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headerKnown {
		return nil
	}

	var out valueRange
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/v4/spreadsheets/%s/values/%s!A1:G1", r.cfg.SpreadsheetID, r.cfg.SheetName))
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("sheets header check returned status %d", resp.StatusCode())
	}

	if len(out.Values) == 0 {
		headerRow := make([]interface{}, len(header))
		for i, h := range header {
			headerRow[i] = h
		}
		resp, err = r.client.R().
			SetContext(ctx).
			SetQueryParam("valueInputOption", "USER_ENTERED").
			SetBody(valueRange{Values: [][]interface{}{headerRow}}).
			Post(r.valuesURL(":append"))
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("sheets header append returned status %d", resp.StatusCode())
		}
	}

	r.headerKnown = true
	return nil
}

// storeFallback implements the documented ephemeral mode: the write
// is acknowledged without durability so ingestion can keep going
// through a backend outage.
func (r *ReadingRepository) storeFallback(reading *models.SensorReading, cause error) (*models.Stored, error) {
	if !r.cfg.AllowEphemeral {
		return nil, errors.NewStorageError("failed to store reading", cause)
	}
	nuts.L.Warnf("[Sheets] Backend unavailable, acknowledging non-durable write for %s: %v", reading.NodeID, cause)
	return &models.Stored{
		DataID:    reading.DataID,
		Timestamp: reading.Timestamp,
		Durable:   false,
	}, nil
}

func (r *ReadingRepository) valuesURL(suffix string) string {
	return fmt.Sprintf("/v4/spreadsheets/%s/values/%s!A:G%s",
		r.cfg.SpreadsheetID, r.cfg.SheetName, suffix)
}

func looksLikeHeader(row []interface{}) bool {
	return len(row) > 0 && fmt.Sprint(row[0]) == "data_id"
}

// parseRow maps one sheet row onto a reading. Numeric cells may come
// back as strings or numbers depending on how the sheet was written.
func parseRow(row []interface{}) (models.SensorReading, bool) {
	if len(row) < 7 {
		return models.SensorReading{}, false
	}

	piezo, ok1 := toFloat(row[2])
	ultrasonic, ok2 := toFloat(row[3])
	rain, ok3 := toFloat(row[4])
	if !ok1 || !ok2 || !ok3 {
		return models.SensorReading{}, false
	}

	nodeID := fmt.Sprint(row[1])
	if nodeID == "" {
		return models.SensorReading{}, false
	}

	location := fmt.Sprint(row[5])
	if location == "" {
		location = "Unknown"
	}

	return models.SensorReading{
		DataID:          fmt.Sprint(row[0]),
		NodeID:          nodeID,
		PiezoValue:      piezo,
		UltrasonicValue: ultrasonic,
		RainSensorValue: rain,
		Location:        location,
		Timestamp:       fmt.Sprint(row[6]),
	}, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
