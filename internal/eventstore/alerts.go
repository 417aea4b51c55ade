package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sentinelspace/platform/pkg/models"
)

type alertRow struct {
	ID             int64        `db:"id"`
	AssetID        sql.NullInt64 `db:"asset_id"`
	ConjunctionID  sql.NullInt64 `db:"conjunction_id"`
	ThreatLevel    string       `db:"threat_level"`
	Message        string       `db:"message"`
	Reason         sql.NullString `db:"reason"`
	Status         string       `db:"status"`
	CreatedAt      time.Time    `db:"created_at"`
	AcknowledgedAt sql.NullTime `db:"acknowledged_at"`
}

func (r alertRow) toModel() models.Alert {
	a := models.Alert{
		ID:            r.ID,
		AssetID:       r.AssetID.Int64,
		ConjunctionID: r.ConjunctionID.Int64,
		ThreatLevel:   models.ThreatLevel(r.ThreatLevel),
		Message:       r.Message,
		Reason:        r.Reason.String,
		Status:        models.AlertStatus(r.Status),
		CreatedAt:     r.CreatedAt,
	}
	if r.AcknowledgedAt.Valid {
		a.AcknowledgedAt = &r.AcknowledgedAt.Time
	}
	return a
}

// CreateAlert inserts a new NEW-status alert and returns its ID.
func (s *Store) CreateAlert(ctx context.Context, alert models.Alert) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO alerts (asset_id, conjunction_id, threat_level, message, reason, status)
		VALUES (:asset_id, :conjunction_id, :threat_level, :message, :reason, :status)`,
		map[string]any{
			"asset_id":       alert.AssetID,
			"conjunction_id": alert.ConjunctionID,
			"threat_level":   string(alert.ThreatLevel),
			"message":        alert.Message,
			"reason":         alert.Reason,
			"status":         string(models.AlertNew),
		})
	if err != nil {
		return 0, fmt.Errorf("eventstore: create alert: %w", err)
	}
	return res.LastInsertId()
}

// ListAlerts returns alerts, optionally filtered to one asset (assetID == 0
// means all assets), newest first.
func (s *Store) ListAlerts(ctx context.Context, assetID int64) ([]models.Alert, error) {
	var rows []alertRow
	var err error
	if assetID == 0 {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM alerts ORDER BY created_at DESC`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM alerts WHERE asset_id = ? ORDER BY created_at DESC`, assetID)
	}
	if err != nil {
		return nil, fmt.Errorf("eventstore: list alerts: %w", err)
	}
	out := make([]models.Alert, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// AcknowledgeAlert transitions an alert to ACKNOWLEDGED and stamps the time.
func (s *Store) AcknowledgeAlert(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET status = ?, acknowledged_at = ? WHERE id = ?`,
		string(models.AlertAcknowledged), at, id)
	if err != nil {
		return fmt.Errorf("eventstore: acknowledge alert %d: %w", id, err)
	}
	return nil
}

// GetAlertConfig returns the per-asset config if one exists, otherwise the
// global config (assetID == nil row). Falls back to models.DefaultAlertConfig
// if neither has been persisted yet.
func (s *Store) GetAlertConfig(ctx context.Context, assetID *int64) (models.AlertConfig, error) {
	var row struct {
		ID                int64           `db:"id"`
		AssetID           sql.NullInt64   `db:"asset_id"`
		CriticalThreshold float64         `db:"critical_threshold"`
		HighThreshold     float64         `db:"high_threshold"`
		ModerateThreshold float64         `db:"moderate_threshold"`
		MinDistanceKm     sql.NullFloat64 `db:"min_distance_km"`
		Enabled           bool            `db:"enabled"`
	}

	var err error
	if assetID != nil {
		err = s.db.GetContext(ctx, &row, `SELECT * FROM alert_configs WHERE asset_id = ?`, *assetID)
		if err == sql.ErrNoRows {
			// No per-asset override: fall back to the global config row.
			err = s.db.GetContext(ctx, &row, `SELECT * FROM alert_configs WHERE asset_id IS NULL`)
		}
	} else {
		err = s.db.GetContext(ctx, &row, `SELECT * FROM alert_configs WHERE asset_id IS NULL`)
	}
	if err == sql.ErrNoRows {
		return models.DefaultAlertConfig(), nil
	}
	if err != nil {
		return models.AlertConfig{}, fmt.Errorf("eventstore: get alert config: %w", err)
	}

	cfg := models.AlertConfig{
		ID:                row.ID,
		CriticalThreshold: row.CriticalThreshold,
		HighThreshold:     row.HighThreshold,
		ModerateThreshold: row.ModerateThreshold,
		Enabled:           row.Enabled,
	}
	if row.AssetID.Valid {
		id := row.AssetID.Int64
		cfg.AssetID = &id
	}
	if row.MinDistanceKm.Valid {
		d := row.MinDistanceKm.Float64
		cfg.MinDistanceKm = &d
	}
	return cfg, nil
}

// UpsertAlertConfig creates or replaces the alert threshold config for an
// asset (or the global config when cfg.AssetID is nil). SQLite's UNIQUE
// index on asset_id treats every NULL as distinct, so ON CONFLICT can't
// detect an existing global row; the existence check is done explicitly
// instead.
func (s *Store) UpsertAlertConfig(ctx context.Context, cfg models.AlertConfig) error {
	var existingID sql.NullInt64
	var err error
	if cfg.AssetID != nil {
		err = s.db.GetContext(ctx, &existingID, `SELECT id FROM alert_configs WHERE asset_id = ?`, *cfg.AssetID)
	} else {
		err = s.db.GetContext(ctx, &existingID, `SELECT id FROM alert_configs WHERE asset_id IS NULL`)
	}
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.NamedExecContext(ctx, `
			INSERT INTO alert_configs (asset_id, critical_threshold, high_threshold, moderate_threshold, min_distance_km, enabled)
			VALUES (:asset_id, :critical_threshold, :high_threshold, :moderate_threshold, :min_distance_km, :enabled)`,
			map[string]any{
				"asset_id":           cfg.AssetID,
				"critical_threshold": cfg.CriticalThreshold,
				"high_threshold":     cfg.HighThreshold,
				"moderate_threshold": cfg.ModerateThreshold,
				"min_distance_km":    cfg.MinDistanceKm,
				"enabled":            cfg.Enabled,
			})
	case err != nil:
		return fmt.Errorf("eventstore: upsert alert config: lookup: %w", err)
	default:
		_, err = s.db.NamedExecContext(ctx, `
			UPDATE alert_configs SET
				critical_threshold = :critical_threshold,
				high_threshold = :high_threshold,
				moderate_threshold = :moderate_threshold,
				min_distance_km = :min_distance_km,
				enabled = :enabled
			WHERE id = :id`,
			map[string]any{
				"id":                 existingID.Int64,
				"critical_threshold": cfg.CriticalThreshold,
				"high_threshold":     cfg.HighThreshold,
				"moderate_threshold": cfg.ModerateThreshold,
				"min_distance_km":    cfg.MinDistanceKm,
				"enabled":            cfg.Enabled,
			})
	}
	if err != nil {
		return fmt.Errorf("eventstore: upsert alert config: %w", err)
	}
	return nil
}
