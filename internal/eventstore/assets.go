package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sentinelspace/platform/internal/tle"
	"github.com/sentinelspace/platform/pkg/models"
)

type assetRow struct {
	ID              int64     `db:"id"`
	NoradID         int       `db:"norad_id"`
	Name            string    `db:"name"`
	TLELine1        string    `db:"tle_line1"`
	TLELine2        string    `db:"tle_line2"`
	MassKg          *float64  `db:"mass_kg"`
	CrossSectionM2  *float64  `db:"cross_section_m2"`
	HardBodyRadiusM float64   `db:"hard_body_radius_m"`
	Maneuverable    bool      `db:"maneuverable"`
	DeltaVBudgetMs  *float64  `db:"delta_v_budget_ms"`
	HasGPS          bool      `db:"has_gps"`
	OrbitType       sql.NullString `db:"orbit_type"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r assetRow) toModel() (models.Asset, error) {
	elem, _, _, err := tle.ParseLines(r.Name, r.TLELine1, r.TLELine2)
	if err != nil {
		return models.Asset{}, fmt.Errorf("eventstore: reparse stored TLE for asset %d: %w", r.ID, err)
	}
	return models.Asset{
		ID:              r.ID,
		Element:         elem,
		MassKg:          r.MassKg,
		CrossSectionM2:  r.CrossSectionM2,
		HardBodyRadiusM: r.HardBodyRadiusM,
		Maneuverable:    r.Maneuverable,
		DeltaVBudgetMs:  r.DeltaVBudgetMs,
		HasGPS:          r.HasGPS,
		OrbitType:       r.OrbitType.String,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

// CreateAsset inserts a new asset from its TLE and physical properties and
// returns the assigned ID.
func (s *Store) CreateAsset(ctx context.Context, asset models.Asset) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO assets (norad_id, name, tle_line1, tle_line2, mass_kg, cross_section_m2,
			hard_body_radius_m, maneuverable, delta_v_budget_ms, has_gps, orbit_type)
		VALUES (:norad_id, :name, :tle_line1, :tle_line2, :mass_kg, :cross_section_m2,
			:hard_body_radius_m, :maneuverable, :delta_v_budget_ms, :has_gps, :orbit_type)`,
		map[string]any{
			"norad_id":            asset.Element.CatalogID,
			"name":                asset.Element.Name,
			"tle_line1":           asset.Element.Line1,
			"tle_line2":           asset.Element.Line2,
			"mass_kg":             asset.MassKg,
			"cross_section_m2":    asset.CrossSectionM2,
			"hard_body_radius_m":  asset.HardBodyRadiusM,
			"maneuverable":        asset.Maneuverable,
			"delta_v_budget_ms":   asset.DeltaVBudgetMs,
			"has_gps":             asset.HasGPS,
			"orbit_type":          asset.OrbitType,
		})
	if err != nil {
		return 0, fmt.Errorf("eventstore: create asset: %w", err)
	}
	return res.LastInsertId()
}

// GetAsset fetches one asset by its store ID.
func (s *Store) GetAsset(ctx context.Context, id int64) (models.Asset, error) {
	var row assetRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM assets WHERE id = ?`, id); err != nil {
		return models.Asset{}, fmt.Errorf("eventstore: get asset %d: %w", id, err)
	}
	return row.toModel()
}

// ListAssets returns every tracked asset, ordered by ID.
func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	var rows []assetRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM assets ORDER BY id`); err != nil {
		return nil, fmt.Errorf("eventstore: list assets: %w", err)
	}
	out := make([]models.Asset, 0, len(rows))
	for _, r := range rows {
		m, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// UpdateAssetProperties updates the mutable physical/operational fields of
// an asset (TLE and identity fields are immutable once created).
func (s *Store) UpdateAssetProperties(ctx context.Context, asset models.Asset) error {
	_, err := s.db.NamedExecContext(ctx, `
		UPDATE assets SET
			mass_kg = :mass_kg,
			cross_section_m2 = :cross_section_m2,
			hard_body_radius_m = :hard_body_radius_m,
			maneuverable = :maneuverable,
			delta_v_budget_ms = :delta_v_budget_ms,
			has_gps = :has_gps,
			orbit_type = :orbit_type,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = :id`,
		map[string]any{
			"id":                 asset.ID,
			"mass_kg":            asset.MassKg,
			"cross_section_m2":   asset.CrossSectionM2,
			"hard_body_radius_m": asset.HardBodyRadiusM,
			"maneuverable":       asset.Maneuverable,
			"delta_v_budget_ms":  asset.DeltaVBudgetMs,
			"has_gps":            asset.HasGPS,
			"orbit_type":         asset.OrbitType,
		})
	if err != nil {
		return fmt.Errorf("eventstore: update asset %d: %w", asset.ID, err)
	}
	return nil
}

// DeleteAsset removes an asset and its conjunction/alert history.
func (s *Store) DeleteAsset(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventstore: delete asset %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM maneuver_options WHERE conjunction_id IN
		(SELECT id FROM conjunction_events WHERE primary_asset_id = ?)`, id); err != nil {
		return fmt.Errorf("eventstore: delete asset %d: maneuver options: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE asset_id = ?`, id); err != nil {
		return fmt.Errorf("eventstore: delete asset %d: alerts: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conjunction_events WHERE primary_asset_id = ?`, id); err != nil {
		return fmt.Errorf("eventstore: delete asset %d: conjunctions: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM screening_jobs WHERE asset_id = ?`, id); err != nil {
		return fmt.Errorf("eventstore: delete asset %d: jobs: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("eventstore: delete asset %d: %w", id, err)
	}
	return tx.Commit()
}
