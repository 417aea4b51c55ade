package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sentinelspace/platform/pkg/models"
)

type conjunctionRow struct {
	ID                          int64          `db:"id"`
	PrimaryAssetID              int64          `db:"primary_asset_id"`
	SecondaryNoradID            int            `db:"secondary_norad_id"`
	SecondaryName               sql.NullString `db:"secondary_name"`
	SecondaryObjectType         sql.NullString `db:"secondary_object_type"`
	TCA                         time.Time      `db:"tca"`
	MissDistanceM               float64        `db:"miss_distance_m"`
	RadialM                     sql.NullFloat64 `db:"radial_m"`
	InTrackM                    sql.NullFloat64 `db:"in_track_m"`
	CrossTrackM                 sql.NullFloat64 `db:"cross_track_m"`
	RelativeVelocityKmS         sql.NullFloat64 `db:"relative_velocity_kms"`
	CollisionProbability        sql.NullFloat64 `db:"collision_probability"`
	ThreatLevel                 string          `db:"threat_level"`
	CombinedHardBodyRadiusM     sql.NullFloat64 `db:"combined_hard_body_radius_m"`
	PrimarySigmaRadialM         sql.NullFloat64 `db:"primary_sigma_radial_m"`
	PrimarySigmaInTrackM        sql.NullFloat64 `db:"primary_sigma_in_track_m"`
	PrimarySigmaCrossTrackM     sql.NullFloat64 `db:"primary_sigma_cross_track_m"`
	SecondarySigmaRadialM       sql.NullFloat64 `db:"secondary_sigma_radial_m"`
	SecondarySigmaInTrackM      sql.NullFloat64 `db:"secondary_sigma_in_track_m"`
	SecondarySigmaCrossTrackM   sql.NullFloat64 `db:"secondary_sigma_cross_track_m"`
	Status                      string          `db:"status"`
	ScreeningJobID              sql.NullInt64   `db:"screening_job_id"`
	CreatedAt                   time.Time       `db:"created_at"`
	UpdatedAt                   time.Time       `db:"updated_at"`
}

func (r conjunctionRow) toModel() models.ConjunctionEvent {
	return models.ConjunctionEvent{
		ID:                  r.ID,
		PrimaryAssetID:      r.PrimaryAssetID,
		SecondaryCatalogID:  r.SecondaryNoradID,
		SecondaryName:       r.SecondaryName.String,
		SecondaryObjectType: models.ObjectType(r.SecondaryObjectType.String),
		TCA:                 r.TCA,
		MissDistanceM:       r.MissDistanceM,
		MissRIC: models.RICVector{
			Radial:     r.RadialM.Float64,
			InTrack:    r.InTrackM.Float64,
			CrossTrack: r.CrossTrackM.Float64,
		},
		RelativeVelocityKmS:     r.RelativeVelocityKmS.Float64,
		CombinedHardBodyRadiusM: r.CombinedHardBodyRadiusM.Float64,
		CollisionProbability:    r.CollisionProbability.Float64,
		ThreatLevel:             models.ThreatLevel(r.ThreatLevel),
		PrimarySigmaRIC: models.RICVector{
			Radial:     r.PrimarySigmaRadialM.Float64,
			InTrack:    r.PrimarySigmaInTrackM.Float64,
			CrossTrack: r.PrimarySigmaCrossTrackM.Float64,
		},
		SecondarySigmaRIC: models.RICVector{
			Radial:     r.SecondarySigmaRadialM.Float64,
			InTrack:    r.SecondarySigmaInTrackM.Float64,
			CrossTrack: r.SecondarySigmaCrossTrackM.Float64,
		},
		Status:         models.EventStatus(r.Status),
		ScreeningJobID: r.ScreeningJobID.Int64,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// SaveConjunctions persists the conjunction events discovered by a
// screening job. Implements supervisor.Store.
func (s *Store) SaveConjunctions(ctx context.Context, jobID int64, assetID int64, events []models.ConjunctionEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventstore: save conjunctions: begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO conjunction_events (
				primary_asset_id, secondary_norad_id, secondary_name, secondary_object_type,
				tca, miss_distance_m, radial_m, in_track_m, cross_track_m,
				relative_velocity_kms, collision_probability, threat_level,
				combined_hard_body_radius_m,
				primary_sigma_radial_m, primary_sigma_in_track_m, primary_sigma_cross_track_m,
				secondary_sigma_radial_m, secondary_sigma_in_track_m, secondary_sigma_cross_track_m,
				status, screening_job_id)
			VALUES (
				:primary_asset_id, :secondary_norad_id, :secondary_name, :secondary_object_type,
				:tca, :miss_distance_m, :radial_m, :in_track_m, :cross_track_m,
				:relative_velocity_kms, :collision_probability, :threat_level,
				:combined_hard_body_radius_m,
				:primary_sigma_radial_m, :primary_sigma_in_track_m, :primary_sigma_cross_track_m,
				:secondary_sigma_radial_m, :secondary_sigma_in_track_m, :secondary_sigma_cross_track_m,
				:status, :screening_job_id)`,
			map[string]any{
				"primary_asset_id":              assetID,
				"secondary_norad_id":            e.SecondaryCatalogID,
				"secondary_name":                e.SecondaryName,
				"secondary_object_type":         string(e.SecondaryObjectType),
				"tca":                           e.TCA,
				"miss_distance_m":               e.MissDistanceM,
				"radial_m":                      e.MissRIC.Radial,
				"in_track_m":                    e.MissRIC.InTrack,
				"cross_track_m":                 e.MissRIC.CrossTrack,
				"relative_velocity_kms":         e.RelativeVelocityKmS,
				"collision_probability":         e.CollisionProbability,
				"threat_level":                  string(e.ThreatLevel),
				"combined_hard_body_radius_m":   e.CombinedHardBodyRadiusM,
				"primary_sigma_radial_m":        e.PrimarySigmaRIC.Radial,
				"primary_sigma_in_track_m":      e.PrimarySigmaRIC.InTrack,
				"primary_sigma_cross_track_m":   e.PrimarySigmaRIC.CrossTrack,
				"secondary_sigma_radial_m":      e.SecondarySigmaRIC.Radial,
				"secondary_sigma_in_track_m":    e.SecondarySigmaRIC.InTrack,
				"secondary_sigma_cross_track_m": e.SecondarySigmaRIC.CrossTrack,
				"status":                        string(e.Status),
				"screening_job_id":              jobID,
			})
		if err != nil {
			return fmt.Errorf("eventstore: save conjunction for asset %d: %w", assetID, err)
		}
	}
	return tx.Commit()
}

// ListConjunctions returns every stored conjunction for an asset, ordered
// by threat severity (collision probability descending).
func (s *Store) ListConjunctions(ctx context.Context, assetID int64) ([]models.ConjunctionEvent, error) {
	var rows []conjunctionRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM conjunction_events WHERE primary_asset_id = ?
		ORDER BY collision_probability DESC`, assetID); err != nil {
		return nil, fmt.Errorf("eventstore: list conjunctions for asset %d: %w", assetID, err)
	}
	out := make([]models.ConjunctionEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ConjunctionDetail fetches a single conjunction event by ID.
func (s *Store) ConjunctionDetail(ctx context.Context, id int64) (models.ConjunctionEvent, error) {
	var row conjunctionRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM conjunction_events WHERE id = ?`, id); err != nil {
		return models.ConjunctionEvent{}, fmt.Errorf("eventstore: get conjunction %d: %w", id, err)
	}
	return row.toModel(), nil
}

// UpdateConjunctionStatus moves a conjunction through its lifecycle (e.g.
// ACTIVE -> ACKNOWLEDGED -> MITIGATED/RESOLVED).
func (s *Store) UpdateConjunctionStatus(ctx context.Context, id int64, status models.EventStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE conjunction_events SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("eventstore: update conjunction %d status: %w", id, err)
	}
	return nil
}

// LatestCollisionProbability returns the most recently stored Pc for a
// given primary asset / secondary object pair, used by the alert engine to
// detect escalation between screening runs. ok is false if no prior event
// exists for that pair.
func (s *Store) LatestCollisionProbability(ctx context.Context, assetID int64, secondaryNoradID int) (float64, bool, error) {
	var pc sql.NullFloat64
	err := s.db.GetContext(ctx, &pc, `
		SELECT collision_probability FROM conjunction_events
		WHERE primary_asset_id = ? AND secondary_norad_id = ?
		ORDER BY created_at DESC LIMIT 1`, assetID, secondaryNoradID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("eventstore: latest Pc for asset %d / %d: %w", assetID, secondaryNoradID, err)
	}
	return pc.Float64, pc.Valid, nil
}
