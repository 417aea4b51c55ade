package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sentinelspace/platform/pkg/models"
)

type maneuverRow struct {
	ID                         int64          `db:"id"`
	ConjunctionID              int64          `db:"conjunction_id"`
	Label                      string         `db:"label"`
	Direction                  string         `db:"direction"`
	DeltaVMs                   float64        `db:"delta_v_ms"`
	TimingBeforeTCAOrbits      float64        `db:"timing_before_tca_orbits"`
	BurnTime                   sql.NullTime   `db:"burn_time"`
	NewMissDistanceM           sql.NullFloat64 `db:"new_miss_distance_m"`
	NewCollisionProbability    sql.NullFloat64 `db:"new_collision_probability"`
	FuelCostPct                sql.NullFloat64 `db:"fuel_cost_pct"`
	SecondaryConjunctionsCount int            `db:"secondary_conjunctions_count"`
	CreatedAt                  time.Time      `db:"created_at"`
}

func (r maneuverRow) toModel() models.ManeuverOption {
	m := models.ManeuverOption{
		ID:                         r.ID,
		ConjunctionID:              r.ConjunctionID,
		Label:                      r.Label,
		Direction:                  models.ManeuverDirection(r.Direction),
		DeltaVMs:                   r.DeltaVMs,
		TimingBeforeTCAOrbits:      r.TimingBeforeTCAOrbits,
		NewMissDistanceM:           r.NewMissDistanceM.Float64,
		NewCollisionProbability:    r.NewCollisionProbability.Float64,
		FuelCostPct:                r.FuelCostPct.Float64,
		SecondaryConjunctionsCount: r.SecondaryConjunctionsCount,
		CreatedAt:                  r.CreatedAt,
	}
	if r.BurnTime.Valid {
		m.BurnTime = r.BurnTime.Time
	}
	return m
}

// SaveManeuverOptions persists the ranked avoidance-maneuver options
// computed for a conjunction.
func (s *Store) SaveManeuverOptions(ctx context.Context, conjunctionID int64, options []models.ManeuverOption) error {
	if len(options) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventstore: save maneuver options: begin: %w", err)
	}
	defer tx.Rollback()

	for _, o := range options {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO maneuver_options (
				conjunction_id, label, direction, delta_v_ms, timing_before_tca_orbits,
				burn_time, new_miss_distance_m, new_collision_probability, fuel_cost_pct,
				secondary_conjunctions_count)
			VALUES (
				:conjunction_id, :label, :direction, :delta_v_ms, :timing_before_tca_orbits,
				:burn_time, :new_miss_distance_m, :new_collision_probability, :fuel_cost_pct,
				:secondary_conjunctions_count)`,
			map[string]any{
				"conjunction_id":                conjunctionID,
				"label":                         o.Label,
				"direction":                     string(o.Direction),
				"delta_v_ms":                    o.DeltaVMs,
				"timing_before_tca_orbits":      o.TimingBeforeTCAOrbits,
				"burn_time":                     o.BurnTime,
				"new_miss_distance_m":           o.NewMissDistanceM,
				"new_collision_probability":     o.NewCollisionProbability,
				"fuel_cost_pct":                 o.FuelCostPct,
				"secondary_conjunctions_count":  o.SecondaryConjunctionsCount,
			})
		if err != nil {
			return fmt.Errorf("eventstore: save maneuver option for conjunction %d: %w", conjunctionID, err)
		}
	}
	return tx.Commit()
}

// ListManeuverOptions returns the stored maneuver options for a
// conjunction, ordered by delta-v ascending (cheapest first).
func (s *Store) ListManeuverOptions(ctx context.Context, conjunctionID int64) ([]models.ManeuverOption, error) {
	var rows []maneuverRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM maneuver_options WHERE conjunction_id = ? ORDER BY delta_v_ms ASC`, conjunctionID); err != nil {
		return nil, fmt.Errorf("eventstore: list maneuver options for conjunction %d: %w", conjunctionID, err)
	}
	out := make([]models.ManeuverOption, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
