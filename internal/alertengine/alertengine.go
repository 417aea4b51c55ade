// Package alertengine turns freshly discovered conjunction events into
// alerts: new critical/high detections, and escalations where a
// previously screened pair has moved to a worse threat tier since the
// last run.
package alertengine

import (
	"context"
	"fmt"

	"github.com/sentinelspace/platform/pkg/models"
)

// ConfigSource resolves the active alert thresholds for an asset (falling
// back to the global config, then to models.DefaultAlertConfig).
type ConfigSource interface {
	GetAlertConfig(ctx context.Context, assetID *int64) (models.AlertConfig, error)
}

// AlertCreator persists a generated alert.
type AlertCreator interface {
	CreateAlert(ctx context.Context, alert models.Alert) (int64, error)
}

// PriorPcLookup resolves the most recently stored collision probability for
// a primary/secondary pair, used to detect escalation between runs.
type PriorPcLookup interface {
	LatestCollisionProbability(ctx context.Context, assetID int64, secondaryNoradID int) (float64, bool, error)
}

// Engine evaluates screening results against alert thresholds.
type Engine struct {
	configs ConfigSource
	alerts  AlertCreator
	priorPc PriorPcLookup
}

// New builds an Engine over the given persistence seams.
func New(configs ConfigSource, alerts AlertCreator, priorPc PriorPcLookup) *Engine {
	return &Engine{configs: configs, alerts: alerts, priorPc: priorPc}
}

// HandleConjunctions implements supervisor.AlertSink: it runs both the
// new-detection and escalation checks over one screening run's results,
// grouped by primary asset (a run only ever screens one asset, but this
// stays correct if that ever changes).
func (e *Engine) HandleConjunctions(ctx context.Context, events []models.ConjunctionEvent) error {
	byAsset := make(map[int64][]models.ConjunctionEvent)
	for _, ev := range events {
		byAsset[ev.PrimaryAssetID] = append(byAsset[ev.PrimaryAssetID], ev)
	}
	for assetID, group := range byAsset {
		if _, err := e.CheckAndGenerateAlerts(ctx, group, assetID); err != nil {
			return err
		}
		if _, err := e.CheckEscalations(ctx, group, assetID); err != nil {
			return err
		}
	}
	return nil
}

// CheckAndGenerateAlerts compares newly discovered conjunctions against the
// asset's configured critical/high thresholds and creates an alert for each
// one that crosses critical or high. Events at or below the high threshold
// produce no "new" alert (moderate/low detections are surfaced only through
// escalation, matching the original threshold check).
func (e *Engine) CheckAndGenerateAlerts(ctx context.Context, events []models.ConjunctionEvent, assetID int64) ([]models.Alert, error) {
	if len(events) == 0 {
		return nil, nil
	}

	cfg, err := e.configs.GetAlertConfig(ctx, &assetID)
	if err != nil {
		return nil, fmt.Errorf("alertengine: load config: %w", err)
	}
	if !cfg.Enabled {
		return nil, nil
	}

	var generated []models.Alert
	for _, ev := range events {
		var level models.ThreatLevel
		var reason string
		switch {
		case ev.CollisionProbability > cfg.CriticalThreshold:
			level, reason = models.ThreatCritical, "new_critical"
		case ev.CollisionProbability > cfg.HighThreshold:
			level, reason = models.ThreatHigh, "new_high"
		default:
			continue
		}

		alert := models.Alert{
			AssetID:       assetID,
			ConjunctionID: ev.ID,
			ThreatLevel:   level,
			Message:       formatMessage(reason, ev, level, 0, false),
			Reason:        reason,
			Status:        models.AlertNew,
		}
		id, err := e.alerts.CreateAlert(ctx, alert)
		if err != nil {
			return generated, fmt.Errorf("alertengine: create alert for conjunction %d: %w", ev.ID, err)
		}
		alert.ID = id
		generated = append(generated, alert)
	}
	return generated, nil
}

// CheckEscalations compares each new event's Pc against the most recently
// stored Pc for the same primary/secondary pair and raises an escalation
// alert whenever the threat tier has gotten strictly worse.
func (e *Engine) CheckEscalations(ctx context.Context, events []models.ConjunctionEvent, assetID int64) ([]models.Alert, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var generated []models.Alert
	for _, ev := range events {
		oldPc, ok, err := e.priorPc.LatestCollisionProbability(ctx, assetID, ev.SecondaryCatalogID)
		if err != nil {
			return generated, fmt.Errorf("alertengine: lookup prior Pc: %w", err)
		}
		if !ok {
			continue
		}

		oldLevel := models.ClassifyThreat(oldPc)
		newLevel := models.ClassifyThreat(ev.CollisionProbability)
		if !newLevel.Exceeds(oldLevel) {
			continue
		}

		alert := models.Alert{
			AssetID:       assetID,
			ConjunctionID: ev.ID,
			ThreatLevel:   newLevel,
			Message:       formatMessage("escalation", ev, newLevel, oldPc, true),
			Reason:        "escalation",
			Status:        models.AlertNew,
		}
		id, err := e.alerts.CreateAlert(ctx, alert)
		if err != nil {
			return generated, fmt.Errorf("alertengine: create escalation alert for conjunction %d: %w", ev.ID, err)
		}
		alert.ID = id
		generated = append(generated, alert)
	}
	return generated, nil
}

func formatMessage(reason string, ev models.ConjunctionEvent, level models.ThreatLevel, oldPc float64, escalation bool) string {
	secondary := ev.SecondaryName
	if secondary == "" {
		secondary = fmt.Sprintf("NORAD %d", ev.SecondaryCatalogID)
	}
	tca := ev.TCA.UTC().Format("2006-01-02 15:04 UTC")

	if escalation {
		return fmt.Sprintf("ESCALATION: %s threat increased to %s at TCA %s (Pc: %.2e -> %.2e)",
			secondary, level, tca, oldPc, ev.CollisionProbability)
	}
	return fmt.Sprintf("%s: Conjunction with %s at TCA %s - Pc=%.2e, Miss=%.0fm",
		level, secondary, tca, ev.CollisionProbability, ev.MissDistanceM)
}
