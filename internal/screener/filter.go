// Package screener implements the three-pass conjunction screening pipeline:
// an apogee/perigee coarse filter, a coarse-grid distance scan, and a
// fine-grid refinement with golden-section time-of-closest-approach polish.
package screener

import (
	"github.com/sentinelspace/platform/internal/orbitutil"
	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

const defaultAltitudeMarginKm = 30.0

// coarseFilter eliminates catalog objects whose orbits cannot physically
// intersect the asset's, using an apogee/perigee overlap test with a margin
// to absorb osculating-element drift between the TLE epoch and the
// screening window.
func coarseFilter(asset models.ElementSet, catalog []models.ElementSet, altitudeMarginKm float64) []models.ElementSet {
	assetSMA := orbitutil.SemiMajorAxisFromMeanMotion(asset.MeanMotion)
	assetApogee := assetSMA*(1+asset.Eccentricity) - timeutil.REarthEquatorial
	assetPerigee := assetSMA*(1-asset.Eccentricity) - timeutil.REarthEquatorial

	candidates := make([]models.ElementSet, 0, len(catalog))
	for _, elem := range catalog {
		secSMA := orbitutil.SemiMajorAxisFromMeanMotion(elem.MeanMotion)
		secApogee := secSMA*(1+elem.Eccentricity) - timeutil.REarthEquatorial
		secPerigee := secSMA*(1-elem.Eccentricity) - timeutil.REarthEquatorial

		if assetPerigee-altitudeMarginKm <= secApogee+altitudeMarginKm &&
			secPerigee-altitudeMarginKm <= assetApogee+altitudeMarginKm {
			candidates = append(candidates, elem)
		}
	}
	return candidates
}
