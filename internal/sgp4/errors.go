package sgp4

import "fmt"

// PropagationError mirrors the SGP4 error-code convention from Spacetrack
// Report #3: a small integer classifying why propagation or initialization
// failed, plus the satellite it happened to.
type PropagationError struct {
	Code          int
	SatelliteName string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("sgp4: propagation failed for %s: %s", e.SatelliteName, ErrorMessage(e.Code))
}

// Reserved application-level codes beyond the standard SGP4 1-6 range.
const (
	ErrCodeDeepSpaceUnsupported = 100
)

// ErrorMessage returns the human-readable description for an SGP4 error code.
func ErrorMessage(code int) string {
	switch code {
	case 1:
		return "mean elements: eccentricity >= 1.0 or < -0.001 or a < 0.95"
	case 2:
		return "mean motion less than 0.0"
	case 3:
		return "perturbed eccentricity < 0.0 or > 1.0"
	case 4:
		return "semi-latus rectum < 0.0"
	case 5:
		return "epoch elements are sub-orbital"
	case 6:
		return "satellite has decayed"
	case ErrCodeDeepSpaceUnsupported:
		return "orbital period >= 225 minutes requires deep-space (SDP4) perturbations, not supported"
	default:
		return fmt.Sprintf("unknown SGP4 error code %d", code)
	}
}
