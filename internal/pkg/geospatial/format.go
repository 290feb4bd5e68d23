package geospatial

import (
	"fmt"
	"math"
	"strings"

	"github.com/wanderly/wanderly/internal/core/domain"
)

const (
	metersPerKm    = 1000.0
	milesPerKm     = 0.621371
	feetPerMeter   = 3.28084
	feetCutoffMile = 0.1
)

// Format renders a distance for display. Metric shows whole meters below one
// kilometer, imperial shows whole feet below a tenth of a mile. Unknown units
// are treated as metric and negative precisions as zero.
func Format(meters float64, unit domain.Unit, precisionKm, precisionMi int) string {
	if precisionKm < 0 {
		precisionKm = 0
	}
	if precisionMi < 0 {
		precisionMi = 0
	}

	if unit == domain.UnitImperial {
		miles := meters / metersPerKm * milesPerKm
		if miles < feetCutoffMile {
			return fmt.Sprintf("%.0f ft", math.Round(meters*feetPerMeter))
		}
		return fmt.Sprintf("%.*f mi", precisionMi, miles)
	}

	if meters < metersPerKm {
		return fmt.Sprintf("%.0f m", math.Round(meters))
	}
	return fmt.Sprintf("%.*f km", precisionKm, meters/metersPerKm)
}

// ParseUnit maps user input to a Unit, defaulting to metric.
func ParseUnit(s string) domain.Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "imperial", "mi", "miles", "us":
		return domain.UnitImperial
	default:
		return domain.UnitMetric
	}
}

// UnitForRegion returns the customary distance unit for an ISO 3166 country code.
func UnitForRegion(countryCode string) domain.Unit {
	switch strings.ToUpper(strings.TrimSpace(countryCode)) {
	case "US", "GB", "LR", "MM":
		return domain.UnitImperial
	default:
		return domain.UnitMetric
	}
}
