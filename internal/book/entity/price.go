package entity

import (
	"fmt"
	"math"
)

// maxPriceMajor keeps ToMinorUnits well inside int64 and exact in float64.
const maxPriceMajor = 1e13

// ToMinorUnits converts a decimal price to cents, rounding half away from zero
// at the second decimal place.
func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// ToMajorUnits converts cents back to a decimal price.
func ToMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// FormatPrice renders cents as "$12.34".
func FormatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s$%d.%02d", sign, minor/100, minor%100)
}

// ValidPrice reports whether major is a finite, non-negative, representable price.
func ValidPrice(major float64) bool {
	return !math.IsNaN(major) && !math.IsInf(major, 0) && major >= 0 && major <= maxPriceMajor
}
