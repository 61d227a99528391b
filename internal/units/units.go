// Package units keeps unit-carrying numbers out of bare floats. Providers
// report heights and weights in several imperial encodings; everything past
// the normalizer boundary is metric.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Centimeters float64

type Kilograms float64

type MetersPerSecond float64

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FeetInchesToCm converts a feet/inches pair.
func FeetInchesToCm(feet, inches int) Centimeters {
	return Centimeters(round1(float64(feet*12+inches) * 2.54))
}

// InchesToCm converts a plain inch count.
func InchesToCm(inches float64) Centimeters {
	return Centimeters(round1(inches * 2.54))
}

// LbsToKg converts pounds to kilograms.
func LbsToKg(lbs float64) Kilograms {
	return Kilograms(round1(lbs * 0.453592))
}

// MphToMps converts miles per hour to meters per second.
func MphToMps(mph float64) MetersPerSecond {
	return MetersPerSecond(round1(mph * 0.44704))
}

// ParseHeight parses every height encoding the providers emit:
//
//	"6'2\""  apostrophe feet, quoted inches
//	"6-2"    dash-separated feet-inches
//	"74"     bare inches
//
// A zero or unparseable string returns an error; the normalizer drops the
// record as bad_encoding, since a present-but-garbled height means the
// provider row cannot be trusted.
func ParseHeight(raw string) (Centimeters, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty height")
	}

	// Normalize apostrophe notation into dash notation.
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.ReplaceAll(s, "'", "-")
	s = strings.TrimSuffix(s, "-")

	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		feet, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, fmt.Errorf("bad feet in height %q: %w", raw, err)
		}
		inches, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, fmt.Errorf("bad inches in height %q: %w", raw, err)
		}
		if feet <= 0 || inches < 0 || inches > 11 {
			return 0, fmt.Errorf("height %q out of range", raw)
		}
		return FeetInchesToCm(feet, inches), nil
	}

	inches, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad height %q: %w", raw, err)
	}
	// Bare numbers at or under 8 are feet-only entries; anything else inches.
	if inches <= 0 {
		return 0, fmt.Errorf("height %q out of range", raw)
	}
	if inches <= 8 {
		return FeetInchesToCm(int(inches), 0), nil
	}
	return InchesToCm(inches), nil
}
