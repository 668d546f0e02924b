// Package weather maps seasonal rainfall and monsoon delay onto the
// modifiers the yield and risk models apply. Thresholds are absolute mm
// over the growing season.
package weather

import (
	"math"

	"github.com/talgya/agrisim/internal/refdata"
)

// Band classifies rainfall adequacy independent of crop.
type Band uint8

const (
	BandGood Band = iota
	BandModerate
	BandPoor
	BandVeryPoor
)

// HighRainfallMM is the level above which irrigation adds little.
const HighRainfallMM = 800.0

// BandName returns a human-readable band name.
func BandName(b Band) string {
	switch b {
	case BandGood:
		return "Good"
	case BandModerate:
		return "Moderate"
	case BandPoor:
		return "Poor"
	case BandVeryPoor:
		return "Very Poor"
	default:
		return "Unknown"
	}
}

// ClassifyRainfall places seasonal rainfall into an adequacy band.
func ClassifyRainfall(mm float64) Band {
	switch {
	case mm >= 600 && mm <= 1200:
		return BandGood
	case (mm >= 400 && mm < 600) || (mm > 1200 && mm <= 1500):
		return BandModerate
	case (mm >= 200 && mm < 400) || (mm > 1500 && mm <= 2000):
		return BandPoor
	default:
		return BandVeryPoor
	}
}

// AdequacyRisk is the 0–100 risk contribution of a rainfall band.
func AdequacyRisk(b Band) float64 {
	switch b {
	case BandGood:
		return 20
	case BandModerate:
		return 40
	case BandPoor:
		return 60
	default:
		return 80
	}
}

// DelayRisk adds 2 points per day of monsoon delay, at most 40.
func DelayRisk(days int) float64 {
	return math.Min(40, float64(max(0, days))*2)
}

// DelayFactor loses 1.5% of yield per day of delay, never below 0.6.
func DelayFactor(days int) float64 {
	return math.Max(0.6, 1.0-float64(max(0, days))*0.015)
}

// RainfallFactor scores rainfall against the crop's optimal interval:
// 1.0 inside it, a linear deficit penalty floored at 0.4 below it and a
// linear excess penalty floored at 0.5 above it.
func RainfallFactor(mm float64, optimal refdata.RainfallRange) float64 {
	switch {
	case mm >= optimal.Min && mm <= optimal.Max:
		return 1.0
	case mm < optimal.Min:
		deficit := (optimal.Min - mm) / optimal.Min
		return math.Max(0.4, 1.0-deficit*0.6)
	default:
		excess := (mm - optimal.Max) / optimal.Max
		return math.Max(0.5, 1.0-excess*0.4)
	}
}

// Outlook is the weather picture for one plan.
type Outlook struct {
	Band        Band    `json:"-"`
	BandName    string  `json:"band"`
	Adequacy    float64 `json:"adequacy_risk"`
	Delay       float64 `json:"delay_risk"`
	DelayFactor float64 `json:"delay_factor"`
}

// Assess builds the outlook for seasonal rainfall and delay.
func Assess(mm float64, delayDays int) Outlook {
	b := ClassifyRainfall(mm)
	return Outlook{
		Band:        b,
		BandName:    BandName(b),
		Adequacy:    AdequacyRisk(b),
		Delay:       DelayRisk(delayDays),
		DelayFactor: DelayFactor(delayDays),
	}
}

// Risk is the combined weather risk, capped at 100.
func (o Outlook) Risk() float64 {
	return math.Min(100, o.Adequacy+o.Delay)
}
