package domain

import "time"

// ChartPoint is one observation of both outcome prices, in cents (0-100).
// A series for one market never holds two points with the same timestamp
// within the synchronizer's merge tolerance.
type ChartPoint struct {
	Time      time.Time `json:"time"`
	UpPrice   float64   `json:"upPrice"`
	DownPrice float64   `json:"downPrice"`
}

// NormalizeCents coerces an upstream price into the 0-100 cent scale. The
// data APIs report prices either as decimal fractions (0-1) or already in
// cents; values at or below 1 are treated as fractions. Both historical and
// live sources go through this same function so the chart stays continuous
// at the history/live seam.
func NormalizeCents(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v <= 1 {
		return v * 100
	}
	return v
}
