package refdata

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/talgya/agrisim/internal/stats"
)

// ErrNoHistory is returned by the store when a database holds no records.
var ErrNoHistory = errors.New("no historical records")

// SeasonTotal is the season label of whole-year yield records.
const SeasonTotal = "Total"

// DateLayout is the storage format of price arrival dates.
const DateLayout = "2006-01-02"

// YieldPoint is one recorded yield for a crop, season and year.
type YieldPoint struct {
	Crop      string  `db:"crop" json:"crop"`
	Season    string  `db:"season" json:"season"`
	Year      int     `db:"year" json:"year"`
	YieldKgHa float64 `db:"yield_kg_ha" json:"yield_kg_ha"`
}

// PricePoint is one market arrival record, ₹ per quintal.
type PricePoint struct {
	Commodity   string    `json:"commodity"`
	ArrivalDate time.Time `json:"arrival_date"`
	MinPrice    float64   `json:"min_price"`
	MaxPrice    float64   `json:"max_price"`
	ModalPrice  float64   `json:"modal_price"`
}

// PriceStats summarizes recent modal prices for risk scoring.
type PriceStats struct {
	Mean       float64 `yaml:"mean" json:"mean"`
	Std        float64 `yaml:"std" json:"std"`
	Min        float64 `yaml:"min" json:"min"`
	Max        float64 `yaml:"max" json:"max"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
}

// History is an immutable snapshot of historical records, built once at
// startup. A nil *History behaves as an empty one.
type History struct {
	yields map[string][]YieldPoint // crop → ordered by year
	prices []PricePoint            // ordered by arrival date
}

// NewHistory indexes and orders the given records. The inputs are copied.
func NewHistory(yields []YieldPoint, prices []PricePoint) *History {
	h := &History{yields: make(map[string][]YieldPoint)}
	for _, y := range yields {
		h.yields[y.Crop] = append(h.yields[y.Crop], y)
	}
	for crop := range h.yields {
		rows := h.yields[crop]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	}

	h.prices = append([]PricePoint(nil), prices...)
	sort.SliceStable(h.prices, func(i, j int) bool {
		return h.prices[i].ArrivalDate.Before(h.prices[j].ArrivalDate)
	})
	return h
}

// Empty reports whether the snapshot holds no records at all.
func (h *History) Empty() bool {
	return h == nil || (len(h.yields) == 0 && len(h.prices) == 0)
}

// Counts returns the number of yield and price records.
func (h *History) Counts() (yields, prices int) {
	if h == nil {
		return 0, 0
	}
	for _, rows := range h.yields {
		yields += len(rows)
	}
	return yields, len(h.prices)
}

// YieldTrend returns every recorded yield for the crop, oldest first.
func (h *History) YieldTrend(crop string) []YieldPoint {
	if h == nil {
		return nil
	}
	return append([]YieldPoint(nil), h.yields[crop]...)
}

// LatestYield returns the most recent positive yield for crop and season.
func (h *History) LatestYield(crop, season string) (float64, bool) {
	if h == nil {
		return 0, false
	}
	rows := h.yields[crop]
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Season == season && rows[i].YieldKgHa > 0 {
			return rows[i].YieldKgHa, true
		}
	}
	return 0, false
}

// RecentPrices returns up to days most recent records whose commodity name
// contains the query (case-insensitive), oldest first.
func (h *History) RecentPrices(commodity string, days int) []PricePoint {
	if h == nil || days <= 0 || commodity == "" {
		return nil
	}
	query := strings.ToLower(commodity)

	var matched []PricePoint
	for i := len(h.prices) - 1; i >= 0 && len(matched) < days; i-- {
		p := h.prices[i]
		if strings.Contains(strings.ToLower(p.Commodity), query) {
			matched = append(matched, p)
		}
	}

	// Collected newest first; flip to chronological order.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched
}

// ModalPrices extracts the positive modal prices in order.
func ModalPrices(points []PricePoint) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		if p.ModalPrice > 0 {
			out = append(out, p.ModalPrice)
		}
	}
	return out
}

// computePriceStats summarizes modal prices; fewer than two usable points
// return the defaults.
func computePriceStats(modal []float64, defaults PriceStats) PriceStats {
	if len(modal) < 2 {
		return defaults
	}
	mean := stats.Mean(modal)
	std := stats.SampleStdDev(modal)
	vol := defaults.Volatility
	if mean > 0 {
		vol = std / mean
	}
	return PriceStats{
		Mean:       mean,
		Std:        std,
		Min:        stats.Min(modal),
		Max:        stats.Max(modal),
		Volatility: vol,
	}
}
