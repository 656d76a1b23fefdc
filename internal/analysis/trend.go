package analysis

import (
	"math"
	"time"

	"github.com/sajari/regression"
	"gonum.org/v1/gonum/stat"

	"github.com/kapu/channelwatch-go/internal/domain"
)

const (
	minPointsForTrend = 3
	forecastDays      = 7

	// Slopes smaller than this fraction of the series mean count as flat.
	stableSlopeRatio = 0.001

	// Growth below this magnitude (percent) counts as stable.
	stableGrowthPct = 0.1
)

// DefaultMovingAverageWindows maps window labels to sizes in points.
var DefaultMovingAverageWindows = map[string]int{
	"short":  3,
	"medium": 7,
	"long":   30,
}

// DefaultGrowthPeriods are the look-back windows, in days, for growth rates.
var DefaultGrowthPeriods = []int{7, 30, 90}

// Analyzer computes trend statistics over a metric's time series. Methods
// never return an error: any failure mode degrades to a neutral result.
type Analyzer struct {
	seasonality SeasonalityDetector
}

// NewAnalyzer builds an analyzer with the given seasonality strategy. A nil
// detector selects periodic decomposition with day-of-week fallback.
func NewAnalyzer(detector SeasonalityDetector) *Analyzer {
	if detector == nil {
		detector = NewDecompositionDetector()
	}
	return &Analyzer{seasonality: detector}
}

// LinearTrend fits value against days-since-first-point by least squares.
// Series with fewer than three points produce a neutral "stable" result.
func (a *Analyzer) LinearTrend(series *domain.Series) *domain.TrendResult {
	series.Sort()

	result := &domain.TrendResult{
		Direction:    "stable",
		Significance: "none",
	}
	if series.Len() < minPointsForTrend {
		return result
	}

	base := series.Points[0].Timestamp
	r := new(regression.Regression)
	r.SetObserved(series.Metric)
	r.SetVar(0, "days")

	for _, p := range series.Points {
		days := p.Timestamp.Sub(base).Hours() / 24
		r.Train(regression.DataPoint(p.Value, []float64{days}))
	}
	if err := r.Run(); err != nil {
		return result
	}

	result.Intercept = r.Coeff(0)
	result.Slope = r.Coeff(1)
	result.RSquared = r.R2

	mean := stat.Mean(series.Values(), nil)
	if result.Slope != 0 && math.Abs(result.Slope) >= stableSlopeRatio*math.Abs(mean) {
		if result.Slope > 0 {
			result.Direction = "increasing"
		} else {
			result.Direction = "decreasing"
		}
	}

	switch {
	case result.RSquared > 0.7:
		result.Significance = "high"
	case result.RSquared > 0.5:
		result.Significance = "medium"
	case result.RSquared > 0.3:
		result.Significance = "low"
	}

	last := series.Points[series.Len()-1].Timestamp
	lastDays := last.Sub(base).Hours() / 24
	for i := 1; i <= forecastDays; i++ {
		predicted := result.Intercept + result.Slope*(lastDays+float64(i))
		if predicted < 0 {
			predicted = 0
		}
		result.Forecast = append(result.Forecast, domain.TimePoint{
			Timestamp: last.AddDate(0, 0, i),
			Value:     predicted,
		})
	}

	return result
}

// MovingAverages computes rolling means for each named window that the
// series is long enough to fill at least once. Partial windows are allowed
// at the start of the series.
func (a *Analyzer) MovingAverages(series *domain.Series, windows map[string]int) *domain.MovingAverageResult {
	series.Sort()
	if windows == nil {
		windows = DefaultMovingAverageWindows
	}

	result := &domain.MovingAverageResult{Windows: make(map[string]domain.MovingAverageWindow)}
	n := series.Len()

	for name, size := range windows {
		if size <= 0 || n < size {
			continue
		}

		w := domain.MovingAverageWindow{
			Window: size,
			Values: series.Values(),
			Dates:  make([]time.Time, n),
		}
		for i, p := range series.Points {
			w.Dates[i] = p.Timestamp
		}

		var sum float64
		for i, p := range series.Points {
			sum += p.Value
			if i >= size {
				sum -= series.Points[i-size].Value
			}
			count := i + 1
			if count > size {
				count = size
			}
			w.Averages = append(w.Averages, domain.TimePoint{
				Timestamp: p.Timestamp,
				Value:     sum / float64(count),
			})
		}
		result.Windows[name] = w
	}

	return result
}

// GrowthRates measures change over each look-back period. A period is
// skipped when no point exists at or before its reference time.
func (a *Analyzer) GrowthRates(series *domain.Series, periods []int) *domain.GrowthRateResult {
	series.Sort()
	if len(periods) == 0 {
		periods = DefaultGrowthPeriods
	}

	result := &domain.GrowthRateResult{Periods: make(map[int]domain.GrowthEntry)}
	n := series.Len()
	if n < 2 {
		return result
	}

	latest := series.Points[n-1]

	for _, days := range periods {
		cutoff := latest.Timestamp.AddDate(0, 0, -days)

		// Latest point at or before the cutoff.
		refIdx := -1
		for i := n - 1; i >= 0; i-- {
			if !series.Points[i].Timestamp.After(cutoff) {
				refIdx = i
				break
			}
		}
		if refIdx < 0 {
			continue
		}

		ref := series.Points[refIdx]
		entry := domain.GrowthEntry{
			PeriodDays: days,
			From:       ref.Value,
			To:         latest.Value,
			FromTime:   ref.Timestamp,
			ToTime:     latest.Timestamp,
			Change:     latest.Value - ref.Value,
		}

		if ref.Value != 0 {
			entry.Pct = entry.Change / ref.Value * 100
			entry.AnnualizedPct = entry.Pct / float64(days) * 365
		} else if entry.Change > 0 {
			entry.PctUndefined = true
		}

		switch {
		case entry.PctUndefined:
			entry.Direction = "increasing"
		case math.Abs(entry.Pct) < stableGrowthPct:
			entry.Direction = "stable"
		case entry.Pct > 0:
			entry.Direction = "increasing"
		default:
			entry.Direction = "decreasing"
		}

		result.Periods[days] = entry
	}

	return result
}
