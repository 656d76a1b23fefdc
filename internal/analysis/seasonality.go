package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kapu/channelwatch-go/internal/domain"
)

const (
	minPointsForSeasonality = 14

	// Max relative deviation of a weekday mean from the overall mean before
	// the day-of-week detector reports a pattern.
	weekdayDeviationThreshold = 0.10
)

// candidatePeriods are the cycle lengths, in points, tried by decomposition.
var candidatePeriods = []int{7, 14, 30}

// SeasonalityDetector finds recurring periodic patterns in a series.
// Implementations are interchangeable and chosen at construction time.
type SeasonalityDetector interface {
	Detect(series *domain.Series) *domain.SeasonalityResult
}

// Seasonality runs the configured detector. Series shorter than 14 points
// always come back undetected.
func (a *Analyzer) Seasonality(series *domain.Series) *domain.SeasonalityResult {
	series.Sort()
	if series.Len() < minPointsForSeasonality {
		return &domain.SeasonalityResult{}
	}
	return a.seasonality.Detect(series)
}

// DecompositionDetector performs additive seasonal decomposition over the
// candidate periods and keeps the one with the best seasonal-to-residual
// variance ratio. Series too short for any candidate fall back to the
// day-of-week detector.
type DecompositionDetector struct {
	fallback *WeekdayDetector
}

func NewDecompositionDetector() *DecompositionDetector {
	return &DecompositionDetector{fallback: NewWeekdayDetector()}
}

func (d *DecompositionDetector) Detect(series *domain.Series) *domain.SeasonalityResult {
	values := series.Values()
	n := len(values)

	bestRatio := 0.0
	bestPeriod := 0

	for _, period := range candidatePeriods {
		if n < 2*period {
			continue
		}
		ratio := decompositionRatio(values, period)
		if ratio > bestRatio {
			bestRatio = ratio
			bestPeriod = period
		}
	}

	if bestPeriod == 0 {
		return d.fallback.Detect(series)
	}

	result := &domain.SeasonalityResult{
		PeriodDays: bestPeriod,
		Strength:   bestRatio,
		Method:     "decomposition",
	}
	switch {
	case bestRatio > 1.0:
		result.Detected = true
		result.Confidence = "high"
	case bestRatio > 0.5:
		result.Detected = true
		result.Confidence = "medium"
	case bestRatio > 0.25:
		result.Detected = true
		result.Confidence = "low"
	}
	return result
}

// decompositionRatio detrends with a centered moving average, averages the
// detrended values per phase, and compares seasonal variance to what the
// seasonal component leaves unexplained.
func decompositionRatio(values []float64, period int) float64 {
	n := len(values)
	half := period / 2

	detrended := make([]float64, n)
	valid := make([]bool, n)
	for i := half; i < n-half; i++ {
		window := values[i-half : i+half+1]
		detrended[i] = values[i] - stat.Mean(window, nil)
		valid[i] = true
	}

	phaseSum := make([]float64, period)
	phaseCount := make([]int, period)
	for i := range values {
		if !valid[i] {
			continue
		}
		phase := i % period
		phaseSum[phase] += detrended[i]
		phaseCount[phase]++
	}

	seasonal := make([]float64, 0, n)
	residual := make([]float64, 0, n)
	for i := range values {
		if !valid[i] {
			continue
		}
		phase := i % period
		if phaseCount[phase] == 0 {
			continue
		}
		mean := phaseSum[phase] / float64(phaseCount[phase])
		seasonal = append(seasonal, mean)
		residual = append(residual, detrended[i]-mean)
	}

	if len(seasonal) < 2 || len(residual) < 2 {
		return 0
	}

	residualVar := stat.Variance(residual, nil)
	if residualVar == 0 || math.IsNaN(residualVar) {
		return 0
	}
	return stat.Variance(seasonal, nil) / residualVar
}

// WeekdayDetector groups points by day of week and compares each day's mean
// to the overall mean. It is the cheap strategy for sparse or irregular
// histories; confidence never rises above "low".
type WeekdayDetector struct{}

func NewWeekdayDetector() *WeekdayDetector {
	return &WeekdayDetector{}
}

func (d *WeekdayDetector) Detect(series *domain.Series) *domain.SeasonalityResult {
	overall := stat.Mean(series.Values(), nil)

	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, p := range series.Points {
		day := p.Timestamp.Weekday()
		sums[day] += p.Value
		counts[day]++
	}

	pattern := make(map[time.Weekday]domain.WeekdayStat, len(counts))
	maxDeviation := 0.0
	for day, count := range counts {
		mean := sums[day] / float64(count)
		relDev := 0.0
		if overall != 0 {
			relDev = (mean - overall) / overall
		}
		pattern[day] = domain.WeekdayStat{
			Mean:         mean,
			Count:        count,
			RelDeviation: relDev,
		}
		if math.Abs(relDev) > maxDeviation {
			maxDeviation = math.Abs(relDev)
		}
	}

	result := &domain.SeasonalityResult{
		Method:         "day_of_week",
		Strength:       maxDeviation,
		WeekdayPattern: pattern,
	}
	if maxDeviation > weekdayDeviationThreshold {
		result.Detected = true
		result.PeriodDays = 7
		result.Confidence = "low"
	}
	return result
}
