package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kapu/channelwatch-go/internal/domain"
)

const (
	// DefaultAnomalyThreshold is the z-score above which a point is flagged.
	DefaultAnomalyThreshold = 3.0

	// DefaultAnomalyWindow is the rolling window, in points, used for the
	// local mean and standard deviation.
	DefaultAnomalyWindow = 7

	// Series shorter than this get a proportionally reduced threshold, so
	// short histories can still surface outliers.
	shortSeriesLen = 15

	minAnomalyThreshold = 1.5
	minRollingPoints    = 3
)

// Anomalies flags points whose z-score against the trailing rolling window
// exceeds the effective threshold. The expected value for each point is the
// mean of up to `window` preceding points; the first points of a series,
// which have no meaningful baseline, are never flagged.
func (a *Analyzer) Anomalies(series *domain.Series, zThreshold float64, window int) *domain.AnomalyResult {
	series.Sort()
	if zThreshold <= 0 {
		zThreshold = DefaultAnomalyThreshold
	}
	if window <= 0 {
		window = DefaultAnomalyWindow
	}

	n := series.Len()
	effective := zThreshold
	if n < shortSeriesLen {
		effective = math.Max(minAnomalyThreshold, zThreshold*float64(n)/float64(shortSeriesLen))
	}

	result := &domain.AnomalyResult{EffectiveThreshold: effective}
	if n == 0 {
		return result
	}

	for i, p := range series.Points {
		start := i - window
		if start < 0 {
			start = 0
		}
		if i-start < minRollingPoints {
			continue
		}

		prior := make([]float64, 0, i-start)
		for _, q := range series.Points[start:i] {
			prior = append(prior, q.Value)
		}

		mean := stat.Mean(prior, nil)
		std := stat.StdDev(prior, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}

		z := (p.Value - mean) / std
		if math.Abs(z) <= effective {
			continue
		}

		severity := "moderate"
		if math.Abs(z) > 2*effective {
			severity = "extreme"
		}

		anomaly := domain.AnomalyPoint{
			Timestamp: p.Timestamp,
			Value:     p.Value,
			Expected:  mean,
			Deviation: p.Value - mean,
			ZScore:    z,
			Severity:  severity,
		}
		result.Anomalies = append(result.Anomalies, anomaly)

		if i == n-1 {
			result.LatestIsAnomaly = true
		}
	}

	result.Detected = len(result.Anomalies)
	result.Percentage = 100 * float64(result.Detected) / float64(n)
	return result
}
