package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/kapu/channelwatch-go/internal/domain"
)

func TestAnomaliesVolatileShortSeries(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries("views", start,
		100, 150, 80, 190, 90, 200, 100, 220, 110, 250)

	result := NewAnalyzer(nil).Anomalies(series, 0, 0)

	if result.Detected == 0 {
		t.Fatalf("expected at least one anomaly in a volatile series")
	}
	wantPct := 100 * float64(result.Detected) / 10
	if math.Abs(result.Percentage-wantPct) > 1e-9 {
		t.Fatalf("expected percentage %f, got %f", wantPct, result.Percentage)
	}
	if result.Detected != len(result.Anomalies) {
		t.Fatalf("expected detected count %d to match listed anomalies %d",
			result.Detected, len(result.Anomalies))
	}

	// A 10-point series shrinks the default threshold of 3.0 to 2.0.
	if math.Abs(result.EffectiveThreshold-2.0) > 1e-9 {
		t.Fatalf("expected effective threshold 2.0, got %f", result.EffectiveThreshold)
	}
	for _, a := range result.Anomalies {
		if math.Abs(a.ZScore) <= result.EffectiveThreshold {
			t.Fatalf("flagged point with z-score %f below threshold %f",
				a.ZScore, result.EffectiveThreshold)
		}
		if math.Abs(a.Deviation-(a.Value-a.Expected)) > 1e-9 {
			t.Fatalf("expected deviation %f, got %f", a.Value-a.Expected, a.Deviation)
		}
	}
}

func TestAnomaliesConstantSeries(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries("views", start,
		500, 500, 500, 500, 500, 500, 500, 500)

	result := NewAnalyzer(nil).Anomalies(series, 0, 0)

	if result.Detected != 0 {
		t.Fatalf("expected no anomalies in a constant series, got %d", result.Detected)
	}
	if result.LatestIsAnomaly {
		t.Fatalf("expected latest point not to be flagged")
	}
}

func TestAnomaliesEmptySeries(t *testing.T) {
	series := &domain.Series{Metric: "views"}

	result := NewAnalyzer(nil).Anomalies(series, 0, 0)

	if result.Detected != 0 || result.Percentage != 0 {
		t.Fatalf("expected empty result for empty series, got %d / %f",
			result.Detected, result.Percentage)
	}
}

func TestAnomaliesFlagsLatestSpike(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries("views", start,
		100, 101, 99, 100, 102, 98, 100, 101, 99, 100, 99, 101, 100, 99, 101, 100, 5000)

	result := NewAnalyzer(nil).Anomalies(series, 0, 0)

	if !result.LatestIsAnomaly {
		t.Fatalf("expected the final spike to be flagged as an anomaly")
	}
	last := result.Anomalies[len(result.Anomalies)-1]
	if last.Severity != "extreme" {
		t.Fatalf("expected extreme severity for a 50x spike, got %q", last.Severity)
	}
}
