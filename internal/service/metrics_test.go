package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/analysis"
	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/threshold"
	apperrors "github.com/kapu/channelwatch-go/pkg/errors"
)

type fakeHistoryProvider struct {
	points map[string][]domain.TimePoint
	err    error
	calls  []string
}

func (f *fakeHistoryProvider) GetMetricHistory(_ context.Context, metric, entityID string, _ time.Time, _ int) ([]domain.TimePoint, error) {
	f.calls = append(f.calls, metric)
	if f.err != nil {
		return nil, f.err
	}
	return f.points[metric], nil
}

func dailyPoints(end time.Time, values ...float64) []domain.TimePoint {
	points := make([]domain.TimePoint, len(values))
	for i, v := range values {
		points[i] = domain.TimePoint{
			Timestamp: end.AddDate(0, 0, i-len(values)+1),
			Value:     v,
		}
	}
	return points
}

func newOrchestrator(provider HistoryProvider) *MetricsOrchestrator {
	logger := zap.NewNop()
	registry := threshold.NewRegistry(logger)
	return NewMetricsOrchestrator(
		provider,
		analysis.NewAnalyzer(nil),
		threshold.NewChecker(registry, logger),
		logger,
	)
}

func TestAnalyzeHistoricalTrendsInsufficientData(t *testing.T) {
	provider := &fakeHistoryProvider{points: map[string][]domain.TimePoint{
		"subscribers": {{Timestamp: time.Now(), Value: 100}},
	}}
	orchestrator := newOrchestrator(provider)

	result, err := orchestrator.AnalyzeHistoricalTrends(context.Background(),
		"UC_test", "subscribers", domain.EntityChannel, 30, nil)
	if err != nil {
		t.Fatalf("expected insufficient data to be a normal outcome, got %v", err)
	}
	if result.Status != domain.AnalysisStatusInsufficientData {
		t.Fatalf("expected insufficient_data status, got %q", result.Status)
	}
	if result.PointCount != 1 {
		t.Fatalf("expected point count 1, got %d", result.PointCount)
	}
	if result.Trend != nil || result.GrowthRates != nil {
		t.Fatalf("expected no analyses on insufficient data")
	}
}

func TestAnalyzeHistoricalTrendsFullAnalysis(t *testing.T) {
	end := time.Now().Truncate(24 * time.Hour)
	provider := &fakeHistoryProvider{points: map[string][]domain.TimePoint{
		"subscribers": dailyPoints(end,
			1000, 1025, 1050, 1075, 1100, 1150, 1200, 1230, 1260, 1300),
	}}
	orchestrator := newOrchestrator(provider)

	result, err := orchestrator.AnalyzeHistoricalTrends(context.Background(),
		"UC_test", "subscribers", domain.EntityChannel, 30, nil)
	if err != nil {
		t.Fatalf("expected analysis to succeed, got %v", err)
	}
	if result.Status != domain.AnalysisStatusOK {
		t.Fatalf("expected ok status, got %q", result.Status)
	}
	if result.CurrentValue != 1300 {
		t.Fatalf("expected current value 1300, got %f", result.CurrentValue)
	}
	if result.Trend == nil || result.Trend.Direction != "increasing" {
		t.Fatalf("expected an increasing trend, got %+v", result.Trend)
	}
	if result.MovingAverages == nil {
		t.Fatalf("expected moving averages")
	}
	if result.GrowthRates == nil {
		t.Fatalf("expected growth rates")
	}

	// 1050 -> 1300 over 7 days is about 24%: past the default 10% warning,
	// below the 25% critical.
	if len(result.Violations) != 1 {
		t.Fatalf("expected one threshold violation, got %d", len(result.Violations))
	}
	if result.Violations[0].Level != "warning" {
		t.Fatalf("expected a warning violation, got %q", result.Violations[0].Level)
	}
}

func TestAnalyzeHistoricalTrendsProviderError(t *testing.T) {
	provider := &fakeHistoryProvider{err: errors.New("db down")}
	orchestrator := newOrchestrator(provider)

	_, err := orchestrator.AnalyzeHistoricalTrends(context.Background(),
		"UC_test", "subscribers", domain.EntityChannel, 30, nil)
	if err == nil {
		t.Fatalf("expected a provider error to propagate")
	}

	var analysisErr *apperrors.AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected an AnalysisError, got %T", err)
	}
	if analysisErr.Metric != "subscribers" {
		t.Fatalf("expected the failing metric on the error, got %q", analysisErr.Metric)
	}
}

// faultyAnalyzer panics on one analysis type so dispatch isolation can be
// observed from the outside.
type faultyAnalyzer struct {
	*analysis.Analyzer
}

func (f *faultyAnalyzer) Seasonality(*domain.Series) *domain.SeasonalityResult {
	panic("seasonal decomposition blew up")
}

func TestAnalyzeHistoricalTrendsIsolatesFailingAnalysis(t *testing.T) {
	end := time.Now().Truncate(24 * time.Hour)
	provider := &fakeHistoryProvider{points: map[string][]domain.TimePoint{
		"views": dailyPoints(end, 100, 110, 120, 130, 140),
	}}
	logger := zap.NewNop()
	registry := threshold.NewRegistry(logger)
	orchestrator := NewMetricsOrchestrator(
		provider,
		&faultyAnalyzer{Analyzer: analysis.NewAnalyzer(nil)},
		threshold.NewChecker(registry, logger),
		logger,
	)

	result, err := orchestrator.AnalyzeHistoricalTrends(context.Background(),
		"UC_test", "views", domain.EntityChannel, 30,
		[]string{domain.AnalysisLinearTrend, domain.AnalysisSeasonality, domain.AnalysisGrowthRate})
	if err != nil {
		t.Fatalf("expected the analysis to survive one failing type, got %v", err)
	}
	if result.Seasonality != nil {
		t.Fatalf("expected no seasonality result after its analysis failed")
	}
	if result.Trend == nil {
		t.Fatalf("expected the trend analysis to complete")
	}
	if result.GrowthRates == nil {
		t.Fatalf("expected the growth-rate analysis to complete")
	}
}

func TestAnalyzeHistoricalTrendsSelectedTypes(t *testing.T) {
	end := time.Now().Truncate(24 * time.Hour)
	provider := &fakeHistoryProvider{points: map[string][]domain.TimePoint{
		"views": dailyPoints(end, 100, 110, 120, 130),
	}}
	orchestrator := newOrchestrator(provider)

	result, err := orchestrator.AnalyzeHistoricalTrends(context.Background(),
		"UC_test", "views", domain.EntityChannel, 30, []string{domain.AnalysisLinearTrend})
	if err != nil {
		t.Fatalf("expected analysis to succeed, got %v", err)
	}
	if result.Trend == nil {
		t.Fatalf("expected the requested linear trend")
	}
	if result.MovingAverages != nil || result.GrowthRates != nil {
		t.Fatalf("expected unrequested analyses to be skipped")
	}
}

func TestGenerateTrendReportDefaults(t *testing.T) {
	end := time.Now().Truncate(24 * time.Hour)
	points := dailyPoints(end, 100, 110, 120, 130, 140)
	provider := &fakeHistoryProvider{points: map[string][]domain.TimePoint{
		"subscribers":  points,
		"views":        points,
		"total_videos": points,
	}}
	orchestrator := newOrchestrator(provider)

	report := orchestrator.GenerateTrendReport(context.Background(),
		"UC_test", domain.EntityChannel, nil, nil)

	if len(report.Metrics) != 3 {
		t.Fatalf("expected the three default channel metrics, got %d", len(report.Metrics))
	}
	windows, ok := report.Metrics["subscribers"]
	if !ok {
		t.Fatalf("expected a subscribers entry")
	}
	if len(windows) != 2 {
		t.Fatalf("expected the two default windows, got %d", len(windows))
	}
	if windows[30] == nil || windows[90] == nil {
		t.Fatalf("expected 30 and 90 day windows, got %v", windows)
	}
}
