package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/analysis"
	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/threshold"
	apperrors "github.com/kapu/channelwatch-go/pkg/errors"
)

// DefaultAnalysisTypes are run when the caller does not ask for a specific
// set.
var DefaultAnalysisTypes = []string{
	domain.AnalysisLinearTrend,
	domain.AnalysisMovingAverage,
	domain.AnalysisGrowthRate,
}

// DefaultReportWindows are the look-back windows, in days, used by trend
// reports when none are requested.
var DefaultReportWindows = []int{30, 90}

var defaultReportMetrics = map[domain.EntityType][]string{
	domain.EntityChannel: {"subscribers", "views", "total_videos"},
	domain.EntityVideo:   {"views", "likes", "comments"},
	domain.EntityComment: {"likes", "replies"},
}

// SeriesAnalyzer is the analysis surface the orchestrator dispatches to.
// *analysis.Analyzer satisfies it.
type SeriesAnalyzer interface {
	LinearTrend(series *domain.Series) *domain.TrendResult
	MovingAverages(series *domain.Series, windows map[string]int) *domain.MovingAverageResult
	GrowthRates(series *domain.Series, periods []int) *domain.GrowthRateResult
	Seasonality(series *domain.Series) *domain.SeasonalityResult
	Anomalies(series *domain.Series, zThreshold float64, window int) *domain.AnomalyResult
}

// MetricsOrchestrator fetches a metric's history, runs the requested trend
// analyses, and attaches threshold violations.
type MetricsOrchestrator struct {
	provider HistoryProvider
	analyzer SeriesAnalyzer
	checker  *threshold.Checker
	logger   *zap.Logger
}

func NewMetricsOrchestrator(provider HistoryProvider, analyzer SeriesAnalyzer, checker *threshold.Checker, logger *zap.Logger) *MetricsOrchestrator {
	return &MetricsOrchestrator{
		provider: provider,
		analyzer: analyzer,
		checker:  checker,
		logger:   logger,
	}
}

// AnalyzeHistoricalTrends analyzes one metric over the given window. Fewer
// than two points is a normal outcome, reported through Status rather than
// an error. A failure inside a single analysis type drops that entry only.
func (mo *MetricsOrchestrator) AnalyzeHistoricalTrends(ctx context.Context, entityID, metric string, entityType domain.EntityType, windowDays int, analysisTypes []string) (*domain.MetricAnalysis, error) {
	if windowDays <= 0 {
		windowDays = DefaultReportWindows[0]
	}
	if len(analysisTypes) == 0 {
		analysisTypes = DefaultAnalysisTypes
	}

	start := time.Now().AddDate(0, 0, -windowDays)
	points, err := mo.provider.GetMetricHistory(ctx, metric, entityID, start, 0)
	if err != nil {
		return nil, apperrors.NewAnalysisError("failed to fetch metric history", entityID, metric, err)
	}

	series := &domain.Series{
		EntityID:   entityID,
		EntityType: entityType,
		Metric:     metric,
		Points:     points,
	}
	series.Sort()

	result := &domain.MetricAnalysis{
		EntityID:   entityID,
		EntityType: entityType,
		Metric:     metric,
		WindowDays: windowDays,
		PointCount: series.Len(),
	}

	if series.Len() < 2 {
		result.Status = domain.AnalysisStatusInsufficientData
		mo.logger.Debug("Insufficient history for analysis",
			zap.String("entity", entityID),
			zap.String("metric", metric),
			zap.Int("points", series.Len()))
		return result, nil
	}

	result.Status = domain.AnalysisStatusOK
	result.CurrentValue = series.Points[series.Len()-1].Value
	result.Start = series.Points[0].Timestamp
	result.End = series.Points[series.Len()-1].Timestamp

	for _, analysisType := range analysisTypes {
		mo.runAnalysis(series, analysisType, result)
	}

	if result.GrowthRates != nil {
		result.Violations = mo.checker.Check(entityID, entityType, metric, result.GrowthRates)
	}

	return result, nil
}

// runAnalysis executes one analysis type, catching any panic so sibling
// analyses in the same call still complete.
func (mo *MetricsOrchestrator) runAnalysis(series *domain.Series, analysisType string, result *domain.MetricAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			mo.logger.Error("Analysis failed",
				zap.String("type", analysisType),
				zap.String("entity", series.EntityID),
				zap.String("metric", series.Metric),
				zap.Any("panic", r))
		}
	}()

	switch analysisType {
	case domain.AnalysisLinearTrend:
		result.Trend = mo.analyzer.LinearTrend(series)
	case domain.AnalysisMovingAverage:
		result.MovingAverages = mo.analyzer.MovingAverages(series, nil)
	case domain.AnalysisGrowthRate:
		result.GrowthRates = mo.analyzer.GrowthRates(series, nil)
	case domain.AnalysisSeasonality:
		result.Seasonality = mo.analyzer.Seasonality(series)
	case domain.AnalysisAnomalies:
		result.Anomalies = mo.analyzer.Anomalies(series, analysis.DefaultAnomalyThreshold, analysis.DefaultAnomalyWindow)
	default:
		mo.logger.Warn("Unknown analysis type requested", zap.String("type", analysisType))
	}
}

// GenerateTrendReport runs AnalyzeHistoricalTrends per metric per window,
// substituting per-entity-type defaults for omitted arguments. A failed
// metric/window pair is logged and omitted rather than aborting the report.
func (mo *MetricsOrchestrator) GenerateTrendReport(ctx context.Context, entityID string, entityType domain.EntityType, metrics []string, windows []int) *domain.TrendReport {
	if len(metrics) == 0 {
		metrics = defaultReportMetrics[entityType]
	}
	if len(windows) == 0 {
		windows = DefaultReportWindows
	}

	report := &domain.TrendReport{
		EntityID:    entityID,
		EntityType:  entityType,
		GeneratedAt: time.Now(),
		Metrics:     make(map[string]map[int]*domain.MetricAnalysis),
	}

	for _, metric := range metrics {
		for _, window := range windows {
			metricAnalysis, err := mo.AnalyzeHistoricalTrends(ctx, entityID, metric, entityType, window, nil)
			if err != nil {
				mo.logger.Warn("Skipping metric in trend report",
					zap.String("metric", metric),
					zap.Int("window_days", window),
					zap.Error(err))
				continue
			}
			if report.Metrics[metric] == nil {
				report.Metrics[metric] = make(map[int]*domain.MetricAnalysis)
			}
			report.Metrics[metric][window] = metricAnalysis
		}
	}

	return report
}
