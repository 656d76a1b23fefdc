package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/delta"
	"github.com/kapu/channelwatch-go/internal/domain"
)

// trendMetrics are the channel metrics enriched with trend analysis after a
// delta calculation.
var trendMetrics = []string{"subscribers", "views", "total_videos"}

var integratorAnalysisTypes = []string{
	domain.AnalysisLinearTrend,
	domain.AnalysisGrowthRate,
}

// IntegratorOptions extends the delta options with trend enrichment knobs.
type IntegratorOptions struct {
	Delta               delta.Options
	IncludeTrendMetrics bool
	TrendWindowDays     int
}

// DeltaTrendIntegrator composes the delta calculator with historical trend
// analysis into one enriched report.
type DeltaTrendIntegrator struct {
	calculator *delta.Calculator
	metrics    *MetricsOrchestrator
	logger     *zap.Logger
}

func NewDeltaTrendIntegrator(calculator *delta.Calculator, metrics *MetricsOrchestrator, logger *zap.Logger) *DeltaTrendIntegrator {
	return &DeltaTrendIntegrator{
		calculator: calculator,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessDeltaWithTrendAnalysis runs the delta calculation, then attaches
// linear-trend and growth-rate analysis for the standard channel metrics.
// A failed metric analysis is omitted; it never aborts the whole call.
func (i *DeltaTrendIntegrator) ProcessDeltaWithTrendAnalysis(ctx context.Context, current, previous *domain.Snapshot, opts IntegratorOptions) *domain.DeltaReport {
	report := i.calculator.Calculate(current, previous, opts.Delta)

	if !opts.IncludeTrendMetrics || report.ChannelID == "" {
		return report
	}

	i.attachTrends(ctx, report, trendMetrics, opts.TrendWindowDays)
	return report
}

// EnhanceDeltaReportWithTrends applies the same enrichment to an existing
// delta report, limited to the metrics that actually changed.
func (i *DeltaTrendIntegrator) EnhanceDeltaReportWithTrends(ctx context.Context, report *domain.DeltaReport, windowDays int) *domain.DeltaReport {
	if report == nil || report.ChannelID == "" {
		return report
	}

	var changed []string
	for _, metric := range trendMetrics {
		change, ok := report.Channel[metric]
		if !ok || change.Diff == nil || *change.Diff == 0 {
			continue
		}
		changed = append(changed, metric)
	}
	if len(changed) == 0 {
		return report
	}

	i.attachTrends(ctx, report, changed, windowDays)
	return report
}

func (i *DeltaTrendIntegrator) attachTrends(ctx context.Context, report *domain.DeltaReport, metrics []string, windowDays int) {
	for _, metric := range metrics {
		metricAnalysis, err := i.metrics.AnalyzeHistoricalTrends(ctx, report.ChannelID, metric, domain.EntityChannel, windowDays, integratorAnalysisTypes)
		if err != nil {
			i.logger.Warn("Trend enrichment failed for metric",
				zap.String("channel", report.ChannelID),
				zap.String("metric", metric),
				zap.Error(err))
			continue
		}

		if report.TrendAnalysis == nil {
			report.TrendAnalysis = make(map[string]*domain.MetricAnalysis)
		}
		report.TrendAnalysis[metric] = metricAnalysis
	}

	for _, metricAnalysis := range report.TrendAnalysis {
		if len(metricAnalysis.Violations) > 0 {
			report.HasThresholdViolations = true
			break
		}
	}
}
