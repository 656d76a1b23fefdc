package domain

import "time"

const (
	AnalysisStatusOK               = "ok"
	AnalysisStatusInsufficientData = "insufficient_data"
)

// Analysis type identifiers accepted by the metrics orchestrator.
const (
	AnalysisLinearTrend   = "linear_trend"
	AnalysisMovingAverage = "moving_average"
	AnalysisGrowthRate    = "growth_rate"
	AnalysisSeasonality   = "seasonality"
	AnalysisAnomalies     = "anomalies"
)

// MetricAnalysis bundles every requested analysis of one metric's history.
// Status is "insufficient_data" when fewer than two points were available;
// all analysis pointers are nil in that case.
type MetricAnalysis struct {
	EntityID   string     `json:"entity_id"`
	EntityType EntityType `json:"entity_type"`
	Metric     string     `json:"metric"`
	Status     string     `json:"status"`
	PointCount int        `json:"point_count"`
	WindowDays int        `json:"window_days"`

	CurrentValue float64   `json:"current_value,omitempty"`
	Start        time.Time `json:"start,omitempty"`
	End          time.Time `json:"end,omitempty"`

	Trend          *TrendResult         `json:"linear_trend,omitempty"`
	MovingAverages *MovingAverageResult `json:"moving_average,omitempty"`
	GrowthRates    *GrowthRateResult    `json:"growth_rate,omitempty"`
	Seasonality    *SeasonalityResult   `json:"seasonality,omitempty"`
	Anomalies      *AnomalyResult       `json:"anomalies,omitempty"`

	Violations []ViolationRecord `json:"violations,omitempty"`
}

// TrendReport groups per-metric, per-window analyses for one entity.
type TrendReport struct {
	EntityID    string                             `json:"entity_id"`
	EntityType  EntityType                         `json:"entity_type"`
	GeneratedAt time.Time                          `json:"generated_at"`
	Metrics     map[string]map[int]*MetricAnalysis `json:"metrics"` // metric -> window days -> analysis
}
