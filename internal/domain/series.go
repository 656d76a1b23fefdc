package domain

import (
	"sort"
	"time"
)

type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is one metric's history for a single entity, ordered by timestamp.
type Series struct {
	EntityID   string      `json:"entity_id"`
	EntityType EntityType  `json:"entity_type"`
	Metric     string      `json:"metric"`
	Points     []TimePoint `json:"points"`
}

// Sort orders points ascending by timestamp. Providers do not guarantee
// order, so every analysis entry point sorts first.
func (s *Series) Sort() {
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Timestamp.Before(s.Points[j].Timestamp)
	})
}

func (s *Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

func (s *Series) Len() int { return len(s.Points) }

// TrendResult is the outcome of a least-squares fit of value against
// days-since-first-point.
type TrendResult struct {
	Direction    string      `json:"direction"` // "increasing", "decreasing", "stable"
	Slope        float64     `json:"slope"`     // value units per day
	Intercept    float64     `json:"intercept"`
	RSquared     float64     `json:"r_squared"`
	Significance string      `json:"significance"` // "high", "medium", "low", "none"
	Forecast     []TimePoint `json:"forecast,omitempty"`
}

type MovingAverageWindow struct {
	Window   int         `json:"window"`
	Averages []TimePoint `json:"averages"`
	Values   []float64   `json:"values"`
	Dates    []time.Time `json:"dates"`
}

type MovingAverageResult struct {
	Windows map[string]MovingAverageWindow `json:"windows"`
}

// GrowthEntry is the change over one look-back period. PctUndefined marks
// growth from a zero reference, where a finite percentage does not exist;
// Pct is 0 in that case and Change carries the direction.
type GrowthEntry struct {
	PeriodDays    int       `json:"period_days"`
	From          float64   `json:"from"`
	To            float64   `json:"to"`
	FromTime      time.Time `json:"from_time"`
	ToTime        time.Time `json:"to_time"`
	Change        float64   `json:"change"`
	Pct           float64   `json:"pct"`
	PctUndefined  bool      `json:"pct_undefined,omitempty"`
	AnnualizedPct float64   `json:"annualized_pct"`
	Direction     string    `json:"direction"`
}

type GrowthRateResult struct {
	Periods map[int]GrowthEntry `json:"periods"`
}

type WeekdayStat struct {
	Mean         float64 `json:"mean"`
	Count        int     `json:"count"`
	RelDeviation float64 `json:"rel_deviation"`
}

type SeasonalityResult struct {
	Detected       bool                         `json:"detected"`
	PeriodDays     int                          `json:"period_days,omitempty"`
	Strength       float64                      `json:"strength,omitempty"`
	Confidence     string                       `json:"confidence,omitempty"` // "high", "medium", "low"
	Method         string                       `json:"method,omitempty"`     // "decomposition" or "day_of_week"
	WeekdayPattern map[time.Weekday]WeekdayStat `json:"weekday_pattern,omitempty"`
}

type AnomalyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Expected  float64   `json:"expected"`
	Deviation float64   `json:"deviation"` // signed, value - expected
	ZScore    float64   `json:"z_score"`
	Severity  string    `json:"severity"` // "moderate" or "extreme"
}

type AnomalyResult struct {
	Detected           int            `json:"anomalies_detected"`
	Percentage         float64        `json:"anomaly_percentage"`
	LatestIsAnomaly    bool           `json:"latest_is_anomaly"`
	EffectiveThreshold float64        `json:"effective_threshold"`
	Anomalies          []AnomalyPoint `json:"anomalies,omitempty"`
}
