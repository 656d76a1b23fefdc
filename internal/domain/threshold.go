package domain

type EntityType string

const (
	EntityChannel EntityType = "channel"
	EntityVideo   EntityType = "video"
	EntityComment EntityType = "comment"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityChannel, EntityVideo, EntityComment:
		return true
	}
	return false
}

type ThresholdType string

const (
	ThresholdPercentage  ThresholdType = "percentage"
	ThresholdAbsolute    ThresholdType = "absolute"
	ThresholdStatistical ThresholdType = "statistical"
)

func (t ThresholdType) Valid() bool {
	switch t {
	case ThresholdPercentage, ThresholdAbsolute, ThresholdStatistical:
		return true
	}
	return false
}

type AlertDirection string

const (
	DirectionIncrease AlertDirection = "increase"
	DirectionDecrease AlertDirection = "decrease"
	DirectionBoth     AlertDirection = "both"
)

func (d AlertDirection) Valid() bool {
	switch d {
	case DirectionIncrease, DirectionDecrease, DirectionBoth:
		return true
	}
	return false
}

type ThresholdLevel struct {
	Type  ThresholdType `json:"type"`
	Value float64       `json:"value"`
}

// ThresholdConfig defines warning/critical alert boundaries for one
// (entity type, metric) pair. At least one level must be present.
type ThresholdConfig struct {
	Warning              *ThresholdLevel `json:"warning,omitempty"`
	Critical             *ThresholdLevel `json:"critical,omitempty"`
	ComparisonWindowDays int             `json:"comparison_window_days,omitempty"`
	Direction            AlertDirection  `json:"direction,omitempty"`
}

type ViolationRecord struct {
	Level          string         `json:"level"` // "warning" or "critical"
	ThresholdType  ThresholdType  `json:"threshold_type"`
	ThresholdValue float64        `json:"threshold_value"`
	CurrentValue   float64        `json:"current_value"`
	Direction      AlertDirection `json:"direction"`
	WindowDays     int            `json:"window_days"`
	Message        string         `json:"message"`
}
