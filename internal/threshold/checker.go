package threshold

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
)

// Checker evaluates growth-rate results against the registry. Warning and
// critical levels fire independently for the same metric.
type Checker struct {
	registry *Registry
	logger   *zap.Logger
}

func NewChecker(registry *Registry, logger *zap.Logger) *Checker {
	return &Checker{registry: registry, logger: logger}
}

// Check returns every threshold violation for one metric's growth rates.
// An unconfigured (entity type, metric) pair yields an empty list.
func (c *Checker) Check(entityID string, entityType domain.EntityType, metric string, growth *domain.GrowthRateResult) []domain.ViolationRecord {
	if growth == nil || len(growth.Periods) == 0 {
		return nil
	}

	cfg, ok := c.registry.Get(entityType, metric)
	if !ok {
		return nil
	}

	direction := cfg.Direction
	if direction == "" {
		direction = domain.DirectionBoth
	}

	entry, ok := growth.Periods[cfg.ComparisonWindowDays]
	if !ok {
		return nil
	}

	var violations []domain.ViolationRecord
	for _, check := range []struct {
		name  string
		level *domain.ThresholdLevel
	}{
		{"warning", cfg.Warning},
		{"critical", cfg.Critical},
	} {
		if check.level == nil {
			continue
		}
		value, violated := evaluate(check.level, direction, entry)
		if !violated {
			continue
		}

		record := domain.ViolationRecord{
			Level:          check.name,
			ThresholdType:  check.level.Type,
			ThresholdValue: check.level.Value,
			CurrentValue:   value,
			Direction:      direction,
			WindowDays:     cfg.ComparisonWindowDays,
			Message:        violationMessage(entityID, entityType, metric, check.name, check.level, entry, cfg.ComparisonWindowDays),
		}
		violations = append(violations, record)

		if c.logger != nil {
			c.logger.Warn("Threshold violated",
				zap.String("entity", entityID),
				zap.String("metric", metric),
				zap.String("level", check.name),
				zap.Float64("current", value),
				zap.Float64("threshold", check.level.Value))
		}
	}

	return violations
}

// evaluate applies one level's direction-aware predicate to a growth entry
// and reports the value that was compared.
func evaluate(level *domain.ThresholdLevel, direction domain.AlertDirection, entry domain.GrowthEntry) (float64, bool) {
	var value float64
	switch level.Type {
	case domain.ThresholdPercentage:
		if entry.PctUndefined {
			// Growth from a zero reference exceeds any finite percentage
			// threshold in the increasing direction.
			return entry.Change, direction != domain.DirectionDecrease
		}
		value = entry.Pct
	case domain.ThresholdAbsolute:
		value = entry.Change
	default:
		// Statistical thresholds are not evaluable against a plain growth
		// entry; they are reserved for anomaly-based alerting.
		return 0, false
	}

	switch direction {
	case domain.DirectionIncrease:
		return value, value > level.Value
	case domain.DirectionDecrease:
		return value, value < -level.Value
	default:
		return value, math.Abs(value) > level.Value
	}
}

func violationMessage(entityID string, entityType domain.EntityType, metric, levelName string, level *domain.ThresholdLevel, entry domain.GrowthEntry, windowDays int) string {
	verb := "changed"
	switch entry.Direction {
	case "increasing":
		verb = "grew"
	case "decreasing":
		verb = "dropped"
	}

	var amount string
	if level.Type == domain.ThresholdPercentage && !entry.PctUndefined {
		amount = fmt.Sprintf("%.1f%%", math.Abs(entry.Pct))
	} else {
		amount = fmt.Sprintf("%.0f", math.Abs(entry.Change))
	}

	unit := "%"
	if level.Type != domain.ThresholdPercentage {
		unit = ""
	}

	return fmt.Sprintf("%s %s: %s %s %s over %d days, crossing the %s threshold of %.1f%s",
		entityType, entityID, metric, verb, amount, windowDays, levelName, level.Value, unit)
}
