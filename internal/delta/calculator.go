package delta

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
)

// internalPrefix marks provider-internal extra fields that comparisons skip.
const internalPrefix = "_"

// Declared channel-level field sets per comparison level. Each level is a
// strict superset of the one below it; comprehensive additionally unions the
// non-internal Extra keys present on either side.
var (
	basicNumericFields    = []string{"subscribers", "views", "total_videos"}
	basicTextFields       = []string{"channel_name"}
	standardNumericFields = basicNumericFields
	standardTextFields    = []string{"channel_name", "handle", "channel_description", "country"}
)

// Options controls comparison depth and alerting for one calculation.
type Options struct {
	ComparisonLevel           domain.ComparisonLevel
	TrackKeywords             []string
	AlertOnSignificantChanges bool
}

// Calculator structurally diffs two snapshots of the same channel.
type Calculator struct {
	detector *SignificanceDetector
	logger   *zap.Logger
}

func NewCalculator(detector *SignificanceDetector, logger *zap.Logger) *Calculator {
	if detector == nil {
		detector = NewSignificanceDetector()
	}
	return &Calculator{detector: detector, logger: logger}
}

// Calculate enriches the current snapshot with everything that changed since
// the previous one. A missing previous snapshot is a pass-through, not an
// error: the report carries the current snapshot and no delta fields.
func (c *Calculator) Calculate(current, previous *domain.Snapshot, opts Options) *domain.DeltaReport {
	if opts.ComparisonLevel == "" {
		opts.ComparisonLevel = domain.ComparisonStandard
	}

	report := &domain.DeltaReport{
		Current:         current,
		ChannelID:       current.ChannelID,
		ComparisonLevel: opts.ComparisonLevel,
		CurrentAt:       current.FetchedAt,
	}
	if previous == nil {
		return report
	}
	report.PreviousAt = previous.FetchedAt

	c.compareChannel(report, current, previous, opts)
	report.Videos = c.compareVideos(current, previous, opts)
	report.Comments = c.compareComments(current, previous, opts)
	report.Sentiment = c.compareSentiment(current, previous)

	if opts.AlertOnSignificantChanges {
		c.collectSignificant(report)
	}

	if c.logger != nil {
		c.logger.Debug("Delta calculated",
			zap.String("channel", current.ChannelID),
			zap.String("level", string(opts.ComparisonLevel)),
			zap.Int("channel_changes", len(report.Channel)),
			zap.Int("significant", len(report.SignificantChanges)))
	}
	return report
}

func (c *Calculator) compareChannel(report *domain.DeltaReport, current, previous *domain.Snapshot, opts Options) {
	report.Channel = make(map[string]domain.FieldChange)
	report.Keywords = make(map[string][]domain.KeywordChange)

	numericFields, textFields := fieldsForLevel(opts.ComparisonLevel)

	for _, field := range numericFields {
		oldVal := previous.NumericField(field)
		newVal := current.NumericField(field)
		diff := newVal - oldVal
		report.Channel[field] = domain.FieldChange{Old: oldVal, New: newVal, Diff: &diff}
	}

	for _, field := range textFields {
		oldVal, _ := previous.TextField(field)
		newVal, _ := current.TextField(field)
		if oldVal != newVal {
			report.Channel[field] = domain.FieldChange{Old: oldVal, New: newVal}
		}

		if kws := c.detector.ScanKeywords(oldVal, newVal, opts.TrackKeywords); len(kws) > 0 {
			report.Keywords[field] = kws
		}
		if owned := c.detector.ScanOwnership(oldVal, newVal); len(owned) > 0 {
			for i := range owned {
				owned[i].Field = field
			}
			report.Keywords[OwnershipIndicatorKey] = append(report.Keywords[OwnershipIndicatorKey], owned...)
		}
	}

	if opts.ComparisonLevel == domain.ComparisonComprehensive {
		c.compareExtra(report, current.Extra, previous.Extra)
	}

	if len(report.Keywords) == 0 {
		report.Keywords = nil
	}
}

// compareExtra unions the non-internal extra keys of both sides. One-sided
// keys get marker entries: "<field>_new" when only the current snapshot has
// the field, "<field>_unchanged" when only the previous one does.
func (c *Calculator) compareExtra(report *domain.DeltaReport, current, previous map[string]any) {
	for key := range union(current, previous) {
		if strings.HasPrefix(key, internalPrefix) {
			continue
		}
		if _, seen := report.Channel[key]; seen {
			continue
		}

		curVal, inCur := current[key]
		prevVal, inPrev := previous[key]

		switch {
		case inCur && !inPrev:
			report.Channel[key+"_new"] = domain.FieldChange{New: curVal}
		case inPrev && !inCur:
			report.Channel[key+"_unchanged"] = domain.FieldChange{Old: prevVal}
		default:
			oldNum, oldIsNum := asNumber(prevVal)
			newNum, newIsNum := asNumber(curVal)
			if oldIsNum && newIsNum {
				diff := newNum - oldNum
				report.Channel[key] = domain.FieldChange{Old: oldNum, New: newNum, Diff: &diff}
			} else if fmt.Sprint(prevVal) != fmt.Sprint(curVal) {
				report.Channel[key] = domain.FieldChange{Old: prevVal, New: curVal}
			}
		}
	}
}

func (c *Calculator) collectSignificant(report *domain.DeltaReport) {
	for _, field := range []string{"subscribers", "views", "total_videos"} {
		change, ok := report.Channel[field]
		if !ok || change.Diff == nil {
			continue
		}
		oldVal, _ := asNumber(change.Old)
		newVal, _ := asNumber(change.New)
		if significant, severity, pct := c.detector.EvaluateNumeric(field, oldVal, newVal); significant {
			report.SignificantChanges = append(report.SignificantChanges, domain.SignificantChange{
				Field:     field,
				Old:       change.Old,
				New:       change.New,
				PctChange: pct,
				Severity:  severity,
			})
		}
	}

	for _, field := range []string{"channel_name", "handle", "channel_description", "country"} {
		change, ok := report.Channel[field]
		if !ok {
			continue
		}
		var ownership []domain.KeywordChange
		if field == "channel_description" {
			for _, kc := range report.Keywords[OwnershipIndicatorKey] {
				if kc.Field == field {
					ownership = append(ownership, kc)
				}
			}
		}
		if significant, severity := c.detector.EvaluateText(field, ownership); significant {
			report.SignificantChanges = append(report.SignificantChanges, domain.SignificantChange{
				Field:    field,
				Old:      change.Old,
				New:      change.New,
				Severity: severity,
				Reason:   "text_changed",
			})
		}
	}

	for field, changes := range report.Keywords {
		if len(changes) == 0 {
			continue
		}
		report.SignificantChanges = append(report.SignificantChanges, domain.SignificantChange{
			Field:    field,
			Severity: "high",
			Reason:   "keyword_change",
		})
	}
}

func fieldsForLevel(level domain.ComparisonLevel) (numeric, text []string) {
	switch level {
	case domain.ComparisonBasic:
		return basicNumericFields, basicTextFields
	default:
		return standardNumericFields, standardTextFields
	}
}

func union(a, b map[string]any) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
