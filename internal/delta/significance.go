package delta

import (
	"math"
	"strings"

	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/util"
)

// Percentage thresholds above which a numeric channel metric change counts
// as significant. Twice the threshold upgrades severity to "high".
var metricThresholds = map[string]float64{
	"subscribers":  10,
	"views":        20,
	"total_videos": 5,
	"likes":        25,
	"comments":     30,
}

// ownershipPhrases flag possible channel ownership, acquisition, or
// copyright events in text fields. Kept as a flat rule list so deployments
// can swap it without touching detection logic.
var ownershipPhrases = []string{
	"new owner",
	"under new management",
	"acquired by",
	"acquisition",
	"ownership change",
	"changed ownership",
	"now owned by",
	"new channel owner",
	"copyright claim",
	"copyright strike",
	"rights transferred",
}

const keywordContextRadius = 40

// OwnershipIndicatorKey is the synthetic keyword-change key used for
// ownership-phrase matches, independent of the tracked-keyword list.
const OwnershipIndicatorKey = "ownership_indicator"

// SignificanceDetector decides which delta entries are worth alerting on.
type SignificanceDetector struct {
	phrases []string
}

func NewSignificanceDetector() *SignificanceDetector {
	return &SignificanceDetector{phrases: ownershipPhrases}
}

// EvaluateNumeric reports whether a numeric channel field change is
// significant, along with its severity and percentage change. Fields with
// no configured threshold are never significant.
func (sd *SignificanceDetector) EvaluateNumeric(field string, old, new float64) (bool, string, float64) {
	threshold, ok := metricThresholds[field]
	if !ok {
		return false, "", 0
	}
	if old == 0 {
		return false, "", 0
	}

	pct := (new - old) / old * 100
	if math.Abs(pct) < threshold {
		return false, "", pct
	}

	severity := "medium"
	if math.Abs(pct) >= 2*threshold {
		severity = "high"
	}
	return true, severity, pct
}

// EvaluateText reports whether a changed text field is significant and how
// severe the change is. The description only rates "high" when the new text
// introduced an ownership-indicator phrase.
func (sd *SignificanceDetector) EvaluateText(field string, keywordChanges []domain.KeywordChange) (bool, string) {
	switch field {
	case "channel_name", "country":
		return true, "high"
	case "handle":
		return true, "medium"
	case "channel_description":
		for _, kc := range keywordChanges {
			if kc.Action == "added" {
				return true, "high"
			}
		}
		return true, "medium"
	}
	return false, ""
}

// ScanKeywords finds tracked keywords that appear on only one side of a text
// change, each with a context snippet around the first occurrence.
func (sd *SignificanceDetector) ScanKeywords(oldText, newText string, keywords []string) []domain.KeywordChange {
	var changes []domain.KeywordChange
	oldLower := strings.ToLower(oldText)
	newLower := strings.ToLower(newText)

	for _, keyword := range keywords {
		kw := util.Normalize(keyword)
		if kw == "" {
			continue
		}
		inOld := strings.Contains(oldLower, kw)
		inNew := strings.Contains(newLower, kw)

		switch {
		case inNew && !inOld:
			changes = append(changes, domain.KeywordChange{
				Keyword: keyword,
				Action:  "added",
				Context: contextSnippet(newText, newLower, kw),
			})
		case inOld && !inNew:
			changes = append(changes, domain.KeywordChange{
				Keyword: keyword,
				Action:  "removed",
				Context: contextSnippet(oldText, oldLower, kw),
			})
		}
	}
	return changes
}

// ScanOwnership runs the ownership-phrase rules over a text change,
// regardless of the tracked-keyword list.
func (sd *SignificanceDetector) ScanOwnership(oldText, newText string) []domain.KeywordChange {
	return sd.ScanKeywords(oldText, newText, sd.phrases)
}

func contextSnippet(text, lower, keyword string) string {
	idx := strings.Index(lower, keyword)
	if idx < 0 {
		return ""
	}
	start := idx - keywordContextRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(keyword) + keywordContextRadius
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
