package delta

import (
	"strings"
	"testing"
)

func TestEvaluateNumericThresholds(t *testing.T) {
	detector := NewSignificanceDetector()

	tests := []struct {
		name        string
		field       string
		old, new    float64
		significant bool
		severity    string
	}{
		{"below threshold", "subscribers", 1000, 1050, false, ""},
		{"at threshold", "subscribers", 1000, 1100, true, "medium"},
		{"double threshold", "subscribers", 1000, 1200, true, "high"},
		{"negative change", "subscribers", 1000, 850, true, "medium"},
		{"zero baseline", "subscribers", 0, 500, false, ""},
		{"unknown field", "banner_color", 0, 100, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			significant, severity, _ := detector.EvaluateNumeric(tt.field, tt.old, tt.new)
			if significant != tt.significant {
				t.Fatalf("expected significant=%v, got %v", tt.significant, significant)
			}
			if severity != tt.severity {
				t.Fatalf("expected severity %q, got %q", tt.severity, severity)
			}
		})
	}
}

func TestScanKeywordsContextSnippet(t *testing.T) {
	detector := NewSignificanceDetector()
	padding := strings.Repeat("x", 100)
	newText := padding + " sponsorship " + padding

	changes := detector.ScanKeywords("no mention here", newText, []string{"Sponsorship"})

	if len(changes) != 1 {
		t.Fatalf("expected one keyword change, got %d", len(changes))
	}
	change := changes[0]
	if change.Action != "added" {
		t.Fatalf("expected added action, got %q", change.Action)
	}
	if !strings.Contains(strings.ToLower(change.Context), "sponsorship") {
		t.Fatalf("expected the context to contain the keyword, got %q", change.Context)
	}
	maxLen := len("sponsorship") + 2*keywordContextRadius
	if len(change.Context) > maxLen {
		t.Fatalf("expected the context capped at %d chars, got %d", maxLen, len(change.Context))
	}
}

func TestScanKeywordsIsCaseInsensitive(t *testing.T) {
	detector := NewSignificanceDetector()

	changes := detector.ScanKeywords("We do GIVEAWAYS weekly", "all done now", []string{"giveaway"})

	if len(changes) != 1 || changes[0].Action != "removed" {
		t.Fatalf("expected a case-insensitive removal, got %+v", changes)
	}
}

func TestScanKeywordsIgnoresUnchangedMentions(t *testing.T) {
	detector := NewSignificanceDetector()

	changes := detector.ScanKeywords("crypto talk daily", "crypto talk weekly", []string{"crypto"})

	if len(changes) != 0 {
		t.Fatalf("expected no change when the keyword appears on both sides, got %+v", changes)
	}
}

func TestScanOwnershipUsesPhraseList(t *testing.T) {
	detector := NewSignificanceDetector()

	changes := detector.ScanOwnership(
		"Just a gaming channel",
		"Just a gaming channel, recently acquired by MegaCorp")

	found := false
	for _, change := range changes {
		if change.Keyword == "acquired by" && change.Action == "added" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the acquisition phrase to be detected, got %+v", changes)
	}
}
