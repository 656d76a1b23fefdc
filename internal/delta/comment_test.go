package delta

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
)

func TestCompareCommentsCountsNewPerVideo(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Comments: []domain.CommentSnapshot{
			{CommentID: "c1", Text: "first"},
		}},
		{VideoID: "v2"},
	}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Comments: []domain.CommentSnapshot{
			{CommentID: "c1", Text: "first"},
			{CommentID: "c2", Text: "second"},
		}},
		{VideoID: "v2", Comments: []domain.CommentSnapshot{
			{CommentID: "c3", Text: "third"},
		}},
	}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	comments := report.Comments
	if comments == nil {
		t.Fatalf("expected a comment delta")
	}
	if comments.NewComments != 2 {
		t.Fatalf("expected 2 new comments, got %d", comments.NewComments)
	}
	if comments.VideosWithNewComments != 2 {
		t.Fatalf("expected 2 videos with new comments, got %d", comments.VideosWithNewComments)
	}
	if len(comments.SignificantNew) != 0 {
		t.Fatalf("expected no significant comments outside comprehensive mode")
	}
}

func TestCompareCommentsSignificantFactors(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{{VideoID: "v1"}}

	longText := make([]byte, 250)
	for i := range longText {
		longText[i] = 'a'
	}

	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Comments: []domain.CommentSnapshot{
			{CommentID: "c1", Text: "popular", LikeCount: 42},
			{CommentID: "c2", Text: string(longText), IsChannelOwner: true, ReplyCount: 8},
			{CommentID: "c3", Text: "plain"},
		}},
	}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{ComparisonLevel: domain.ComparisonComprehensive})

	significant := report.Comments.SignificantNew
	if len(significant) != 2 {
		t.Fatalf("expected two significant comments, got %d", len(significant))
	}
	if significant[0].CommentID != "c1" {
		t.Fatalf("expected the most-liked comment first, got %q", significant[0].CommentID)
	}

	factors := make(map[string]bool)
	for _, f := range significant[1].Factors {
		factors[f] = true
	}
	for _, want := range []string{"channel_owner", "long_text", "high_replies"} {
		if !factors[want] {
			t.Fatalf("expected factor %q on %q, got %v", want, significant[1].CommentID, significant[1].Factors)
		}
	}
}

func TestCompareCommentsSignificantCap(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{{VideoID: "v1"}}

	var comments []domain.CommentSnapshot
	for i := 0; i < 8; i++ {
		comments = append(comments, domain.CommentSnapshot{
			CommentID: fmt.Sprintf("c%d", i),
			Text:      "liked",
			LikeCount: int64(10 + i),
		})
	}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{{VideoID: "v1", Comments: comments}}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{ComparisonLevel: domain.ComparisonComprehensive})

	significant := report.Comments.SignificantNew
	if len(significant) != maxSignificantNew {
		t.Fatalf("expected the significant list capped at %d, got %d",
			maxSignificantNew, len(significant))
	}
	if significant[0].LikeCount != 17 {
		t.Fatalf("expected the most liked comment first, got %d likes", significant[0].LikeCount)
	}
}

func TestCompareSentimentAbsentSummary(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	current := channelSnapshot(now)
	current.Sentiment = &domain.SentimentSummary{Positive: 8, Neutral: 3, Negative: 1, AverageScore: 0.5}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	sentiment := report.Sentiment
	if sentiment == nil {
		t.Fatalf("expected a sentiment delta")
	}
	if sentiment.Positive.Old != 0 || sentiment.Positive.Diff != 8 {
		t.Fatalf("expected positive 0 -> 8, got %+v", sentiment.Positive)
	}
	if sentiment.ScoreChange != 0.5 {
		t.Fatalf("expected score change 0.5, got %f", sentiment.ScoreChange)
	}
}

func TestCompareSentimentTransitions(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Sentiment = &domain.SentimentSummary{Neutral: 1}
	previous.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Comments: []domain.CommentSnapshot{
			{CommentID: "c1", Text: "hmm", Sentiment: "neutral"},
			{CommentID: "c2", Text: "new here"},
		}},
	}
	current := channelSnapshot(now)
	current.Sentiment = &domain.SentimentSummary{Negative: 1}
	current.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Comments: []domain.CommentSnapshot{
			{CommentID: "c1", Text: "hmm", Sentiment: "negative"},
			{CommentID: "c2", Text: "new here", Sentiment: "positive"},
		}},
	}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	transitions := report.Sentiment.Transitions
	if len(transitions) != 1 {
		t.Fatalf("expected one transition, got %d", len(transitions))
	}
	tr := transitions[0]
	if tr.CommentID != "c1" || tr.OldSentiment != "neutral" || tr.NewSentiment != "negative" {
		t.Fatalf("unexpected transition %+v", tr)
	}
}
