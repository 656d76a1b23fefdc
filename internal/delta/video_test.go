package delta

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
)

func TestCompareVideosNewAndUpdated(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Title: "First", Views: 1000, Likes: 50},
		{VideoID: "v2", Title: "Second", Views: 2000},
	}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Title: "First", Views: 1500, Likes: 50},
		{VideoID: "v3", Title: "Third", Views: 10},
	}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	videos := report.Videos
	if videos == nil {
		t.Fatalf("expected a video delta")
	}
	if len(videos.NewVideos) != 1 || videos.NewVideos[0].VideoID != "v3" {
		t.Fatalf("expected v3 as the only new video, got %+v", videos.NewVideos)
	}
	if videos.NewVideos[0].Views != nil {
		t.Fatalf("expected no stats on new videos outside comprehensive mode")
	}
	if len(videos.UpdatedVideos) != 1 || videos.UpdatedVideos[0].VideoID != "v1" {
		t.Fatalf("expected v1 as the only updated video, got %+v", videos.UpdatedVideos)
	}

	viewsChange, ok := videos.UpdatedVideos[0].Metrics["views"]
	if !ok {
		t.Fatalf("expected a views metric change for v1")
	}
	if viewsChange.Old != 1000 || viewsChange.New != 1500 || viewsChange.Diff != 500 {
		t.Fatalf("unexpected views change %+v", viewsChange)
	}
	if viewsChange.PctChange == nil || *viewsChange.PctChange != 50.0 {
		t.Fatalf("expected views_pct_change 50.0, got %v", viewsChange.PctChange)
	}

	if videos.Summary.TotalNew != 1 || videos.Summary.TotalUpdated != 1 {
		t.Fatalf("expected summary totals 1/1, got %d/%d",
			videos.Summary.TotalNew, videos.Summary.TotalUpdated)
	}
	if videos.Summary.ChangedMetrics["views"] != 1 {
		t.Fatalf("expected one views change in the tally, got %d",
			videos.Summary.ChangedMetrics["views"])
	}
}

func TestCompareVideosComprehensiveNewVideoStats(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{
		{VideoID: "v1", Title: "Debut", Views: 500, Likes: 40, CommentCount: 12},
	}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{ComparisonLevel: domain.ComparisonComprehensive})

	entry := report.Videos.NewVideos[0]
	if entry.Views == nil || *entry.Views != 500 {
		t.Fatalf("expected views stat on comprehensive new video, got %v", entry.Views)
	}
	if entry.Likes == nil || *entry.Likes != 40 {
		t.Fatalf("expected likes stat on comprehensive new video, got %v", entry.Likes)
	}
	if entry.Comments == nil || *entry.Comments != 12 {
		t.Fatalf("expected comments stat on comprehensive new video, got %v", entry.Comments)
	}
}

func TestCompareVideosSmallChangeHasNoPct(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{{VideoID: "v1", Title: "First", Views: 10000}}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{{VideoID: "v1", Title: "First", Views: 10100}}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	change := report.Videos.UpdatedVideos[0].Metrics["views"]
	if change.Diff != 100 {
		t.Fatalf("expected diff 100, got %d", change.Diff)
	}
	if change.PctChange != nil {
		t.Fatalf("expected a 1%% change to carry no pct, got %v", *change.PctChange)
	}
}

func TestCompareVideosTitleChange(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{{VideoID: "v1", Title: "Old Title", Views: 100}}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{{VideoID: "v1", Title: "New Title", Views: 100}}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	change := report.Videos.UpdatedVideos[0]
	if !change.TitleChanged {
		t.Fatalf("expected the title change to be flagged")
	}
	if change.OldTitle != "Old Title" || change.NewTitle != "New Title" {
		t.Fatalf("unexpected title change %q -> %q", change.OldTitle, change.NewTitle)
	}
}

func TestCompareVideosUnchangedVideoOmitted(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	previous := channelSnapshot(now.AddDate(0, 0, -1))
	previous.Videos = []domain.VideoSnapshot{{VideoID: "v1", Title: "Same", Views: 100}}
	current := channelSnapshot(now)
	current.Videos = []domain.VideoSnapshot{{VideoID: "v1", Title: "Same", Views: 100}}

	calc := NewCalculator(nil, zap.NewNop())
	report := calc.Calculate(current, previous, Options{})

	if len(report.Videos.UpdatedVideos) != 0 {
		t.Fatalf("expected no updates for identical videos, got %d",
			len(report.Videos.UpdatedVideos))
	}
	if report.Videos.Summary.TotalUpdated != 0 {
		t.Fatalf("expected total_updated 0, got %d", report.Videos.Summary.TotalUpdated)
	}
}
