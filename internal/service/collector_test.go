package service

import "testing"

func TestCommentDeduplicatorScopedPerVideo(t *testing.T) {
	dedup := newCommentDeduplicator()

	if dedup.seen("v1", "c1") {
		t.Fatalf("expected the first occurrence to be unseen")
	}
	if !dedup.seen("v1", "c1") {
		t.Fatalf("expected the second occurrence to be a duplicate")
	}
	if dedup.seen("v2", "c1") {
		t.Fatalf("expected the same comment id under another video to be unseen")
	}
}

func TestCommentDeduplicatorFreshInstance(t *testing.T) {
	first := newCommentDeduplicator()
	first.seen("v1", "c1")

	second := newCommentDeduplicator()
	if second.seen("v1", "c1") {
		t.Fatalf("expected a new deduplicator to carry no prior state")
	}
}

func TestCollectorConfigDefaults(t *testing.T) {
	cfg := CollectorConfig{}
	cfg.withDefaults()

	if cfg.MaxVideos != 10 {
		t.Fatalf("expected default max videos 10, got %d", cfg.MaxVideos)
	}
	if cfg.MaxCommentsPerVideo != 100 {
		t.Fatalf("expected default max comments 100, got %d", cfg.MaxCommentsPerVideo)
	}
	if cfg.SnapshotConcurrency != 5 {
		t.Fatalf("expected default concurrency 5, got %d", cfg.SnapshotConcurrency)
	}
}

func TestCollectorConfigKeepsExplicitValues(t *testing.T) {
	cfg := CollectorConfig{MaxVideos: 3, MaxCommentsPerVideo: 20, SnapshotConcurrency: 2}
	cfg.withDefaults()

	if cfg.MaxVideos != 3 || cfg.MaxCommentsPerVideo != 20 || cfg.SnapshotConcurrency != 2 {
		t.Fatalf("expected explicit values to be kept, got %+v", cfg)
	}
}
