package domain

import "time"

type ComparisonLevel string

const (
	ComparisonBasic         ComparisonLevel = "basic"
	ComparisonStandard      ComparisonLevel = "standard"
	ComparisonComprehensive ComparisonLevel = "comprehensive"
)

// FieldChange records one channel-level field comparison. Numeric fields
// carry Diff = New - Old; text fields carry only the old/new pair.
type FieldChange struct {
	Old  any      `json:"old,omitempty"`
	New  any      `json:"new,omitempty"`
	Diff *float64 `json:"diff,omitempty"`
}

type KeywordChange struct {
	Keyword string `json:"keyword"`
	Action  string `json:"action"` // "added" or "removed"
	Context string `json:"context,omitempty"`
	Field   string `json:"field,omitempty"` // source field, set on aggregated entries
}

type SignificantChange struct {
	Field     string  `json:"field"`
	Old       any     `json:"old,omitempty"`
	New       any     `json:"new,omitempty"`
	PctChange float64 `json:"pct_change,omitempty"`
	Severity  string  `json:"significance"` // "high" or "medium"
	Reason    string  `json:"reason,omitempty"`
}

// MetricChange is a per-video numeric metric comparison. PctChange is set
// only when the magnitude reaches the reporting floor.
type MetricChange struct {
	Old       int64    `json:"old"`
	New       int64    `json:"new"`
	Diff      int64    `json:"diff"`
	PctChange *float64 `json:"pct_change,omitempty"`
}

type NewVideo struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Views       *int64    `json:"views,omitempty"`
	Likes       *int64    `json:"likes,omitempty"`
	Comments    *int64    `json:"comments,omitempty"`
}

type VideoChange struct {
	VideoID            string                  `json:"video_id"`
	Title              string                  `json:"title"`
	Metrics            map[string]MetricChange `json:"metrics,omitempty"`
	TitleChanged       bool                    `json:"title_changed,omitempty"`
	OldTitle           string                  `json:"old_title,omitempty"`
	NewTitle           string                  `json:"new_title,omitempty"`
	DescriptionChanged bool                    `json:"description_changed,omitempty"`
	TagsChanged        bool                    `json:"tags_changed,omitempty"`

	// Extra-field comparisons, present only under comprehensive comparison.
	ExtraChanges map[string]FieldChange `json:"extra_changes,omitempty"`
}

type VideoDeltaSummary struct {
	TotalNew       int            `json:"total_new"`
	TotalUpdated   int            `json:"total_updated"`
	ChangedMetrics map[string]int `json:"changed_metrics,omitempty"`
}

type VideoDelta struct {
	NewVideos     []NewVideo        `json:"new_videos,omitempty"`
	UpdatedVideos []VideoChange     `json:"updated_videos,omitempty"`
	Summary       VideoDeltaSummary `json:"summary"`
}

type SignificantComment struct {
	CommentID      string   `json:"comment_id"`
	VideoID        string   `json:"video_id"`
	Author         string   `json:"author,omitempty"`
	Text           string   `json:"text"`
	LikeCount      int64    `json:"like_count"`
	ReplyCount     int64    `json:"reply_count"`
	IsChannelOwner bool     `json:"is_channel_owner,omitempty"`
	Factors        []string `json:"factors"`
}

type CommentDelta struct {
	NewComments           int                  `json:"new_comments"`
	VideosWithNewComments int                  `json:"videos_with_new_comments"`
	SignificantNew        []SignificantComment `json:"significant_new,omitempty"`
}

type CountChange struct {
	Old  int `json:"old"`
	New  int `json:"new"`
	Diff int `json:"diff"`
}

type SentimentTransition struct {
	CommentID    string `json:"comment_id"`
	VideoID      string `json:"video_id"`
	OldSentiment string `json:"old_sentiment"`
	NewSentiment string `json:"new_sentiment"`
	Text         string `json:"text,omitempty"`
}

type SentimentDelta struct {
	Positive    CountChange           `json:"positive"`
	Neutral     CountChange           `json:"neutral"`
	Negative    CountChange           `json:"negative"`
	ScoreChange float64               `json:"score_change"`
	Transitions []SentimentTransition `json:"transitions,omitempty"`
}

// DeltaReport is the current snapshot enriched with everything that changed
// relative to the previous one.
type DeltaReport struct {
	Current *Snapshot `json:"current"`

	ChannelID       string          `json:"channel_id"`
	ComparisonLevel ComparisonLevel `json:"comparison_level"`
	CurrentAt       time.Time       `json:"current_at"`
	PreviousAt      time.Time       `json:"previous_at,omitempty"`

	Channel   map[string]FieldChange     `json:"channel_changes,omitempty"`
	Keywords  map[string][]KeywordChange `json:"keyword_changes,omitempty"`
	Videos    *VideoDelta                `json:"video_delta,omitempty"`
	Comments  *CommentDelta              `json:"comment_delta,omitempty"`
	Sentiment *SentimentDelta            `json:"sentiment_delta,omitempty"`

	SignificantChanges []SignificantChange `json:"significant_changes,omitempty"`

	// Filled in by trend enrichment, keyed by metric name.
	TrendAnalysis          map[string]*MetricAnalysis `json:"trend_analysis,omitempty"`
	HasThresholdViolations bool                       `json:"has_threshold_violations,omitempty"`
}
