package domain

import "time"

// Snapshot captures the state of a channel at one fetch time, including the
// videos and comments that were visible at that moment.
type Snapshot struct {
	ChannelID       string    `json:"channel_id"`
	ChannelName     string    `json:"channel_name"`
	Handle          string    `json:"handle,omitempty"`
	Description     string    `json:"channel_description,omitempty"`
	Country         string    `json:"country,omitempty"`
	SubscriberCount int64     `json:"subscribers"`
	ViewCount       int64     `json:"views"`
	VideoCount      int64     `json:"total_videos"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
	FetchedAt       time.Time `json:"fetched_at"`

	Videos    []VideoSnapshot   `json:"videos,omitempty"`
	Sentiment *SentimentSummary `json:"sentiment,omitempty"`

	// Extra carries provider fields outside the declared set. Comprehensive
	// comparisons union these keys across both snapshots.
	Extra map[string]any `json:"extra,omitempty"`
}

type VideoSnapshot struct {
	VideoID       string    `json:"video_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	PublishedAt   time.Time `json:"published_at,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Views         int64     `json:"views"`
	Likes         int64     `json:"likes"`
	CommentCount  int64     `json:"comments"`
	DislikeCount  int64     `json:"dislikes,omitempty"`
	FavoriteCount int64     `json:"favorites,omitempty"`

	Comments []CommentSnapshot `json:"comment_items,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

type CommentSnapshot struct {
	CommentID      string `json:"comment_id"`
	VideoID        string `json:"video_id"`
	Author         string `json:"author,omitempty"`
	Text           string `json:"text"`
	LikeCount      int64  `json:"like_count"`
	Sentiment      string `json:"sentiment,omitempty"` // "positive", "neutral", "negative"
	IsChannelOwner bool   `json:"is_channel_owner,omitempty"`
	ReplyCount     int64  `json:"reply_count"`
}

type SentimentSummary struct {
	Positive     int     `json:"positive"`
	Neutral      int     `json:"neutral"`
	Negative     int     `json:"negative"`
	AverageScore float64 `json:"average_score"`
}

// NumericField returns the named channel-level scalar metric. Unknown or
// non-numeric fields coerce to 0 rather than failing.
func (s *Snapshot) NumericField(name string) float64 {
	switch name {
	case "subscribers":
		return float64(s.SubscriberCount)
	case "views":
		return float64(s.ViewCount)
	case "total_videos":
		return float64(s.VideoCount)
	}
	return coerceFloat(s.Extra[name])
}

// TextField returns the named channel-level text field and whether the field
// belongs to the declared set.
func (s *Snapshot) TextField(name string) (string, bool) {
	switch name {
	case "channel_name":
		return s.ChannelName, true
	case "handle":
		return s.Handle, true
	case "channel_description":
		return s.Description, true
	case "country":
		return s.Country, true
	}
	if v, ok := s.Extra[name]; ok {
		if str, ok := v.(string); ok {
			return str, true
		}
	}
	return "", false
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}
