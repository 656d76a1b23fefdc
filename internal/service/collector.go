package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/kapu/channelwatch-go/internal/domain"
	apperrors "github.com/kapu/channelwatch-go/pkg/errors"
)

const (
	dailyQuotaLimit   = 10000
	quotaSafetyMargin = 1000

	channelsQuotaCost       = 1 // channels.list
	videosQuotaCost         = 1 // videos.list
	searchQuotaCost         = 100
	commentThreadsQuotaCost = 1

	maxCommentPages = 3
)

// CollectorConfig bounds how much of a channel one snapshot captures.
type CollectorConfig struct {
	MaxVideos           int64
	MaxCommentsPerVideo int64
	CollectComments     bool
	SnapshotConcurrency int
}

func (c *CollectorConfig) withDefaults() {
	if c.MaxVideos <= 0 {
		c.MaxVideos = 10
	}
	if c.MaxCommentsPerVideo <= 0 {
		c.MaxCommentsPerVideo = 100
	}
	if c.SnapshotConcurrency <= 0 {
		c.SnapshotConcurrency = 5
	}
}

// Collector produces Snapshots from the YouTube Data API. Quota is tracked
// against the daily limit with a safety margin; fetches past the margin fail
// fast instead of burning the remaining budget.
type Collector struct {
	service    *youtube.Service
	sentiment  *SentimentService
	logger     *zap.Logger
	config     CollectorConfig
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

// NewCollector builds a collector; sentiment may be nil to skip labeling.
func NewCollector(ctx context.Context, apiKey string, cfg CollectorConfig, sentiment *SentimentService, logger *zap.Logger) (*Collector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}
	cfg.withDefaults()

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	collector := &Collector{
		service:    service,
		sentiment:  sentiment,
		logger:     logger,
		config:     cfg,
		quotaReset: nextQuotaReset(),
	}

	logger.Info("Snapshot collector initialized",
		zap.Int64("max_videos", cfg.MaxVideos),
		zap.Bool("collect_comments", cfg.CollectComments),
		zap.Time("quota_reset", collector.quotaReset))
	return collector, nil
}

// nextQuotaReset is midnight Pacific, when the Data API quota rolls over.
func nextQuotaReset() time.Time {
	pt, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Now().In(pt)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, pt)
}

func (c *Collector) checkQuota(cost int) error {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	if time.Now().After(c.quotaReset) {
		c.quotaUsed = 0
		c.quotaReset = nextQuotaReset()
		c.logger.Info("YouTube API quota reset", zap.Time("next_reset", c.quotaReset))
	}

	if c.quotaUsed+cost > dailyQuotaLimit-quotaSafetyMargin {
		return apperrors.NewAPIError("YouTube API quota exhausted", 429, map[string]any{
			"used":      c.quotaUsed,
			"requested": cost,
			"reset":     c.quotaReset,
		})
	}
	return nil
}

func (c *Collector) consumeQuota(cost int) {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	c.quotaUsed += cost
	remaining := dailyQuotaLimit - c.quotaUsed
	if remaining < quotaSafetyMargin {
		c.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("reset", c.quotaReset))
	}
}

// FetchSnapshot captures a channel's current state: channel statistics,
// recent video statistics, and optionally their comment threads.
func (c *Collector) FetchSnapshot(ctx context.Context, channelID string) (*domain.Snapshot, error) {
	if err := c.checkQuota(channelsQuotaCost); err != nil {
		return nil, err
	}

	resp, err := c.service.Channels.List([]string{"snippet", "statistics"}).
		Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	c.consumeQuota(channelsQuotaCost)

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	item := resp.Items[0]

	snapshot := &domain.Snapshot{
		ChannelID:       channelID,
		ChannelName:     item.Snippet.Title,
		Handle:          item.Snippet.CustomUrl,
		Description:     item.Snippet.Description,
		Country:         item.Snippet.Country,
		SubscriberCount: int64(item.Statistics.SubscriberCount),
		ViewCount:       int64(item.Statistics.ViewCount),
		VideoCount:      int64(item.Statistics.VideoCount),
		FetchedAt:       time.Now().UTC(),
	}
	if published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		snapshot.PublishedAt = published
	}

	videos, err := c.fetchRecentVideos(ctx, channelID)
	if err != nil {
		// A partial snapshot still has value; channel-level metrics stand
		// on their own.
		c.logger.Warn("Failed to fetch videos for snapshot",
			zap.String("channel", channelID),
			zap.Error(err))
	} else {
		snapshot.Videos = videos
	}

	if c.config.CollectComments {
		dedup := newCommentDeduplicator()
		for i := range snapshot.Videos {
			comments, err := c.fetchComments(ctx, channelID, snapshot.Videos[i].VideoID, dedup)
			if err != nil {
				c.logger.Warn("Failed to fetch comments",
					zap.String("video", snapshot.Videos[i].VideoID),
					zap.Error(err))
				continue
			}
			snapshot.Videos[i].Comments = comments
		}

		if c.sentiment != nil {
			c.sentiment.LabelSnapshot(ctx, snapshot)
		}
	}

	c.logger.Debug("Snapshot captured",
		zap.String("channel", channelID),
		zap.Int64("subscribers", snapshot.SubscriberCount),
		zap.Int("videos", len(snapshot.Videos)))
	return snapshot, nil
}

// FetchSnapshots captures several channels concurrently. Failed channels are
// logged and omitted from the result.
func (c *Collector) FetchSnapshots(ctx context.Context, channelIDs []string) map[string]*domain.Snapshot {
	results := make([]*domain.Snapshot, len(channelIDs))
	p := pool.New().WithMaxGoroutines(c.config.SnapshotConcurrency)

	for idx, channelID := range channelIDs {
		idx, channelID := idx, channelID
		p.Go(func() {
			snapshot, err := c.FetchSnapshot(ctx, channelID)
			if err != nil {
				c.logger.Error("Failed to fetch snapshot",
					zap.String("channel", channelID),
					zap.Error(err))
				return
			}
			results[idx] = snapshot
		})
	}
	p.Wait()

	snapshots := make(map[string]*domain.Snapshot, len(channelIDs))
	for idx, snapshot := range results {
		if snapshot != nil {
			snapshots[channelIDs[idx]] = snapshot
		}
	}
	return snapshots
}

func (c *Collector) fetchRecentVideos(ctx context.Context, channelID string) ([]domain.VideoSnapshot, error) {
	if err := c.checkQuota(searchQuotaCost + videosQuotaCost); err != nil {
		return nil, err
	}

	searchResp, err := c.service.Search.List([]string{"id"}).
		ChannelId(channelID).
		Type("video").
		Order("date").
		MaxResults(c.config.MaxVideos).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	c.consumeQuota(searchQuotaCost)

	ids := make([]string, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videosResp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video statistics: %w", err)
	}
	c.consumeQuota(videosQuotaCost)

	videos := make([]domain.VideoSnapshot, 0, len(videosResp.Items))
	for _, item := range videosResp.Items {
		video := domain.VideoSnapshot{
			VideoID:     item.Id,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Tags:        item.Snippet.Tags,
		}
		if item.ContentDetails != nil {
			video.Duration = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			video.Views = int64(item.Statistics.ViewCount)
			video.Likes = int64(item.Statistics.LikeCount)
			video.CommentCount = int64(item.Statistics.CommentCount)
			video.FavoriteCount = int64(item.Statistics.FavoriteCount)
		}
		if published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = published
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// fetchComments pages through a video's comment threads. The deduplicator
// lives for one snapshot fetch only: overlapping pages never produce
// duplicate comments, and nothing is persisted on the snapshot itself.
func (c *Collector) fetchComments(ctx context.Context, channelID, videoID string, dedup *commentDeduplicator) ([]domain.CommentSnapshot, error) {
	var comments []domain.CommentSnapshot
	pageToken := ""

	for page := 0; page < maxCommentPages; page++ {
		if err := c.checkQuota(commentThreadsQuotaCost); err != nil {
			return comments, err
		}

		call := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			Order("time").
			MaxResults(c.config.MaxCommentsPerVideo).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return comments, fmt.Errorf("failed to fetch comment threads: %w", err)
		}
		c.consumeQuota(commentThreadsQuotaCost)

		for _, thread := range resp.Items {
			top := thread.Snippet.TopLevelComment
			if top == nil || top.Snippet == nil {
				continue
			}
			if dedup.seen(videoID, top.Id) {
				continue
			}

			comment := domain.CommentSnapshot{
				CommentID:  top.Id,
				VideoID:    videoID,
				Author:     top.Snippet.AuthorDisplayName,
				Text:       top.Snippet.TextDisplay,
				LikeCount:  top.Snippet.LikeCount,
				ReplyCount: thread.Snippet.TotalReplyCount,
			}
			if top.Snippet.AuthorChannelId != nil {
				comment.IsChannelOwner = top.Snippet.AuthorChannelId.Value == channelID
			}
			comments = append(comments, comment)

			if int64(len(comments)) >= c.config.MaxCommentsPerVideo {
				return comments, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return comments, nil
}

// commentDeduplicator tracks comment ids already seen during one snapshot
// fetch, keyed by video id. It is created and discarded per fetch.
type commentDeduplicator struct {
	byVideo map[string]map[string]struct{}
}

func newCommentDeduplicator() *commentDeduplicator {
	return &commentDeduplicator{byVideo: make(map[string]map[string]struct{})}
}

func (d *commentDeduplicator) seen(videoID, commentID string) bool {
	ids, ok := d.byVideo[videoID]
	if !ok {
		ids = make(map[string]struct{})
		d.byVideo[videoID] = ids
	}
	if _, dup := ids[commentID]; dup {
		return true
	}
	ids[commentID] = struct{}{}
	return false
}
