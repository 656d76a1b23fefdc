package delta

import (
	"fmt"
	"math"
	"strings"

	"github.com/kapu/channelwatch-go/internal/domain"
)

// Percentage changes below this magnitude are not worth reporting per video.
const videoPctFloor = 5.0

var videoMetrics = []string{"views", "likes", "comments", "dislikes", "favorites"}

func videoMetricValue(v *domain.VideoSnapshot, metric string) int64 {
	switch metric {
	case "views":
		return v.Views
	case "likes":
		return v.Likes
	case "comments":
		return v.CommentCount
	case "dislikes":
		return v.DislikeCount
	case "favorites":
		return v.FavoriteCount
	}
	return 0
}

// compareVideos matches videos by id: unmatched current videos become
// new-video entries, matched ones get per-metric and text comparisons.
func (c *Calculator) compareVideos(current, previous *domain.Snapshot, opts Options) *domain.VideoDelta {
	if len(current.Videos) == 0 && len(previous.Videos) == 0 {
		return nil
	}

	prevByID := make(map[string]*domain.VideoSnapshot, len(previous.Videos))
	for i := range previous.Videos {
		prevByID[previous.Videos[i].VideoID] = &previous.Videos[i]
	}

	comprehensive := opts.ComparisonLevel == domain.ComparisonComprehensive
	result := &domain.VideoDelta{
		Summary: domain.VideoDeltaSummary{ChangedMetrics: make(map[string]int)},
	}

	for i := range current.Videos {
		video := &current.Videos[i]
		prev, matched := prevByID[video.VideoID]
		if !matched {
			entry := domain.NewVideo{
				VideoID:     video.VideoID,
				Title:       video.Title,
				PublishedAt: video.PublishedAt,
			}
			if comprehensive {
				views, likes, comments := video.Views, video.Likes, video.CommentCount
				entry.Views = &views
				entry.Likes = &likes
				entry.Comments = &comments
			}
			result.NewVideos = append(result.NewVideos, entry)
			continue
		}

		if change := c.compareVideo(video, prev, comprehensive, result.Summary.ChangedMetrics); change != nil {
			result.UpdatedVideos = append(result.UpdatedVideos, *change)
		}
	}

	result.Summary.TotalNew = len(result.NewVideos)
	result.Summary.TotalUpdated = len(result.UpdatedVideos)
	if len(result.Summary.ChangedMetrics) == 0 {
		result.Summary.ChangedMetrics = nil
	}
	return result
}

func (c *Calculator) compareVideo(video, prev *domain.VideoSnapshot, comprehensive bool, tally map[string]int) *domain.VideoChange {
	change := &domain.VideoChange{
		VideoID: video.VideoID,
		Title:   video.Title,
	}
	changed := false

	for _, metric := range videoMetrics {
		oldVal := videoMetricValue(prev, metric)
		newVal := videoMetricValue(video, metric)
		if oldVal == newVal {
			continue
		}

		entry := domain.MetricChange{Old: oldVal, New: newVal, Diff: newVal - oldVal}
		if oldVal != 0 {
			pct := float64(newVal-oldVal) / float64(oldVal) * 100
			if math.Abs(pct) >= videoPctFloor {
				entry.PctChange = &pct
			}
		}

		if change.Metrics == nil {
			change.Metrics = make(map[string]domain.MetricChange)
		}
		change.Metrics[metric] = entry
		tally[metric]++
		changed = true
	}

	if video.Title != prev.Title {
		change.TitleChanged = true
		change.OldTitle = prev.Title
		change.NewTitle = video.Title
		changed = true
	}
	if video.Description != prev.Description {
		change.DescriptionChanged = true
		changed = true
	}
	if strings.Join(video.Tags, ",") != strings.Join(prev.Tags, ",") {
		change.TagsChanged = true
		changed = true
	}

	if comprehensive {
		if extra := compareVideoExtra(video.Extra, prev.Extra); len(extra) > 0 {
			change.ExtraChanges = extra
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return change
}

func compareVideoExtra(current, previous map[string]any) map[string]domain.FieldChange {
	var changes map[string]domain.FieldChange
	record := func(key string, fc domain.FieldChange) {
		if changes == nil {
			changes = make(map[string]domain.FieldChange)
		}
		changes[key] = fc
	}

	for key := range union(current, previous) {
		if strings.HasPrefix(key, internalPrefix) {
			continue
		}
		curVal, inCur := current[key]
		prevVal, inPrev := previous[key]

		switch {
		case inCur && !inPrev:
			record(key+"_new", domain.FieldChange{New: curVal})
		case inPrev && !inCur:
			record(key+"_unchanged", domain.FieldChange{Old: prevVal})
		default:
			oldNum, oldIsNum := asNumber(prevVal)
			newNum, newIsNum := asNumber(curVal)
			if oldIsNum && newIsNum {
				if oldNum != newNum {
					diff := newNum - oldNum
					record(key, domain.FieldChange{Old: oldNum, New: newNum, Diff: &diff})
				}
			} else if fmt.Sprint(prevVal) != fmt.Sprint(curVal) {
				record(key, domain.FieldChange{Old: prevVal, New: curVal})
			}
		}
	}
	return changes
}
