package delta

import (
	"sort"

	"github.com/kapu/channelwatch-go/internal/domain"
)

const (
	significantLikeCount  = 10
	significantTextLength = 200
	significantReplyCount = 5
	maxSignificantNew     = 5
)

// compareComments counts comments whose id is new relative to the previous
// snapshot. Under comprehensive comparison the most notable new comments are
// kept, capped and ordered by like count.
func (c *Calculator) compareComments(current, previous *domain.Snapshot, opts Options) *domain.CommentDelta {
	prevIDs := make(map[string]map[string]struct{}, len(previous.Videos))
	for i := range previous.Videos {
		video := &previous.Videos[i]
		ids := make(map[string]struct{}, len(video.Comments))
		for _, comment := range video.Comments {
			ids[comment.CommentID] = struct{}{}
		}
		prevIDs[video.VideoID] = ids
	}

	comprehensive := opts.ComparisonLevel == domain.ComparisonComprehensive
	result := &domain.CommentDelta{}
	var candidates []domain.SignificantComment
	sawComments := false

	for i := range current.Videos {
		video := &current.Videos[i]
		if len(video.Comments) > 0 {
			sawComments = true
		}

		known := prevIDs[video.VideoID]
		newInVideo := 0
		for _, comment := range video.Comments {
			if known != nil {
				if _, seen := known[comment.CommentID]; seen {
					continue
				}
			}
			newInVideo++

			if comprehensive {
				if factors := significanceFactors(&comment); len(factors) > 0 {
					candidates = append(candidates, domain.SignificantComment{
						CommentID:      comment.CommentID,
						VideoID:        video.VideoID,
						Author:         comment.Author,
						Text:           comment.Text,
						LikeCount:      comment.LikeCount,
						ReplyCount:     comment.ReplyCount,
						IsChannelOwner: comment.IsChannelOwner,
						Factors:        factors,
					})
				}
			}
		}

		result.NewComments += newInVideo
		if newInVideo > 0 {
			result.VideosWithNewComments++
		}
	}

	if !sawComments && len(prevIDs) == 0 {
		return nil
	}

	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].LikeCount > candidates[j].LikeCount
		})
		if len(candidates) > maxSignificantNew {
			candidates = candidates[:maxSignificantNew]
		}
		result.SignificantNew = candidates
	}

	return result
}

func significanceFactors(comment *domain.CommentSnapshot) []string {
	var factors []string
	if comment.LikeCount >= significantLikeCount {
		factors = append(factors, "high_likes")
	}
	if comment.IsChannelOwner {
		factors = append(factors, "channel_owner")
	}
	if len(comment.Text) > significantTextLength {
		factors = append(factors, "long_text")
	}
	if comment.ReplyCount >= significantReplyCount {
		factors = append(factors, "high_replies")
	}
	return factors
}

// compareSentiment diffs category counts and average score, treating an
// absent summary as zeros, and records per-comment sentiment transitions.
func (c *Calculator) compareSentiment(current, previous *domain.Snapshot) *domain.SentimentDelta {
	if current.Sentiment == nil && previous.Sentiment == nil {
		return nil
	}

	cur := current.Sentiment
	if cur == nil {
		cur = &domain.SentimentSummary{}
	}
	prev := previous.Sentiment
	if prev == nil {
		prev = &domain.SentimentSummary{}
	}

	result := &domain.SentimentDelta{
		Positive:    countChange(prev.Positive, cur.Positive),
		Neutral:     countChange(prev.Neutral, cur.Neutral),
		Negative:    countChange(prev.Negative, cur.Negative),
		ScoreChange: cur.AverageScore - prev.AverageScore,
	}

	prevSentiments := make(map[string]*domain.CommentSnapshot)
	for i := range previous.Videos {
		video := &previous.Videos[i]
		for j := range video.Comments {
			prevSentiments[video.Comments[j].CommentID] = &video.Comments[j]
		}
	}

	for i := range current.Videos {
		video := &current.Videos[i]
		for _, comment := range video.Comments {
			old, ok := prevSentiments[comment.CommentID]
			if !ok || old.Sentiment == comment.Sentiment {
				continue
			}
			if old.Sentiment == "" || comment.Sentiment == "" {
				continue
			}
			result.Transitions = append(result.Transitions, domain.SentimentTransition{
				CommentID:    comment.CommentID,
				VideoID:      video.VideoID,
				OldSentiment: old.Sentiment,
				NewSentiment: comment.Sentiment,
				Text:         comment.Text,
			})
		}
	}

	return result
}

func countChange(old, new int) domain.CountChange {
	return domain.CountChange{Old: old, New: new, Diff: new - old}
}
