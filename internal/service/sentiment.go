package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/internal/util"
	apperrors "github.com/kapu/channelwatch-go/pkg/errors"
)

const (
	sentimentBatchSize    = 50
	defaultSentimentModel = "gemini-2.5-flash"

	sentimentPositive = "positive"
	sentimentNeutral  = "neutral"
	sentimentNegative = "negative"
)

// SentimentService labels comment sentiment with Gemini. Labeling is best
// effort: any API failure leaves comments unlabeled and the snapshot intact.
type SentimentService struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewSentimentService(ctx context.Context, apiKey, model string, logger *zap.Logger) (*SentimentService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultSentimentModel
	}

	logger.Info("Sentiment service initialized", zap.String("model", model))
	return &SentimentService{client: client, model: model, logger: logger}, nil
}

// LabelSnapshot labels every unlabeled comment in the snapshot and fills in
// the sentiment summary.
func (s *SentimentService) LabelSnapshot(ctx context.Context, snapshot *domain.Snapshot) {
	var pending []*domain.CommentSnapshot
	for i := range snapshot.Videos {
		video := &snapshot.Videos[i]
		for j := range video.Comments {
			if video.Comments[j].Sentiment == "" {
				pending = append(pending, &video.Comments[j])
			}
		}
	}

	for start := 0; start < len(pending); start += sentimentBatchSize {
		end := start + sentimentBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := s.labelBatch(ctx, pending[start:end]); err != nil {
			s.logger.Warn("Sentiment labeling failed, leaving batch unlabeled",
				zap.Int("batch_start", start),
				zap.Error(err))
		}
	}

	snapshot.Sentiment = summarize(snapshot)
}

func (s *SentimentService) labelBatch(ctx context.Context, comments []*domain.CommentSnapshot) error {
	var b strings.Builder
	b.WriteString("Classify the sentiment of each numbered YouTube comment as exactly one of: positive, neutral, negative.\n")
	b.WriteString("Reply with one line per comment in the form \"<number>: <label>\" and nothing else.\n\n")
	for i, comment := range comments {
		text := util.TruncateString(comment.Text, 300)
		fmt.Fprintf(&b, "%d: %s\n", i+1, strings.ReplaceAll(text, "\n", " "))
	}

	temp := float32(0)
	resp, err := s.client.Models.GenerateContent(ctx, s.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: b.String()}}},
	}, &genai.GenerateContentConfig{Temperature: &temp})
	if err != nil {
		return apperrors.NewServiceError("sentiment labeling failed", "gemini", "generate_content", err)
	}

	text := extractResponseText(resp)
	if text == "" {
		return fmt.Errorf("empty response from Gemini")
	}

	labeled := 0
	for _, line := range strings.Split(text, "\n") {
		idx, label, ok := parseSentimentLine(line)
		if !ok || idx < 1 || idx > len(comments) {
			continue
		}
		comments[idx-1].Sentiment = label
		labeled++
	}

	s.logger.Debug("Comment batch labeled",
		zap.Int("comments", len(comments)),
		zap.Int("labeled", labeled))
	return nil
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}

func parseSentimentLine(line string) (int, string, bool) {
	parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, "", false
	}

	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case sentimentPositive:
		return idx, sentimentPositive, true
	case sentimentNeutral:
		return idx, sentimentNeutral, true
	case sentimentNegative:
		return idx, sentimentNegative, true
	}
	return 0, "", false
}

// summarize tallies labeled comments; positive counts +1 and negative -1
// toward the average score.
func summarize(snapshot *domain.Snapshot) *domain.SentimentSummary {
	summary := &domain.SentimentSummary{}
	total := 0
	score := 0

	for i := range snapshot.Videos {
		for _, comment := range snapshot.Videos[i].Comments {
			switch comment.Sentiment {
			case sentimentPositive:
				summary.Positive++
				score++
			case sentimentNeutral:
				summary.Neutral++
			case sentimentNegative:
				summary.Negative++
				score--
			default:
				continue
			}
			total++
		}
	}

	if total > 0 {
		summary.AverageScore = float64(score) / float64(total)
	}
	return summary
}
