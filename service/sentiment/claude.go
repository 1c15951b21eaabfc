package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 256

	systemPrompt = `You rate the sentiment of news abstracts about a company.
Split the text into sentences. Rate each sentence on this scale:
-2 very negative, -1 negative, 0 neutral, 1 positive, 2 very positive.
Reply with only a JSON array of integers, one per sentence, in sentence order. Example: [0, -1]`
)

// ClaudeClassifier asks a Claude model for per sentence scores and aggregates them
type ClaudeClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewClaudeClassifier(apiKey, model string, opts ...option.RequestOption) *ClaudeClassifier {
	if model == "" {
		model = DefaultModel
	}

	return &ClaudeClassifier{
		client:    anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
}

func (cc *ClaudeClassifier) Name() string {
	return cc.model
}

func (cc *ClaudeClassifier) Classify(ctx context.Context, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("error classifying sentiment, text is empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cc.model),
		MaxTokens: cc.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Temperature: anthropic.Float(0),
	}

	resp, err := cc.client.Messages.New(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("error calling %s for sentiment: %w", cc.model, err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	scores, err := ParseSentenceScores(reply.String())
	if err != nil {
		return 0, err
	}

	return AggregateSentenceScores(scores)
}

// ParseSentenceScores reads the json array of scores out of a model reply, ignoring any text around it
func ParseSentenceScores(reply string) ([]int, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("error parsing sentence scores, no json array in reply %q", reply)
	}

	var scores []int
	if err := json.Unmarshal([]byte(reply[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("error parsing sentence scores from %q: %w", reply, err)
	}

	for _, s := range scores {
		if err := ValidateScore(s); err != nil {
			return nil, err
		}
	}

	return scores, nil
}
