// Package commentary asks a chat completion model for a one-line remark
// about a finished round.
package commentary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/lox/scorepad/internal/round"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a witty commentator at a friendly four-player card table. " +
	"Reply with one short sentence, no more than 30 words, teasing the losers and praising the winner. " +
	"Never mention points or numbers."

// Config configures a Commentator.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int64
}

// Commentator implements round.Commentator with the OpenAI chat API.
type Commentator struct {
	client    openai.Client
	model     string
	maxTokens int64
	logger    zerolog.Logger
}

// New creates a Commentator. Requests are never retried.
func New(logger zerolog.Logger, cfg Config) (*Commentator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("commentary api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 80
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Commentator{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With().Str("component", "commentary").Logger(),
	}, nil
}

// Prompt renders the user message for a round.
func Prompt(names []string, winner string) string {
	return fmt.Sprintf("The players were %s. %s won this round. Say something about it.",
		strings.Join(names, ", "), winner)
}

// Comment implements round.Commentator. An empty reply is not an error.
func (c *Commentator) Comment(ctx context.Context, names []string, winner string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(Prompt(names, winner)),
		},
		MaxCompletionTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn().Str("model", c.model).Msg("completion returned no choices")
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ round.Commentator = (*Commentator)(nil)
