package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"

	"github.com/Vazimax/BuyMin/config"
	"github.com/Vazimax/BuyMin/logger"
)

const systemPrompt = "You are an assistant that helps parse grocery brochures."

const userPrompt = `Extract the product names, categories, and prices from the following text.
Answer with a JSON array only. Each element must be an object with the keys
"name", "category", "price" (a number) and "supermarket".

%s`

var (
	// ErrNoChoices means the service answered without any completion.
	ErrNoChoices = errors.New("no response choices returned")
	// ErrEmptyReply means the completion carried no content.
	ErrEmptyReply = errors.New("empty completion content")
)

// Completion is the part of a chat-completion reply we rely on.
type Completion struct {
	Content    string
	StopReason string
}

// Config tunes a Client.
type Config struct {
	Temperature       *float64 // nil leaves the provider default
	MaxTokens         int      // 0 leaves the provider default
	RequestsPerMinute int      // 0 disables rate limiting
}

// Client asks a chat model to turn brochure text into candidate records.
type Client struct {
	model   llms.Model
	cfg     Config
	limiter *rate.Limiter
	log     *slog.Logger
}

// New wraps any langchaingo model. The logger may be nil.
func New(model llms.Model, cfg Config, log *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &Client{
		model:   model,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Or(log).With("component", "llm"),
	}
}

// NewOpenAI builds a Client backed by an OpenAI-compatible chat API.
// The API key comes from configuration only.
func NewOpenAI(cfg config.LLMConfig, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key not configured")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create openai client: %w", err)
	}
	return New(model, Config{
		Temperature:       cfg.Temperature,
		MaxTokens:         cfg.MaxTokens,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, log), nil
}

// Complete sends one chunk with the extraction prompt and returns the reply.
func (c *Client) Complete(ctx context.Context, chunk string) (Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf("rate limit wait: %w", err)
	}

	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(userPrompt, chunk))},
		},
	}

	var opts []llms.CallOption
	if c.cfg.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*c.cfg.Temperature))
	}
	if c.cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.cfg.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return Completion{}, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return Completion{}, ErrNoChoices
	}

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Content) == "" {
		return Completion{}, ErrEmptyReply
	}
	return Completion{Content: choice.Content, StopReason: choice.StopReason}, nil
}

// ExtractRecords structures one chunk. Any failure, from transport to JSON
// decoding, is logged and returned; callers treat it as zero records for the
// chunk and move on. Nothing is retried.
func (c *Client) ExtractRecords(ctx context.Context, chunk string) ([]Candidate, error) {
	reqID := uuid.New().String()
	start := time.Now()

	c.log.Info("Structuring chunk", "req_id", reqID, "chunk_len", len(chunk))

	completion, err := c.Complete(ctx, chunk)
	if err != nil {
		c.log.Error("Error with LLM API", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	c.log.Debug("LLM response", "req_id", reqID, "stop_reason", completion.StopReason,
		"content", completion.Content)

	records, err := ParseResponse(completion.Content)
	if err != nil {
		c.log.Warn("Failed to parse LLM output as JSON", "req_id", reqID, "error", err,
			"raw_response", completion.Content)
		return nil, err
	}

	c.log.Info("Chunk structured", "req_id", reqID, "records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds())
	return records, nil
}
