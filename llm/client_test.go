package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/Vazimax/BuyMin/config"
)

// fakeModel is an llms.Model that returns a canned response and records the
// messages it was sent.
type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	options  llms.CallOptions
	nopts    int
	calls    int
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.messages = messages
	m.options = llms.CallOptions{}
	m.nopts = len(options)
	for _, opt := range options {
		opt(&m.options)
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func reply(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content, StopReason: "stop"}}}
}

func TestExtractRecords(t *testing.T) {
	model := &fakeModel{resp: reply(`[{"name":"Milk","category":"Dairy","price":2.5,"supermarket":"Acme"}]`)}
	client := New(model, Config{}, nil)

	records, err := client.ExtractRecords(context.Background(), "Milk 2.50 Acme")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"name":"Milk","category":"Dairy","price":2.5,"supermarket":"Acme"}`, string(records[0]))

	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
	text, ok := model.messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Extract the product names, categories, and prices")
	assert.Contains(t, text.Text, "Milk 2.50 Acme")
}

func TestExtractRecords_NonJSONReply(t *testing.T) {
	model := &fakeModel{resp: reply("Here are the products I found: milk, bread.")}
	client := New(model, Config{}, nil)

	records, err := client.ExtractRecords(context.Background(), "chunk")
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.Empty(t, records)
	assert.Equal(t, 1, model.calls)
}

func TestExtractRecords_TransportErrorIsNotRetried(t *testing.T) {
	model := &fakeModel{err: errors.New("401 unauthorized")}
	client := New(model, Config{}, nil)

	records, err := client.ExtractRecords(context.Background(), "chunk")
	assert.ErrorContains(t, err, "401 unauthorized")
	assert.Empty(t, records)
	assert.Equal(t, 1, model.calls)
}

func TestComplete_EmptyResponses(t *testing.T) {
	client := New(&fakeModel{resp: &llms.ContentResponse{}}, Config{}, nil)
	_, err := client.Complete(context.Background(), "chunk")
	assert.ErrorIs(t, err, ErrNoChoices)

	client = New(&fakeModel{resp: reply("  \n")}, Config{}, nil)
	_, err = client.Complete(context.Background(), "chunk")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestComplete_StopReason(t *testing.T) {
	client := New(&fakeModel{resp: reply("[]")}, Config{}, nil)

	c, err := client.Complete(context.Background(), "chunk")
	require.NoError(t, err)
	assert.Equal(t, Completion{Content: "[]", StopReason: "stop"}, c)
}

func TestComplete_CallOptions(t *testing.T) {
	zero := 0.0
	model := &fakeModel{resp: reply("[]")}
	client := New(model, Config{Temperature: &zero, MaxTokens: 512}, nil)

	_, err := client.Complete(context.Background(), "chunk")
	require.NoError(t, err)
	assert.Equal(t, 2, model.nopts, "a zero temperature is still sent")
	assert.Equal(t, 0.0, model.options.Temperature)
	assert.Equal(t, 512, model.options.MaxTokens)

	model = &fakeModel{resp: reply("[]")}
	client = New(model, Config{}, nil)
	_, err = client.Complete(context.Background(), "chunk")
	require.NoError(t, err)
	assert.Zero(t, model.nopts)
}

func TestNewOpenAI_PassesTuning(t *testing.T) {
	temp := 0.0
	client, err := NewOpenAI(config.LLMConfig{
		APIKey:            "sk-test",
		Model:             "gpt-4",
		Temperature:       &temp,
		MaxTokens:         1024,
		RequestsPerMinute: 30,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, client.cfg.Temperature)
	assert.Equal(t, 0.0, *client.cfg.Temperature)
	assert.Equal(t, 1024, client.cfg.MaxTokens)
	assert.Equal(t, 30, client.cfg.RequestsPerMinute)
}

func TestComplete_RateLimitHonorsContext(t *testing.T) {
	model := &fakeModel{resp: reply("[]")}
	client := New(model, Config{RequestsPerMinute: 1}, nil)

	_, err := client.Complete(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Complete(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, 1, model.calls)
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(config.LLMConfig{Model: "gpt-4"}, nil)
	assert.Error(t, err)

	client, err := NewOpenAI(config.LLMConfig{APIKey: "sk-test", Model: "gpt-4", BaseURL: "http://localhost:9/v1"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
