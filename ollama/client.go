package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/genchat"
)

// Interface compliance check.
var _ genchat.Provider = (*Client)(nil)

// Client implements [genchat.Provider] for the Ollama chat API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the server base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithModel sets the model name. Default is qwen3:0.6b.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Ollama [Client]. No credential is required: the server
// is assumed to run locally.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// chatRequest is the /api/chat request body.
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stream sends a streaming chat request and returns a [genchat.Stream].
func (c *Client) Stream(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	if len(req.Tools) > 0 {
		return nil, fmt.Errorf("ollama: tools are not supported: %w", genchat.ErrValidation)
	}

	msgs, err := convertMessages(req.SystemPrompt, req.Messages)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	body := chatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   true,
	}
	if req.MaxTokens > 0 || req.Temperature != nil {
		body.Options = map[string]any{}
		if req.MaxTokens > 0 {
			body.Options["num_predict"] = req.MaxTokens
		}
		if req.Temperature != nil {
			body.Options["temperature"] = *req.Temperature
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	return newStream(ctx, resp.Body), nil
}

func convertMessages(systemPrompt string, msgs []genchat.Message) ([]chatMessage, error) {
	var result []chatMessage
	if systemPrompt != "" {
		result = append(result, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range msgs {
		switch m := msg.(type) {
		case genchat.UserMessage:
			result = append(result, chatMessage{Role: "user", Content: blockText(m.Content)})
		case genchat.AssistantMessage:
			// Thinking blocks are not replayed to the model.
			result = append(result, chatMessage{Role: "assistant", Content: m.Text()})
		default:
			return nil, fmt.Errorf("unsupported message type %T: %w", msg, genchat.ErrValidation)
		}
	}
	return result, nil
}

func blockText(blocks []genchat.ContentBlock) string {
	var out string
	for _, b := range blocks {
		if tb, ok := b.(genchat.TextBlock); ok {
			out += tb.Text
		}
	}
	return out
}
