package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/genchat"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ genchat.Provider = (*Client)(nil)

// Client implements [genchat.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.0-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", genchat.ErrNoCredential)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [genchat.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	contents, err := ConvertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	tools, err := ConvertTools(req.Tools)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	config := buildConfig(req, tools)

	iter := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return NewStreamFromIter(ctx, iter), nil
}

func buildConfig(req genchat.Request, tools []*genai.Tool) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           tools,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
		},
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts genchat Messages to genai Contents.
// Exported for testing.
func ConvertMessages(msgs []genchat.Message) ([]*genai.Content, error) {
	var result []*genai.Content
	for _, msg := range msgs {
		switch m := msg.(type) {
		case genchat.UserMessage:
			parts, err := convertParts(m.Content)
			if err != nil {
				return nil, err
			}
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: parts,
			})
		case genchat.AssistantMessage:
			parts, err := convertParts(m.Content)
			if err != nil {
				return nil, err
			}
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: parts,
			})
		case genchat.ToolResultMessage:
			text := extractText(m.Content)
			var responseMap map[string]any
			if m.IsError {
				responseMap = map[string]any{"error": text}
			} else {
				responseMap = map[string]any{"output": text}
			}
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     m.ToolName,
						Response: responseMap,
					},
				}},
			})
		}
	}
	return result, nil
}

func convertParts(blocks []genchat.ContentBlock) ([]*genai.Part, error) {
	var parts []*genai.Part
	for _, b := range blocks {
		switch bl := b.(type) {
		case genchat.TextBlock:
			parts = append(parts, &genai.Part{Text: bl.Text})
		case genchat.ThinkingBlock:
			p := &genai.Part{Text: bl.Thinking, Thought: true}
			if bl.Signature != nil {
				p.ThoughtSignature = bl.Signature
			}
			parts = append(parts, p)
		case genchat.ToolCallBlock:
			var args map[string]any
			if err := json.Unmarshal(bl.Arguments, &args); err != nil {
				return nil, fmt.Errorf("tool call %q arguments: %s: %w", bl.Name, err, genchat.ErrValidation)
			}
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   bl.ID,
					Name: bl.Name,
					Args: args,
				},
			})
		}
	}
	return parts, nil
}

// extractText returns the text of the first TextBlock, or empty string if none.
func extractText(blocks []genchat.ContentBlock) string {
	for _, b := range blocks {
		if tb, ok := b.(genchat.TextBlock); ok {
			return tb.Text
		}
	}
	return ""
}

// ConvertTools converts genchat Tools to genai Tools.
// Exported for testing.
func ConvertTools(tools []genchat.Tool) ([]*genai.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("tool %q parameters: %s: %w", t.Name, err, genchat.ErrValidation)
		}
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}
