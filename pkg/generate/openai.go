package generate

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptmap/promptmap/pkg/errors"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.GPT4oMini

// systemPrompt pins the model to the exact wire shape the validator accepts.
const systemPrompt = `You generate mindmaps as JSON. Respond with a single JSON object of the exact shape:
{"Mindmap": {"text": "<root topic>", "children": [{"text": "<subtopic>", "children": [...]}]}}
Rules:
- "Mindmap" is the only top-level key.
- Every node has a non-empty "text"; "children" is optional.
- At most 4 levels deep, at most 5 children per node.
- Output JSON only, no prose and no code fences.`

// OpenAI generates mindmap JSON with an OpenAI-compatible chat completion
// endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// OpenAIOption configures the OpenAI generator.
type OpenAIOption func(*OpenAI)

// WithModel overrides the chat model.
func WithModel(model string) OpenAIOption {
	return func(g *OpenAI) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL points the client at an alternative OpenAI-compatible endpoint.
func WithBaseURL(token, baseURL string) OpenAIOption {
	return func(g *OpenAI) {
		cfg := openai.DefaultConfig(token)
		cfg.BaseURL = baseURL
		g.client = openai.NewClientWithConfig(cfg)
	}
}

// NewOpenAI creates a generator backed by the OpenAI API.
func NewOpenAI(token string, opts ...OpenAIOption) (*OpenAI, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeGeneration, "missing API token (set OPENAI_API_KEY)")
	}
	g := &OpenAI{
		client: openai.NewClient(token),
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Model implements Generator.
func (g *OpenAI) Model() string { return g.model }

// Generate implements Generator. It makes exactly one completion call; retry
// policy, if any, belongs to the caller.
func (g *OpenAI) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := errors.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGeneration, err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeGeneration, "model returned no choices")
	}

	return []byte(stripFences(resp.Choices[0].Message.Content)), nil
}

// stripFences removes markdown code fences some models wrap around JSON even
// when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Ensure implementations satisfy Generator.
var (
	_ Generator = Static{}
	_ Generator = (*OpenAI)(nil)
)
