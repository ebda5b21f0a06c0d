package llmclient

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"
)

const geminiDefaultTokenCap = 12000

// GeminiClient speaks to the Gemini API through the official genai SDK and
// always requests a JSON response body. Cross-cutting concerns (rate
// limiting, retries, logging) live in llm.Middleware, not here.
type GeminiClient struct {
	cli      *genai.Client
	model    string
	tokenCap int
}

// NewGeminiClient builds a client for the given model. An empty apiKey
// lets the SDK fall back to GEMINI_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, apiKey, model string, tokenCap int) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if tokenCap <= 0 {
		tokenCap = geminiDefaultTokenCap
	}
	return &GeminiClient{cli: cli, model: model, tokenCap: tokenCap}, nil
}

func (g *GeminiClient) Name() string       { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error       { return nil }
func (g *GeminiClient) TokenCapacity() int { return g.tokenCap }

func (g *GeminiClient) CountTokens(text string) int {
	return CountTokens(text)
}

// GenerateJSON sends the prompt with the input appended as an
// [INPUT JSON] block and returns the model's JSON body.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	full := prompt + "\n\n[INPUT JSON]\n" + string(marshalInput(input))

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		genai.Text(full),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(text), nil
}

func marshalInput(input any) []byte {
	b, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return []byte("{}")
	}
	return b
}
