package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	groqEndpoint        = "https://api.groq.com/openai/v1/chat/completions"
	groqDefaultTokenCap = 6000
	groqBodyLimit       = 2048
)

// GroqClient uses Groq's OpenAI-compatible chat completions endpoint with
// response_format json_object, so the content of the first choice is
// guaranteed-parsable JSON on success.
type GroqClient struct {
	http     *http.Client
	apiKey   string
	model    string
	baseURL  string
	tokenCap int
}

// NewGroqClient builds a client for the given model. An empty apiKey falls
// back to GROQ_API_KEY.
func NewGroqClient(apiKey, model string, tokenCap int) (*GroqClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if tokenCap <= 0 {
		tokenCap = groqDefaultTokenCap
	}
	return &GroqClient{
		http:     &http.Client{Timeout: 60 * time.Second},
		apiKey:   apiKey,
		model:    model,
		baseURL:  groqEndpoint,
		tokenCap: tokenCap,
	}, nil
}

func (g *GroqClient) Name() string       { return "Groq:" + g.model }
func (g *GroqClient) Close() error       { return nil }
func (g *GroqClient) TokenCapacity() int { return g.tokenCap }

func (g *GroqClient) CountTokens(text string) int {
	return CountTokens(text)
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateJSON sends prompt as the system message and the input JSON as
// the user message, requesting a JSON object back.
func (g *GroqClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: "[INPUT JSON]\n" + string(marshalInput(input))},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, g.statusError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, ErrInvalidJSON
	}
	content := out.Choices[0].Message.Content
	var scratch any
	if err := json.Unmarshal([]byte(content), &scratch); err != nil {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(content), nil
}

func (g *GroqClient) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, groqBodyLimit))
	err := fmt.Errorf("groq: unexpected status %s: %s", resp.Status, string(body))
	// a request that overflows the context window will not shrink on retry
	if resp.StatusCode == http.StatusBadRequest &&
		strings.Contains(string(body), `"code":"context_length_exceeded"`) {
		return NewPermanentError(err)
	}
	return err
}
