// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/geo-engine/internal/httputil"
	"github.com/pdiddy/geo-engine/pkg/types"
)

// openaiAPIURL is the Chat Completions endpoint. Package-level var for test
// substitution.
var openaiAPIURL = "https://api.openai.com/v1/chat/completions"

const defaultTimeout = 60 * time.Second

// OpenAIBackend calls the OpenAI Chat Completions API with structured
// outputs (response_format json_schema, strict mode) so the service enforces
// the expected shape on its side.
type OpenAIBackend struct {
	Config types.GenerationConfig
	Client *http.Client
}

// NewOpenAIBackend builds a backend from config.
func NewOpenAIBackend(cfg types.GenerationConfig) *OpenAIBackend {
	return &OpenAIBackend{Config: cfg}
}

// openaiRequest is the request body for the Chat Completions API.
type openaiRequest struct {
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_completion_tokens"`
	Messages       []openaiMessage `json:"messages"`
	ResponseFormat responseFormat  `json:"response_format"`
}

// openaiMessage is a single message in the conversation.
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat requests strict schema-conformant output.
type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// openaiResponse is the response body from the Chat Completions API.
type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message struct {
		Content string `json:"content"`
		Refusal string `json:"refusal"`
	} `json:"message"`
}

// Generate performs one structured call. Transport errors, timeouts, non-2xx
// statuses, refusals, and undecodable payloads all surface as *GenerationError.
func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	timeout := b.Config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxTokens := b.Config.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	reqBody := openaiRequest{
		Model:     b.Config.Model,
		MaxTokens: maxTokens,
		Messages: []openaiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   req.Schema.Name,
				Strict: true,
				Schema: req.Schema.Definition,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &GenerationError{Op: req.Schema.Name, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &GenerationError{Op: req.Schema.Name, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.Config.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, b.Config.MaxRetries)
	if err != nil {
		return nil, &GenerationError{Op: req.Schema.Name, Err: fmt.Errorf("calling generation API: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, Errorf(req.Schema.Name, "generation API returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, &GenerationError{Op: req.Schema.Name, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(oResp.Choices) == 0 {
		return nil, Errorf(req.Schema.Name, "generation API returned no choices")
	}
	choice := oResp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, Errorf(req.Schema.Name, "model refused the request: %s", choice.Message.Refusal)
	}
	if choice.Message.Content == "" {
		return nil, Errorf(req.Schema.Name, "generation API returned empty content")
	}

	// Verify the content is parseable JSON before handing it to the stage.
	if !json.Valid([]byte(choice.Message.Content)) {
		return nil, Errorf(req.Schema.Name, "response content is not valid JSON")
	}

	return json.RawMessage(choice.Message.Content), nil
}
