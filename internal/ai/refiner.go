// Package ai expands short task titles into production-ready descriptions
// using the Claude Messages API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 512
	defaultEndpoint  = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// Refiner turns a short instruction into a fuller task description.
// It never fails: on any error the input comes back unchanged.
type Refiner struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
	log       *zap.Logger
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithEndpoint overrides the Messages API URL.
func WithEndpoint(url string) Option {
	return func(r *Refiner) {
		if url != "" {
			r.endpoint = url
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Refiner) { r.client = c }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Refiner) { r.log = l }
}

// New creates a Refiner. An empty apiKey yields a Refiner that always echoes.
func New(apiKey, modelName string, maxTokens int, opts ...Option) *Refiner {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	r := &Refiner{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		endpoint:  defaultEndpoint,
		client:    &http.Client{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether an API key is configured.
func (r *Refiner) Enabled() bool {
	return r != nil && r.apiKey != ""
}

// ComposeInput builds the refine input from a draft title and description.
func ComposeInput(title, description string) string {
	if strings.TrimSpace(description) == "" {
		return title
	}
	return title + " 详情: " + description
}

// Refine returns a refined description for input, or input itself when
// the call cannot be made or does not produce text.
func (r *Refiner) Refine(ctx context.Context, input string) string {
	if !r.Enabled() {
		return input
	}

	text, err := r.call(ctx, input)
	if err != nil {
		r.log.Warn("refine failed, keeping input", zap.Error(err))
		return input
	}
	if strings.TrimSpace(text) == "" {
		r.log.Warn("refine returned no text, keeping input")
		return input
	}
	return text
}

func buildPrompt(input string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert production manager.\n")
	sb.WriteString("Refine the following short task instruction into a clear, ")
	sb.WriteString("professional task description for a production employee.\n")
	sb.WriteString("Include a brief checklist of 3 items if applicable.\n")
	sb.WriteString("Keep it concise (under 100 words).\n")
	sb.WriteString("IMPORTANT: Output the result in Simplified Chinese.\n\n")
	fmt.Fprintf(&sb, "Input: %q", input)
	return sb.String()
}

// call makes a single request to the Messages API.
func (r *Refiner) call(ctx context.Context, input string) (string, error) {
	reqBody := apiRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: buildPrompt(input)}},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d)", resp.StatusCode)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Content    []apiContentBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
