package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/lifesort/internal/common"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// openAIClient implements the Client interface for the OpenAI chat completions API.
type openAIClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}

	return &openAIClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		maxTokens:  cfg.MaxTokens,
		httpClient: newHTTPClient(),
	}, nil
}

// newHTTPClient returns the pooled client shared by the HTTP adapters.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

type openAIContentPart struct {
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIMessage struct {
	Content any    `json:"content"`
	Role    string `json:"role"`
}

type openAIRequest struct {
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends a chat completion request to OpenAI.
func (c *openAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	body := openAIRequest{
		Model:       c.model,
		Temperature: req.Config.Temperature,
		MaxTokens:   firstPositive(req.Config.MaxOutputTokens, c.maxTokens),
	}
	if req.Config.JSONMode {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}
	if req.Instruction != "" {
		body.Messages = append(body.Messages, openAIMessage{Role: "system", Content: req.Instruction})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, toOpenAIMessage(m))
	}

	var response openAIResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, body, &response); err != nil {
		return Response{}, fmt.Errorf("openai: %w", err)
	}

	if len(response.Choices) == 0 {
		return Response{}, fmt.Errorf("openai: no completion choices returned: %w", common.ErrTransport)
	}
	return Response{Text: response.Choices[0].Message.Content}, nil
}

func toOpenAIMessage(m Message) openAIMessage {
	role := "user"
	if m.Role == RoleModel {
		role = "assistant"
	}

	if len(m.Parts) == 1 && m.Parts[0].Media == nil {
		return openAIMessage{Role: role, Content: m.Parts[0].Text}
	}

	parts := make([]openAIContentPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Media != nil {
			url := "data:" + p.Media.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Media.Data)
			parts = append(parts, openAIContentPart{Type: "image_url", ImageURL: &openAIImageURL{URL: url}})
		}
		if p.Text != "" {
			parts = append(parts, openAIContentPart{Type: "text", Text: p.Text})
		}
	}
	return openAIMessage{Role: role, Content: parts}
}

// postJSON sends body as JSON and decodes a 200 reply into out. Network
// failures and non-200 statuses wrap common.ErrTransport; 429 also wraps
// common.ErrRateLimit.
func postJSON(ctx context.Context, httpClient *http.Client, url string, headers map[string]string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w: %w", common.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w: %w", common.ErrTransport, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("status %d: %w: %w", resp.StatusCode, common.ErrTransport, common.ErrRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, truncate(string(respBody), 200), common.ErrTransport)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response envelope: %w: %w", common.ErrTransport, err)
	}
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
