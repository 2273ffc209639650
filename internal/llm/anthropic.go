package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/lifesort/internal/common"
)

const (
	anthropicDefaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 1024
)

// anthropicClient implements the Client interface for the Anthropic messages API.
type anthropicClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}

	return &anthropicClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		maxTokens:  firstPositive(cfg.MaxTokens, anthropicDefaultMaxTokens),
		httpClient: newHTTPClient(),
	}, nil
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicBlock struct {
	Source *anthropicSource `json:"source,omitempty"`
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate sends a messages request to Anthropic.
func (c *anthropicClient) Generate(ctx context.Context, req Request) (Response, error) {
	body := anthropicRequest{
		Model:       c.model,
		System:      req.Instruction,
		Temperature: req.Config.Temperature,
		MaxTokens:   firstPositive(req.Config.MaxOutputTokens, c.maxTokens),
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, toAnthropicMessage(m))
	}

	var response anthropicResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/messages", map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}, body, &response); err != nil {
		return Response{}, fmt.Errorf("anthropic: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, fmt.Errorf("anthropic: no content in response: %w", common.ErrTransport)
	}
	return Response{Text: text.String()}, nil
}

func toAnthropicMessage(m Message) anthropicMessage {
	role := "user"
	if m.Role == RoleModel {
		role = "assistant"
	}

	blocks := make([]anthropicBlock, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Media != nil {
			blocks = append(blocks, anthropicBlock{
				Type: "image",
				Source: &anthropicSource{
					Type:      "base64",
					MediaType: p.Media.MIMEType,
					Data:      base64.StdEncoding.EncodeToString(p.Media.Data),
				},
			})
		}
		if p.Text != "" {
			blocks = append(blocks, anthropicBlock{Type: "text", Text: p.Text})
		}
	}
	return anthropicMessage{Role: role, Content: blocks}
}
