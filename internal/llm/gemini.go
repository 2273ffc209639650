package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Veraticus/lifesort/internal/common"
)

const geminiDefaultModel = "gemini-2.0-flash"

// geminiClient implements the Client interface on the Google GenAI SDK.
type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// newGeminiClient creates a Gemini API client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiClient{
		client:    client,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends a GenerateContent request to Gemini.
func (c *geminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, toGeminiContent(m))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Config.Temperature)),
	}
	if tokens := firstPositive(req.Config.MaxOutputTokens, c.maxTokens); tokens > 0 {
		config.MaxOutputTokens = int32(tokens)
	}
	if req.Config.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	if req.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini: generate failed: %w: %w", common.ErrTransport, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Response{}, fmt.Errorf("gemini: empty response: %w", common.ErrTransport)
	}
	return Response{Text: text}, nil
}

func toGeminiContent(m Message) *genai.Content {
	role := genai.Role(genai.RoleUser)
	if m.Role == RoleModel {
		role = genai.RoleModel
	}

	parts := make([]*genai.Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Media != nil {
			parts = append(parts, genai.NewPartFromBytes(p.Media.Data, p.Media.MIMEType))
		}
		if p.Text != "" {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	return genai.NewContentFromParts(parts, role)
}
