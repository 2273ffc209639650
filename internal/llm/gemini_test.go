package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"route_type\":\"inventory\"}"}]}}]}`))
	}))
	defer server.Close()

	client, err := newGeminiClient(context.Background(), Config{APIKey: "test-key", Model: "gemini-test", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), Request{
		Instruction: "sort this",
		Messages:    []Message{UserText("冰箱里还有两瓶牛奶")},
		Config:      GenerationConfig{Temperature: 0.3, MaxOutputTokens: 512, JSONMode: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"route_type":"inventory"}`, resp.Text)

	genCfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "request body: %v", body)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.InDelta(t, 512, genCfg["maxOutputTokens"], 1e-9)
	assert.Contains(t, body, "systemInstruction")
}
