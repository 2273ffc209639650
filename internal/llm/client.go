package llm

import (
	"context"
)

// Role identifies who authored a message turn.
type Role string

// Message roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Media is inline binary content such as an image or an audio clip.
type Media struct {
	MIMEType string
	Data     []byte
}

// Part is one piece of a message: text, inline media, or both.
type Part struct {
	Media *Media
	Text  string
}

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role  Role
	Parts []Part
}

// UserText builds a single-part user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// GenerationConfig controls how the model generates its reply.
type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
	// JSONMode asks providers that support it to emit structured output only.
	JSONMode bool
}

// Request is a single inference call.
type Request struct {
	Instruction string
	Messages    []Message
	Config      GenerationConfig
}

// Response is the raw text the model produced.
type Response struct {
	Text string
}

// Client defines the interface for inference providers. Implementations
// return an error wrapping common.ErrTransport when the service could not be
// reached or answered with a failure status.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
