package interfaces

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned when no credential is configured for the selected provider
var ErrNoAPIKey = errors.New("no API key configured")

// Message represents a single message in a conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []Message
	Model             string // Empty uses the configured default; "claude/..." or "gemini/..." selects a provider
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
	OutputSchema      map[string]interface{} // JSON schema for structured output (Gemini only)
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider string
	Model    string
}

// LLMService generates text with a language model. One call is one attempt;
// implementations do not retry.
type LLMService interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	Close() error
}
