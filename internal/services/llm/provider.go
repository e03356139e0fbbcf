package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ProviderFactory routes content requests to Gemini or Claude.
// Clients are created lazily, so a missing key only fails the calls that need it.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient anthropic.Client
	claudeReady  bool
}

var _ interfaces.LLMService = (*ProviderFactory)(nil)

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *common.Config, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig: &config.Gemini,
		claudeConfig: &config.Claude,
		llmConfig:    &config.LLM,
		logger:       logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-3-5-haiku-20241022" or "claude/..." -> Claude
// - "gemini-2.0-flash" or "gemini/..." -> Gemini
// - Empty string -> configured default provider
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"), strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"), strings.HasPrefix(model, "gemini-"), strings.HasPrefix(model, "models/gemini"):
		return ProviderGemini
	}

	if f.llmConfig.DefaultProvider == common.LLMProviderClaude {
		return ProviderClaude
	}
	return ProviderGemini
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// HasCredentials reports whether a key is available for the default provider
func (f *ProviderFactory) HasCredentials() bool {
	var err error
	if f.DetectProvider("") == ProviderClaude {
		_, err = common.ResolveAPIKey("anthropic_api_key", f.claudeConfig.APIKey)
	} else {
		_, err = common.ResolveAPIKey("gemini_api_key", f.geminiConfig.APIKey)
	}
	return err == nil
}

// GenerateContent makes one call to the provider selected by request.Model.
// There is no retry; a failed call is returned to the caller.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		ctx, cancel := withTimeout(ctx, f.claudeConfig.Timeout)
		defer cancel()
		return f.generateWithClaude(ctx, request, model)
	default:
		ctx, cancel := withTimeout(ctx, f.geminiConfig.Timeout)
		defer cancel()
		return f.generateWithGemini(ctx, request, model)
	}
}

// Close releases provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}

func withTimeout(ctx context.Context, value string) (context.Context, context.CancelFunc) {
	timeout := common.ParseDuration(value, 2*time.Minute)
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func missingKeyError(provider ProviderType, err error) error {
	return fmt.Errorf("%w for %s: %v", interfaces.ErrNoAPIKey, provider, err)
}
