package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
)

// Enricher turns raw activity text into Metadata with one language model call
type Enricher struct {
	llm    interfaces.LLMService
	model  string
	logger arbor.ILogger
}

var _ interfaces.MetadataEnricher = (*Enricher)(nil)

// NewEnricher creates an enricher. An empty model uses the provider default.
func NewEnricher(llm interfaces.LLMService, model string, logger arbor.ILogger) *Enricher {
	return &Enricher{
		llm:    llm,
		model:  model,
		logger: logger,
	}
}

// Enrich extracts metadata from rawText. Every failure is an *Error; the
// caller decides whether to fall back to sentinel values. Malformed output
// is not retried.
func (e *Enricher) Enrich(ctx context.Context, rawText, sourceHint string) (*models.Metadata, error) {
	if e.llm == nil {
		return nil, &Error{Kind: FailureNoAPIKey, Err: interfaces.ErrNoAPIKey}
	}

	resp, err := e.llm.GenerateContent(ctx, &interfaces.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: buildPrompt(rawText, sourceHint)},
		},
		Model:             e.model,
		SystemInstruction: systemInstruction,
		OutputSchema:      outputSchema(),
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNoAPIKey) {
			return nil, &Error{Kind: FailureNoAPIKey, Err: err}
		}
		return nil, &Error{Kind: FailureTransport, Err: err}
	}

	meta, err := ParseMetadata(resp.Text)
	if err != nil {
		e.logger.Debug().
			Str("source", sourceHint).
			Str("response", truncate(resp.Text, 300)).
			Msg("Unparseable metadata response")
		return nil, &Error{Kind: FailureMalformed, Err: err}
	}

	e.logger.Debug().
		Str("source", sourceHint).
		Str("provider", resp.Provider).
		Str("topic", meta.Topic).
		Int("tags", len(meta.Tags)).
		Msg("Metadata extracted")

	return meta, nil
}

// ParseMetadata decodes a model response into Metadata after removing
// optional Markdown code fences.
func ParseMetadata(text string) (*models.Metadata, error) {
	body := StripCodeFences(text)
	if body == "" {
		return nil, fmt.Errorf("empty response")
	}

	var meta models.Metadata
	decoder := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := decoder.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata JSON: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected content after metadata JSON object")
	}

	meta.Normalize()
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("metadata failed validation: %w", err)
	}

	return &meta, nil
}

// StripCodeFences removes a leading ``` or ```json line and a trailing ``` fence
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		lang := strings.TrimSpace(s[:nl])
		if lang == "" || !strings.ContainsAny(lang, "{[") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
