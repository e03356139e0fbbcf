package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
)

type fakeLLM struct {
	text     string
	err      error
	requests []*interfaces.ContentRequest
}

func (f *fakeLLM) GenerateContent(_ context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.ContentResponse{Text: f.text, Provider: "fake", Model: "fake-1"}, nil
}

func (f *fakeLLM) Close() error { return nil }

const validJSON = `{"topic": "אמון בקבוצה", "description": "פעולה על אמון", "age_group": "גילאי 14-15 (כיתות ט-י)", "duration": "90 דקות", "materials": ["כדור", "דגל"], "tags": ["teamwork", "trust"]}`

func TestEnrichFencedJSON(t *testing.T) {
	llm := &fakeLLM{text: "```json\n" + validJSON + "\n```"}
	enricher := NewEnricher(llm, "", common.NewConsoleLogger())

	meta, err := enricher.Enrich(context.Background(), "טקסט הפעולה", "https://example.test/topic/1")
	require.NoError(t, err)

	assert.Equal(t, "אמון בקבוצה", meta.Topic)
	assert.Equal(t, "90 דקות", meta.Duration)
	assert.Equal(t, []string{"כדור", "דגל"}, meta.Materials)
	assert.Equal(t, []string{"teamwork", "trust"}, meta.Tags)
}

func TestEnrichSendsPromptAndSchema(t *testing.T) {
	llm := &fakeLLM{text: validJSON}
	enricher := NewEnricher(llm, "gemini-2.0-flash", common.NewConsoleLogger())

	_, err := enricher.Enrich(context.Background(), "משחק מחבואים", "https://example.test/topic/9")
	require.NoError(t, err)
	require.Len(t, llm.requests, 1)

	request := llm.requests[0]
	assert.Equal(t, "gemini-2.0-flash", request.Model)
	assert.NotEmpty(t, request.SystemInstruction)
	assert.NotEmpty(t, request.OutputSchema)
	require.Len(t, request.Messages, 1)

	prompt := request.Messages[0].Content
	assert.Contains(t, prompt, "משחק מחבואים")
	assert.Contains(t, prompt, "https://example.test/topic/9")
	for _, key := range []string{`"topic"`, `"description"`, `"age_group"`, `"duration"`, `"materials"`, `"tags"`} {
		assert.Contains(t, prompt, key)
	}
	assert.Contains(t, prompt, `\"inner quote\"`)
}

func TestEnrichMalformedJSON(t *testing.T) {
	llm := &fakeLLM{text: `{"topic": "צה"ל", "tags": []}`}
	enricher := NewEnricher(llm, "", common.NewConsoleLogger())

	meta, err := enricher.Enrich(context.Background(), "text", "")
	require.Error(t, err)
	assert.Nil(t, meta)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, FailureMalformed, KindOf(err))
	assert.Len(t, llm.requests, 1, "malformed output is not retried")
}

func TestEnrichNoAPIKey(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("%w for gemini", interfaces.ErrNoAPIKey)}
	enricher := NewEnricher(llm, "", common.NewConsoleLogger())

	_, err := enricher.Enrich(context.Background(), "text", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAPIKey))
	assert.Equal(t, FailureNoAPIKey, KindOf(err))

	_, err = NewEnricher(nil, "", common.NewConsoleLogger()).Enrich(context.Background(), "text", "")
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestEnrichTransportError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection reset")}
	enricher := NewEnricher(llm, "", common.NewConsoleLogger())

	_, err := enricher.Enrich(context.Background(), "text", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
		{"no closing fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(`{"topic": "  מנהיגות ", "materials": ["", "חבל"], "tags": ["leadership"]}`)
	require.NoError(t, err)
	assert.Equal(t, "מנהיגות", meta.Topic)
	assert.Equal(t, []string{"חבל"}, meta.Materials)

	_, err = ParseMetadata("")
	assert.Error(t, err)

	_, err = ParseMetadata(`{"topic": "a"} {"topic": "b"}`)
	assert.Error(t, err)

	_, err = ParseMetadata(`{"topic": "a", "tags": "not-a-list"}`)
	assert.Error(t, err)

	// An over-long field is truncated, not treated as malformed
	meta, err = ParseMetadata(`{"topic": "` + strings.Repeat("א", 400) + `", "tags": ["trust"]}`)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("א", 300), meta.Topic)
	assert.Equal(t, []string{"trust"}, meta.Tags)
}

func TestEnrichKeepsMetadataWithOverLongTopic(t *testing.T) {
	llm := &fakeLLM{text: `{"topic": "` + strings.Repeat("ש", 301) + `", "duration": "45 דקות", "tags": ["games"]}`}
	enricher := NewEnricher(llm, "", common.NewConsoleLogger())

	meta, err := enricher.Enrich(context.Background(), "טקסט הפעולה", "https://example.test/topic/9")
	require.NoError(t, err)
	assert.Equal(t, 300, len([]rune(meta.Topic)))
	assert.Equal(t, "45 דקות", meta.Duration)
	assert.Equal(t, []string{"games"}, meta.Tags)
}
