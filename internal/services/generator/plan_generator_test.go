package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
	"github.com/ternarybob/peulot/internal/services/search"
)

type fakeLLM struct {
	request *interfaces.ContentRequest
	err     error
}

func (f *fakeLLM) GenerateContent(_ context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	f.request = request
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.ContentResponse{Text: "\n# פעולת גיבוש\n\n| שלב | זמן |\n|---|---|\n| פתיחה | 10 דקות |\n", Provider: "fake", Model: "fake-1"}, nil
}

func (f *fakeLLM) Close() error { return nil }

type fakeSource struct {
	results []search.Result
	limit   int
}

func (f *fakeSource) Inspirations(_ context.Context, _ string, limit int) ([]search.Result, error) {
	f.limit = limit
	return f.results, nil
}

func newGenerator(llm *fakeLLM, source *fakeSource) *PlanGenerator {
	return NewPlanGenerator(llm, source, &common.NewDefaultConfig().Generator, common.NewConsoleLogger())
}

func TestGenerateUsesDefaultsAndInspirations(t *testing.T) {
	llm := &fakeLLM{}
	source := &fakeSource{results: []search.Result{{
		Activity: models.NewActivity("משחק אמון בזוגות", "https://forum.test/topic/1", &models.Metadata{Topic: "אמון"}),
		Score:    2,
	}}}

	plan, err := newGenerator(llm, source).Generate(context.Background(), Request{Text: "פעולת גיבוש לשכבה"})
	require.NoError(t, err)

	assert.Equal(t, 3, source.limit)
	assert.Equal(t, "fake", plan.Provider)
	assert.Len(t, plan.Inspirations, 1)
	assert.True(t, strings.HasPrefix(plan.Markdown, "# פעולת גיבוש"))

	require.NotNil(t, llm.request)
	assert.Equal(t, plannerInstruction, llm.request.SystemInstruction)
	assert.InDelta(t, 0.7, llm.request.Temperature, 0.0001)

	prompt := llm.request.Messages[0].Content
	assert.Contains(t, prompt, "פעולת גיבוש לשכבה")
	assert.Contains(t, prompt, "כ-120 דקות (שעתיים)")
	assert.Contains(t, prompt, "גילאי 14-15 (כיתות ט-י)")
	assert.Contains(t, prompt, "נושא: אמון")
	assert.Contains(t, prompt, "משחק אמון בזוגות")
}

func TestGenerateWithExplicitDurationAndAge(t *testing.T) {
	llm := &fakeLLM{}
	_, err := newGenerator(llm, &fakeSource{}).Generate(context.Background(), Request{
		Text:     "ניווט לילה",
		Duration: "90",
		AgeGroup: "גילאי 16-18 (שכבה בוגרת)",
	})
	require.NoError(t, err)

	prompt := llm.request.Messages[0].Content
	assert.Contains(t, prompt, "90 דקות")
	assert.Contains(t, prompt, "גילאי 16-18 (שכבה בוגרת)")
	assert.Contains(t, prompt, "לא נמצאו דוגמאות רלוונטיות במאגר.")
}

func TestGenerateErrors(t *testing.T) {
	_, err := newGenerator(&fakeLLM{}, &fakeSource{}).Generate(context.Background(), Request{Text: "  "})
	assert.Error(t, err)

	llm := &fakeLLM{err: interfaces.ErrNoAPIKey}
	_, err = newGenerator(llm, &fakeSource{}).Generate(context.Background(), Request{Text: "משחק"})
	assert.True(t, errors.Is(err, interfaces.ErrNoAPIKey))
}

func TestDurationText(t *testing.T) {
	assert.Equal(t, "default", durationText("", "default"))
	assert.Equal(t, "45 דקות", durationText(" 45 ", "default"))
	assert.Equal(t, "שעה וחצי", durationText("שעה וחצי", "default"))
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML("<גיבוש>", "# כותרת\n\n| שלב | זמן |\n|---|---|\n| פתיחה | 10 |\n")
	require.NoError(t, err)

	assert.Contains(t, page, `dir="rtl"`)
	assert.Contains(t, page, "<title>&lt;גיבוש&gt;</title>")
	assert.Contains(t, page, "<h1>כותרת</h1>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>פתיחה</td>")
}
