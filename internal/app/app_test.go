package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/models"
)

func TestNewWiresServices(t *testing.T) {
	for _, name := range []string{"PEULOT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(name, "")
	}

	ctx := context.Background()
	config := common.NewDefaultConfig()
	config.Storage.SQLite.Path = filepath.Join(t.TempDir(), "peulot.db")

	application, err := New(ctx, config, common.NewConsoleLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.NotNil(t, application.Scraper)
	assert.NotNil(t, application.Processing)
	assert.NotNil(t, application.Scheduler)
	assert.NotNil(t, application.Generator)
	assert.False(t, application.LLM.HasCredentials())

	// Manual entry works without credentials and falls back to sentinels
	id, outcome, err := application.Processing.IngestText(ctx, "משחק היכרות בזוגות", "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeInsertedFallback, outcome)

	stored, err := application.Storage.GetActivity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.UnknownTopic, stored.Topic)

	results, err := application.Search.Inspirations(ctx, "היכרות", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Score)
}
