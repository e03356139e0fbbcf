package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerCreatesLogDir(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Output = []string{"file"}
	config.Logging.Dir = filepath.Join(t.TempDir(), "logs")
	config.Logging.Level = "debug"

	logger := InitLogger(config)
	require.NotNil(t, logger)
	logger.Debug().Str("component", "test").Msg("logger ready")

	info, err := os.Stat(config.Logging.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
