package common

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	dir := t.TempDir()

	path := WriteCrashFile(dir, "boom", "trace-line")
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)
	assert.True(t, strings.HasPrefix(report, "=== PEULOT CRASH REPORT ==="))
	assert.Contains(t, report, "boom")
	assert.Contains(t, report, "trace-line")
}

func TestWriteCrashFile_DirsAreIndependent(t *testing.T) {
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")

	var wg sync.WaitGroup
	paths := make([]string, 2)
	for i, dir := range []string{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i] = WriteCrashFile(dir, "boom", "trace")
		}()
	}
	wg.Wait()

	assert.Equal(t, first, filepath.Dir(paths[0]))
	assert.Equal(t, second, filepath.Dir(paths[1]))
}

func TestSafeGoRecoversPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	SafeGo(NewConsoleLogger(), "panicking", func() {
		defer wg.Done()
		panic("boom")
	})

	wg.Wait()
}
