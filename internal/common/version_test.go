package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionPrefersLdflags(t *testing.T) {
	previous := Version
	t.Cleanup(func() { Version = previous })

	Version = "1.2.3"
	assert.Equal(t, "1.2.3", GetVersion())
	assert.True(t, strings.HasPrefix(GetFullVersion(), "1.2.3 (build: "))
}

func TestGetFullVersionUsesConfiguredCommit(t *testing.T) {
	previous := GitCommit
	t.Cleanup(func() { GitCommit = previous })

	GitCommit = "abc123"
	assert.Contains(t, GetFullVersion(), "commit: abc123")
}
