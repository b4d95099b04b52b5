package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "WARN", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: "info", Format: "text"}) })

	Info().Msg("hidden")
	Warn().Str("schoolCode", "GHS@1").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "GHS@1", entry["schoolCode"])
	assert.Equal(t, "schoolbook", entry["service"])
}

func TestConfigureUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "chatty", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: "info", Format: "text"}) })

	Debug().Msg("hidden")
	Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
