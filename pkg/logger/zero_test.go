package logger

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestZeroEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZeroWriter(&buf, "debug", false)

	log.Info("member joined room", "room", "global-posts", "member", "m1")

	entry := lastLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "member joined room", entry["message"])
	assert.Equal(t, "global-posts", entry["room"])
	assert.Equal(t, "m1", entry["member"])
}

func TestZeroLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewZeroWriter(&buf, "warn", false)

	log.Debug("dropped")
	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestZeroUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewZeroWriter(&buf, "verbose", false)

	log.Debug("dropped")
	assert.Zero(t, buf.Len())
	log.Info("kept")
	assert.NotZero(t, buf.Len())
}

func TestZeroWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewZeroWriter(&buf, "info", false).WithComponent("hub")

	log.Info("hello")
	assert.Equal(t, "hub", lastLine(t, &buf)["component"])
}

func TestZeroSkipsMalformedPairs(t *testing.T) {
	var buf bytes.Buffer
	log := NewZeroWriter(&buf, "info", false)

	// A non-string key and a trailing key without a value are dropped
	// rather than panicking.
	log.Info("odd args", 42, "x", "room", "global-posts", "dangling")

	entry := lastLine(t, &buf)
	assert.Equal(t, "global-posts", entry["room"])
	assert.NotContains(t, entry, "dangling")
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop{}, OrNop(nil))

	z := NewZeroWriter(nil, "info", false)
	assert.Equal(t, z, OrNop(z))
}
