package slog_test

import (
	"bytes"
	"encoding/json"
	"testing"

	rawslog "log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/logger/slog"
)

var _ logger.Logger = (*slog.Handler)(nil)

func TestHandlerEmitsAllLevels(t *testing.T) {
	var buf bytes.Buffer
	h := rawslog.NewJSONHandler(&buf, &rawslog.HandlerOptions{Level: rawslog.LevelDebug})
	log := slog.New(h)

	methods := []struct {
		fn    func(msg string, args ...any)
		level string
	}{
		{log.Debug, "DEBUG"},
		{log.Info, "INFO"},
		{log.Warn, "WARN"},
		{log.Error, "ERROR"},
	}

	for _, m := range methods {
		t.Run(m.level, func(t *testing.T) {
			buf.Reset()
			m.fn("subscription state transitioned", "room", "global-posts")

			var entry struct {
				Level string `json:"level"`
				Msg   string `json:"msg"`
				Room  string `json:"room"`
			}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, m.level, entry.Level)
			assert.Equal(t, "subscription state transitioned", entry.Msg)
			assert.Equal(t, "global-posts", entry.Room)
		})
	}
}
