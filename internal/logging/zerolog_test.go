package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZerologTestLogger(t *testing.T) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_LevelsAndFields(t *testing.T) {
	log, buf := newZerologTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn", "err", errors.New("boom"))
	log.Error(ctx, "err", "d", true)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])

	assert.Equal(t, "info", lines[1]["level"])
	assert.Equal(t, "two", lines[1]["b"])

	assert.Equal(t, "warn", lines[2]["level"])
	assert.Equal(t, "boom", lines[2]["err"])

	assert.Equal(t, "error", lines[3]["level"])
	assert.Equal(t, true, lines[3]["d"])
}

func TestZerologLogger_WithAndOddArgs(t *testing.T) {
	log, buf := newZerologTestLogger(t)

	child := log.With("module", "sync")
	child.Info(context.Background(), "hello", "dangling")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "sync", lines[0]["module"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestNew_SelectsBackend(t *testing.T) {
	var buf bytes.Buffer

	l := New(FormatJSON, "warn", &buf)
	_, ok := l.(*SlogLogger)
	require.True(t, ok)
	l.Info(context.Background(), "suppressed")
	l.Warn(context.Background(), "shown")
	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	l = New(FormatConsole, "debug", &buf)
	_, ok = l.(*ZerologLogger)
	require.True(t, ok)
	l.Debug(context.Background(), "console line", "k", "v")
	assert.Contains(t, buf.String(), "console line")

	buf.Reset()
	l = New(FormatText, "", &buf)
	l.Info(context.Background(), "text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")
}
