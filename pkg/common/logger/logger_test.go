package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_WritesStructuredRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	traceID := func(context.Context) string { return "abc123" }
	log := NewWithMetadata(&buf, LevelInfo, "orderflow", traceID, Events{}, nil)

	log.Debug(context.Background(), "dropped")
	log.With("component", "queue").Info(context.Background(), "enqueued", "item_id", "1-0")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "enqueued", rec["msg"])
	assert.Equal(t, "orderflow", rec["service"])
	assert.Equal(t, "queue", rec["component"])
	assert.Equal(t, "1-0", rec["item_id"])
	assert.Equal(t, "abc123", rec["trace_id"])
	assert.Contains(t, rec["file"], "logger_test.go")
}

func TestLogger_MetadataAndEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var captured []Record
	events := Events{
		Error: func(_ context.Context, r Record) { captured = append(captured, r) },
	}
	log := NewWithMetadata(&buf, LevelDebug, "svc", nil, events, map[string]string{"hostname": "box"})

	log.Info(context.Background(), "fine")
	log.Error(context.Background(), "broken", "err", "boom")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "box", recs[0]["hostname"])

	require.Len(t, captured, 1)
	assert.Equal(t, "broken", captured[0].Message)
	assert.Equal(t, LevelError, captured[0].Level)
	assert.Equal(t, "boom", captured[0].Attributes["err"])
}

func TestLoggerContext_Add(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lc := NewLoggerContext(NewWithMetadata(&buf, LevelDebug, "svc", nil, Events{}, nil))
	lc.Add("actor_id", 7)
	lc.Info(context.Background(), "started")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.EqualValues(t, 7, recs[0]["actor_id"])
}

func TestNoop(t *testing.T) {
	t.Parallel()

	log := Noop().With("k", "v")
	assert.NotPanics(t, func() {
		log.Error(context.Background(), "ignored")
	})
}
