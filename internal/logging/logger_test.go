package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("hidden")
	Warn().Str("canvas_id", "c1").Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "c1", entry["canvas_id"])
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Ctx(context.Background()).Info().Msg("from global")
	assert.Contains(t, buf.String(), "from global")
}

func TestCtx_UsesAttachedLogger(t *testing.T) {
	var global, scoped bytes.Buffer
	Init(Config{Level: "info", Output: &global})
	t.Cleanup(func() { Init(Config{}) })

	l := Logger().Output(&scoped).With().Str("request_id", "r-1").Logger()
	ctx := WithContext(context.Background(), l)

	Ctx(ctx).Info().Msg("scoped")
	assert.Empty(t, global.String())
	assert.Contains(t, scoped.String(), `"request_id":"r-1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "info", parseLevel("nonsense").String())
}
