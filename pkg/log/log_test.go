package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	// no logger in the context
	l1 := Ctx(ctx)
	require.NotNil(t, l1, "Ctx returned nil instead of default logger")
	assert.Equal(t, defaultLogger, l1, "Ctx should return defaultLogger")

	customLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NotEqual(t, defaultLogger, customLogger)

	ctxWithLogger := With(ctx, customLogger)
	l2 := Ctx(ctxWithLogger)
	require.NotNil(t, l2, "Ctx returned nil, expected custom logger")
	assert.Equal(t, customLogger, l2, "Ctx should return customLogger")
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	ctx := With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	t.Run("NoAttrs", func(t *testing.T) {
		assert.Equal(t, ctx, WithAttrs(ctx))
	})

	t.Run("Attrs", func(t *testing.T) {
		buf.Reset()
		ctx := WithAttrs(ctx, slog.Int("residenceID", 2), slog.String("reqPath", "/api/residences"))
		Ctx(ctx).InfoContext(ctx, "hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.EqualValues(t, 2, line["residenceID"])
		assert.Equal(t, "/api/residences", line["reqPath"])
	})
}

func TestLevelFromLLog(t *testing.T) {
	// llog always starts at one of the four levels slog knows about
	_, err := levelFromLLog()
	require.NoError(t, err)
}
