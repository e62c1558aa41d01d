package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": DebugLevel, "WARN": WarnLevel, "": InfoLevel, " error ": ErrorLevel} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: InfoLevel, Output: &buf, JSON: true})
	l.Debug("hidden")
	l.With("dataset", "customers").Info("rows loaded", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "rows loaded", entry["msg"])
	assert.Equal(t, "customers", entry["dataset"])
	assert.EqualValues(t, 3, entry["count"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	l := New(&Config{Level: DebugLevel, Output: &buf})
	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Debug("from context")
	assert.Contains(t, buf.String(), "from context")
}
