package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCorrelationIDGeneratesWhenBlank(t *testing.T) {
	ctx, id := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, CorrelationID(ctx))

	ctx, id = WithCorrelationID(context.Background(), "req-42")
	assert.Equal(t, "req-42", id)
	assert.Equal(t, "req-42", CorrelationID(ctx))
	assert.Empty(t, CorrelationID(context.Background()))
}

func TestFromContextTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "production")
	log.SetOutput(&buf)

	ctx, _ := WithCorrelationID(context.Background(), "abc")
	FromContext(ctx, log).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line[CorrelationIDField])
	assert.Equal(t, "hello", line["msg"])
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
	assert.True(t, IsDevelopment(""))
	assert.False(t, IsDevelopment("production"))
}
