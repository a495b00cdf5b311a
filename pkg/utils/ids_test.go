package utils

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, RequestIDFromContext(ctx))

	same, again := EnsureRequestID(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestComponentLogger(t *testing.T) {
	logger := logrus.New()
	ctx := ContextWithRequestID(context.Background(), "req-1")

	entry := ComponentLogger(ctx, logger, "gateway")
	assert.Equal(t, "gateway", entry.Data["component"])
	assert.Equal(t, "req-1", entry.Data["request_id"])

	bare := ComponentLogger(context.Background(), logger, "indexer")
	_, ok := bare.Data["request_id"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}
