package logger_test

import (
	"context"
	"testing"

	"github.com/Gunvolt24/mpsync/pkg/ctxmeta"
	"github.com/Gunvolt24/mpsync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.FromZap(zap.New(core), false)

	ctx := ctxmeta.WithJobID(ctxmeta.WithRequestID(context.Background(), "req-1"), "job-1")
	log.Warnf(ctx, "order %s skipped", "ORD-1")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "order ORD-1 skipped", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "job-1", fields["job_id"])
}

func TestZapLogger_NoContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core), true)

	log.Infof(context.Background(), "plain")
	log.Errorf(context.Background(), "failed: %v", assert.AnError)

	require.Equal(t, 2, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestNewZapLogger(t *testing.T) {
	log, cleanup, err := logger.NewZapLogger(true)
	require.NoError(t, err)
	require.NotNil(t, log.Base())
	require.NotNil(t, log.Sugared())
	_ = cleanup()
}
