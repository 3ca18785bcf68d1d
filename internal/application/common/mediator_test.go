package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingQuery struct{ Value string }

type pingHandler struct{}

func (h *pingHandler) Handle(ctx context.Context, request Request) (Response, error) {
	q := request.(*pingQuery)
	if q.Value == "" {
		return nil, errors.New("empty ping")
	}
	return "pong:" + q.Value, nil
}

type recordingLogger struct {
	levels []string
}

func (l *recordingLogger) Log(level, message string, metadata map[string]interface{}) {
	l.levels = append(l.levels, level)
}

func TestMediator_SendDispatchesToHandler(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingQuery](m, &pingHandler{}))

	resp, err := m.Send(context.Background(), &pingQuery{Value: "a"})

	require.NoError(t, err)
	assert.Equal(t, "pong:a", resp)
}

func TestMediator_RejectsDuplicateAndUnknown(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingQuery](m, &pingHandler{}))

	assert.Error(t, RegisterHandler[*pingQuery](m, &pingHandler{}))

	_, err := m.Send(context.Background(), "not registered")
	assert.Error(t, err)

	_, err = m.Send(context.Background(), nil)
	assert.Error(t, err)
}

func TestMediator_MiddlewareOrder(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingQuery](m, &pingHandler{}))

	var order []string
	m.Use(func(ctx context.Context, r Request, next HandlerFunc) (Response, error) {
		order = append(order, "outer")
		return next(ctx, r)
	})
	m.Use(func(ctx context.Context, r Request, next HandlerFunc) (Response, error) {
		order = append(order, "inner")
		return next(ctx, r)
	})

	_, err := m.Send(context.Background(), &pingQuery{Value: "x"})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoggingMiddleware_LogsFailures(t *testing.T) {
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingQuery](m, &pingHandler{}))
	m.Use(LoggingMiddleware(0))

	logger := &recordingLogger{}
	ctx := WithLogger(context.Background(), logger)

	_, err := m.Send(ctx, &pingQuery{})

	assert.Error(t, err)
	assert.Equal(t, []string{LevelWarn}, logger.levels)
}

func TestLoggerFromContext_FallsBackToNoOp(t *testing.T) {
	logger := LoggerFromContext(context.Background())

	assert.NotNil(t, logger)
	logger.Log(LevelInfo, "ignored", nil)
	assert.Equal(t, "", CycleIDFromContext(context.Background()))
	assert.Equal(t, "c-1", CycleIDFromContext(WithCycleID(context.Background(), "c-1")))
}
