package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/docrelay/pkg/logger"
)

func TestErrorAttrs(t *testing.T) {
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
	attr := logger.Errors(nil, errors.New("a"), errors.New("b"))
	assert.Equal(t, "errors", attr.Key)
	group := attr.Value.Group()
	if assert.Len(t, group, 2) {
		assert.Equal(t, "1", group[0].Key)
		assert.Equal(t, "2", group[1].Key)
	}
}

func TestRelayAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"invocation id", logger.InvocationID("abc"), "invocation_id", "abc"},
		{"blob", logger.Blob("report.pdf"), "blob", "report.pdf"},
		{"size", logger.Size(42), "size", int64(42)},
		{"path", logger.Path("/tmp/x"), "path", "/tmp/x"},
		{"stage", logger.Stage("staged"), "stage", "staged"},
		{"outcome", logger.Outcome("succeeded"), "outcome", "succeeded"},
		{"status code", logger.StatusCode(201), "status_code", int64(201)},
		{"duration", logger.Duration(time.Second), "duration", time.Second},
		{"component", logger.Component("graph"), "component", "graph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestEmptyAttrs(t *testing.T) {
	assert.True(t, logger.InvocationID("").Equal(slog.Attr{}))
	assert.True(t, logger.StatusCode(0).Equal(slog.Attr{}))
}

func TestGroup(t *testing.T) {
	g := logger.Group("upload", logger.StatusCode(201), logger.Size(7))
	assert.Equal(t, "upload", g.Key)
	assert.Len(t, g.Value.Group(), 2)
}
