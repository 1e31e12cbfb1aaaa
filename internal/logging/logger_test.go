package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestFromContext_RequestID(t *testing.T) {
	buf := captureDefault(t)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	FromContext(ctx).Info("fetching sheet")

	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Errorf("log output missing request_id: %q", buf.String())
	}
}

func TestFromContext_NoRequestID(t *testing.T) {
	buf := captureDefault(t)

	FromContext(context.Background()).Info("fetching sheet")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("log output should not carry request_id: %q", buf.String())
	}
}
