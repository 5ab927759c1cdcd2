package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"advocacia.app/internal/auth"
	"advocacia.app/internal/obs"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(original) })
	return &buf
}

func TestLogEvent(t *testing.T) {
	buf := captureLog(t)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithClaims(ctx, &auth.Claims{UserID: "user-42", Username: "admin", Role: "admin"})

	if err := LogEvent(ctx, "clientes.create", map[string]any{"id": "c1"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" || entry["event"] != "clientes.create" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "user-42" || entry["username"] != "admin" {
		t.Fatalf("unexpected user: %v %v", entry["user_id"], entry["username"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["id"] != "c1" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventAnonymous(t *testing.T) {
	buf := captureLog(t)

	if err := LogEvent(context.Background(), "webhook.message", nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if _, ok := entry["user_id"]; ok {
		t.Fatalf("anonymous event must not carry a user: %v", entry)
	}
	if fields, ok := entry["fields"].(map[string]any); !ok || len(fields) != 0 {
		t.Fatalf("expected empty fields object, got %v", entry["fields"])
	}
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatalf("expected error for blank event")
	}
}
