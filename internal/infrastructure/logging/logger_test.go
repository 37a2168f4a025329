package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

func TestFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = domain.ContextWithUser(ctx, &domain.User{ID: "user-1"})

	var buf bytes.Buffer
	log := FromContext(ctx, zerolog.New(&buf))
	log.Info().Msg("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if entry["request_id"] != "req-1" {
		t.Fatalf("expected request_id, got %v", entry["request_id"])
	}
	if entry["user_id"] != "user-1" {
		t.Fatalf("expected user_id, got %v", entry["user_id"])
	}
}

func TestFromContextWithoutFields(t *testing.T) {
	var buf bytes.Buffer
	log := FromContext(context.Background(), zerolog.New(&buf))
	log.Info().Msg("bare")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if _, ok := entry["request_id"]; ok {
		t.Fatalf("unexpected request_id in %v", entry)
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
}
