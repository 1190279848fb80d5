package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithEmitsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "t1")
	ctx = WithUserID(ctx, "u1")
	ctx = WithJobID(ctx, "j1")

	With(ctx, &base).Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	for key, want := range map[string]string{
		"trace_id": "t1",
		"user_id":  "u1",
		"job_id":   "j1",
	} {
		if got, _ := entry[key].(string); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestWithoutContextFieldsAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	With(context.Background(), &base).Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	for _, key := range []string{"trace_id", "user_id", "job_id"} {
		if _, ok := entry[key]; ok {
			t.Errorf("unexpected %s field in %s", key, buf.String())
		}
	}
}
