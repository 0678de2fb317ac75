package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsSkipsEmptyEntries(t *testing.T) {
	t.Parallel()

	fields := StringFields(
		StringField{Key: "  ", Value: "ignored"},
		StringField{Key: "kept", Value: "  value  "},
		StringField{Key: "empty", Value: "   "},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "kept" || fields[0].String != "value" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
}

func TestWithAdvisorFieldsNilLogger(t *testing.T) {
	t.Parallel()

	logger := WithAdvisorFields(nil, "gemini", "gemini-2.5-pro")
	if logger == nil {
		t.Fatalf("expected non-nil logger")
	}

	// Must not panic when used.
	logger.Info("ok")
}

func TestWithAdvisorFieldsAttachesProviderAndModel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := WithAdvisorFields(zap.New(core), "gemini", "gemini-2.5-pro")
	logger.Info("consult")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("missing provider field: %v", ctx)
	}
	if ctx[FieldModel] != "gemini-2.5-pro" {
		t.Fatalf("missing model field: %v", ctx)
	}
}
