package zaplog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/logging/zaplog"
)

func TestProviderAttachesModuleAndContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := zaplog.FromCore(core)

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"build": "b2"})
	logger := logging.ContentLogger(provider).WithContext(ctx)
	logger.Warn("content.record.missing_fields", "kind", "podcast")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["module"] != "docsite.content" {
		t.Fatalf("expected module field, got %#v", fields)
	}
	if fields["build"] != "b2" || fields["kind"] != "podcast" {
		t.Fatalf("expected build and kind fields, got %#v", fields)
	}
	if entries[0].LoggerName != "docsite.content" {
		t.Fatalf("expected named logger, got %q", entries[0].LoggerName)
	}
}

func TestProviderWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	provider := zaplog.NewProvider(zaplog.Config{Level: "info", Writer: &buf})

	logger := provider.GetLogger("docsite.test")
	logger.Debug("dropped")
	logger.Info("kept", "route", "/")
	if err := provider.Sync(); err != nil {
		t.Logf("sync: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["route"] != "/" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}
