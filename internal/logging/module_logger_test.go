package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "docsite.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerAnnotatesModuleField(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	GeneratorLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != generatorModule {
		t.Fatalf("expected module %s, got %v", generatorModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != generatorModule {
		t.Fatalf("expected module field %s, got %v", generatorModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = ModuleLogger(provider, "")
	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestWithPageContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	WithPageContext(rec, "/podcast/", " ", "")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields[fieldRoute] != "/podcast/" {
		t.Fatalf("expected route field, got %v", fields)
	}
	if _, ok := fields[fieldLocale]; ok {
		t.Fatalf("expected blank locale to be skipped, got %v", fields)
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"build_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"route": "/"})

	fields := ContextFields(ctx)
	if fields["build_id"] != "a" || fields["route"] != "/" {
		t.Fatalf("expected merged fields, got %v", fields)
	}
	fields["build_id"] = "mutated"
	if ContextFields(ctx)["build_id"] != "a" {
		t.Fatal("expected ContextFields to return a copy")
	}
}
