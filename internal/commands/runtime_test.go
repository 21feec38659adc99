package commands

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type capturedLogger struct {
	fields map[string]any
}

func (l *capturedLogger) Trace(string, ...any) {}
func (l *capturedLogger) Debug(string, ...any) {}
func (l *capturedLogger) Info(string, ...any) {}
func (l *capturedLogger) Warn(string, ...any) {}
func (l *capturedLogger) Error(string, ...any) {}
func (l *capturedLogger) Fatal(string, ...any) {}
func (l *capturedLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *capturedLogger) WithFields(fields map[string]any) interfaces.Logger {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

type namedProvider struct {
	names  []string
	logger *capturedLogger
}

func (p *namedProvider) GetLogger(name string) interfaces.Logger {
	p.names = append(p.names, name)
	return p.logger
}

func TestCommandLoggerScopesModule(t *testing.T) {
	provider := &namedProvider{logger: &capturedLogger{fields: map[string]any{}}}

	CommandLogger(provider, " static ")
	CommandLogger(provider, "")

	if len(provider.names) != 2 || provider.names[0] != "docsite.commands.static" || provider.names[1] != "docsite.commands.site" {
		t.Fatalf("unexpected logger names %v", provider.names)
	}
	if provider.logger.fields["component"] != "command" || provider.logger.fields["command_module"] != "site" {
		t.Fatalf("unexpected fields %v", provider.logger.fields)
	}
}

func TestCommandLoggerWithoutProvider(t *testing.T) {
	if CommandLogger(nil, "static") == nil {
		t.Fatal("expected a no-op logger")
	}
}

func TestRuntimeHelpers(t *testing.T) {
	if EnsureContext(nil) == nil {
		t.Fatal("expected background context")
	}
	if EnsureLogger(nil) == nil {
		t.Fatal("expected no-op logger")
	}

	ctx := context.Background()
	same, cancel := WithCommandTimeout(ctx, 0)
	cancel()
	if same != ctx {
		t.Fatal("zero timeout must keep the context")
	}
	bounded, cancel := WithCommandTimeout(ctx, time.Minute)
	defer cancel()
	if _, ok := bounded.Deadline(); !ok {
		t.Fatal("expected a deadline")
	}
}
