package zaplog

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Config selects the zap encoder and minimum level.
type Config struct {
	Level  string
	Format string
	Writer io.Writer
}

// Provider adapts a zap sugared logger to interfaces.LoggerProvider.
type Provider struct {
	sugar *zap.SugaredLogger
}

// NewProvider builds a zap core writing JSON (default) or console encoded
// entries to cfg.Writer, falling back to stdout.
func NewProvider(cfg Config) *Provider {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console", "text", "pretty":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var out io.Writer = os.Stdout
	if cfg.Writer != nil {
		out = cfg.Writer
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), parseLevel(cfg.Level))
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Provider{sugar: logger.Sugar()}
}

// FromCore wraps an existing core, mainly for tests using zaptest/observer.
func FromCore(core zapcore.Core) *Provider {
	return &Provider{sugar: zap.New(core).Sugar()}
}

// Sync flushes buffered entries.
func (p *Provider) Sync() error {
	if p == nil || p.sugar == nil {
		return nil
	}
	return p.sugar.Sync()
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.sugar == nil {
		return logging.NoOp()
	}
	sugar := p.sugar
	if name = strings.TrimSpace(name); name != "" {
		sugar = sugar.Named(name)
	}
	return &adapter{sugar: sugar}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

type adapter struct {
	sugar *zap.SugaredLogger
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

// zap has no trace level.
func (a *adapter) Trace(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a *adapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.sugar.Infow(msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.sugar.Warnw(msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }
func (a *adapter) Fatal(msg string, args ...any) { a.sugar.Fatalw(msg, args...) }

func (a *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return a
	}
	return &adapter{sugar: a.sugar.With(flatten(fields)...)}
}

func (a *adapter) WithContext(ctx context.Context) interfaces.Logger {
	return a.WithFields(logging.ContextFields(ctx))
}

func flatten(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	return args
}
