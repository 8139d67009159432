package logger

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func resetGlobal() {
	globalLogger = nil
	once = sync.Once{}
}

func TestInit(t *testing.T) {
	resetGlobal()

	cfg := Config{Level: "info", Format: "json"}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init() error = %v, want nil", err)
	}
	first := Get()

	// Second call is a no-op
	if err := Init(Config{Level: "debug", Format: "text"}); err != nil {
		t.Errorf("Init() second call error = %v, want nil", err)
	}
	if Get() != first {
		t.Error("second Init() replaced the global logger")
	}
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"json", Config{Level: "info", Format: "json"}},
		{"text", Config{Level: "debug", Format: "text"}},
		{"invalid level falls back", Config{Level: "invalid-level", Format: "json"}},
		{"text with file", Config{Level: "info", Format: "text", File: filepath.Join(t.TempDir(), "logs", "app.log")}},
		{"json with file", Config{Level: "info", Format: "json", File: filepath.Join(t.TempDir(), "app.log"), Compress: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
			l.Info("rendered", zap.String(FieldReportID, "abc"))
		})
	}
}

func TestApplyRotationDefaults(t *testing.T) {
	cfg := Config{}
	applyRotationDefaults(&cfg)
	if cfg.MaxSize != 100 || cfg.MaxAge != 7 || cfg.MaxBackups != 5 {
		t.Errorf("defaults = %d/%d/%d, want 100/7/5", cfg.MaxSize, cfg.MaxAge, cfg.MaxBackups)
	}

	cfg = Config{MaxSize: 1, MaxAge: 2, MaxBackups: 3}
	applyRotationDefaults(&cfg)
	if cfg.MaxSize != 1 || cfg.MaxAge != 2 || cfg.MaxBackups != 3 {
		t.Error("explicit rotation values were overwritten")
	}
}

func TestGet_Uninitialized(t *testing.T) {
	resetGlobal()
	if Get() == nil {
		t.Error("Get() returned nil logger")
	}
	if err := Sync(); err != nil {
		t.Errorf("Sync() with uninitialized logger error = %v, want nil", err)
	}
}

func TestChildLoggers(t *testing.T) {
	resetGlobal()
	_ = Init(Config{Level: "debug", Format: "json"})

	if With(zap.String("key", "value")) == nil {
		t.Error("With() returned nil")
	}
	if Named("render") == nil {
		t.Error("Named() returned nil")
	}
	if ForComponent("chart") == nil {
		t.Error("ForComponent() returned nil")
	}
	if WithReport("") != Get() {
		t.Error("WithReport(\"\") should return the global logger")
	}
	if WithReport("c0ffee") == Get() {
		t.Error("WithReport(id) should return a child logger")
	}

	Debug("debug message", zap.String("key", "value"))
	Info("info message", zap.Int("count", 2))
	Warn("warn message", zap.Bool("ok", false))
	Error("error message", zap.Error(errors.New("boom")))
}

func TestKVConsoleEncoder(t *testing.T) {
	enc := newKVConsoleEncoder(textEncoderConfig(bracketLevelEncoder))
	entry := zapcore.Entry{
		Level:   zapcore.WarnLevel,
		Time:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Message: "chart render failed",
	}

	buf, err := enc.EncodeEntry(entry, []zapcore.Field{
		zap.String("canvas", "footprint-chart"),
		zap.Int("attempt", 1),
		zap.Float64("total", 45.5),
		zap.Duration("took", 1500*time.Millisecond),
		zap.Error(errors.New("canvas busy")),
	})
	if err != nil {
		t.Fatalf("EncodeEntry() error = %v", err)
	}
	line := buf.String()

	for _, want := range []string{
		"[2024-05-01 10:30:00]",
		"[WARN]",
		"chart render failed",
		"canvas=footprint-chart",
		"attempt=1",
		"total=45.5",
		"took=1.5s",
		"error=canvas busy",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("encoded line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("encoded line should end with a newline")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantError bool
	}{
		{"valid debug", "debug", false},
		{"valid info", "info", false},
		{"valid warn", "warn", false},
		{"valid error", "error", false},
		{"invalid level", "invalid", true},
		{"empty level", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLevel(tt.level)
			if (err != nil) != tt.wantError {
				t.Errorf("parseLevel(%q) error = %v, wantError = %v", tt.level, err, tt.wantError)
			}
		})
	}
}
