// Package logger provides structured logging capabilities for the application.
// It wraps uber-go/zap for leveled logging with key=value console output or JSON output,
// and rotates log files through lumberjack.
package logger

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field keys shared by every component that logs report activity.
const (
	FieldReportID  = "report_id"
	FieldRequestID = "request_id"
	FieldComponent = "component"
)

var bufferpool = buffer.NewPool()

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format is the output format (json, text)
	Format string `yaml:"format"`
	// File is the log file path (empty for stdout only).
	// When set, logs are written to both console and file
	File string `yaml:"file"`
	// MaxSize is the maximum size in megabytes of the log file before it gets rotated
	MaxSize int `yaml:"max_size"`
	// MaxAge is the maximum number of days to retain old log files
	MaxAge int `yaml:"max_age"`
	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int `yaml:"max_backups"`
	// Compress determines if the rotated log files should be compressed using gzip
	Compress bool `yaml:"compress"`
	// AccessLog enables info-level logging of successful HTTP requests
	AccessLog bool `yaml:"access_log"`
	// Stderr sends console output to stderr, keeping stdout free for command output
	Stderr bool `yaml:"-"`
}

// Init initializes the global logger with the given configuration.
// This function is safe to call multiple times; only the first call will take effect.
func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		globalLogger, initErr = New(cfg)
	})
	return initErr
}

// New builds a standalone logger from cfg without touching the global instance.
// An unknown level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	applyRotationDefaults(&cfg)

	var consoleEnc, fileEnc zapcore.Encoder
	if cfg.Format == "text" {
		consoleEnc = newKVConsoleEncoder(textEncoderConfig(bracketColorLevelEncoder))
		fileEnc = newKVConsoleEncoder(textEncoderConfig(bracketLevelEncoder))
	} else {
		consoleEnc = zapcore.NewJSONEncoder(jsonEncoderConfig())
		fileEnc = consoleEnc
	}

	console := os.Stdout
	if cfg.Stderr {
		console = os.Stderr
	}
	core := zapcore.NewCore(consoleEnc, zapcore.AddSync(console), level)
	if cfg.File != "" {
		sink, err := fileSink(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory: %v, using console only\n", err)
		} else {
			core = zapcore.NewTee(core, zapcore.NewCore(fileEnc, sink, level))
		}
	}

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

func applyRotationDefaults(cfg *Config) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}
}

// fileSink returns a rotating writer for cfg.File, creating its directory first.
func fileSink(cfg Config) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}), nil
}

func textEncoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          zapcore.OmitKey,
		CallerKey:        "caller",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder,
		EncodeTime:       bracketTimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// bracketTimeEncoder formats time with brackets: [2006-01-02 15:04:05]
func bracketTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05") + "]")
}

// bracketLevelEncoder formats level with brackets: [INFO]
func bracketLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

// bracketColorLevelEncoder formats level with brackets and ANSI color
func bracketColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color := "\x1b[0m"
	switch level {
	case zapcore.DebugLevel:
		color = "\x1b[35m"
	case zapcore.InfoLevel:
		color = "\x1b[34m"
	case zapcore.WarnLevel:
		color = "\x1b[33m"
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = "\x1b[31m"
	}
	enc.AppendString(color + "[" + level.CapitalString() + "]\x1b[0m")
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

// Get returns the global logger instance.
// If the logger hasn't been initialized, it returns a no-op logger.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// Named creates a child logger with the given name
func Named(name string) *zap.Logger {
	return Get().Named(name)
}

// ForComponent returns a child logger tagged with the component name.
func ForComponent(component string) *zap.Logger {
	return Get().With(zap.String(FieldComponent, component))
}

// WithReport returns a child logger carrying the report ID, or the global logger when id is empty.
func WithReport(reportID string) *zap.Logger {
	if reportID == "" {
		return Get()
	}
	return Get().With(zap.String(FieldReportID, reportID))
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// kvConsoleEncoder wraps the console encoder but writes fields as key=value pairs
type kvConsoleEncoder struct {
	zapcore.Encoder
	cfg zapcore.EncoderConfig
}

func newKVConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &kvConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		cfg:     cfg,
	}
}

// Clone creates a copy of the encoder
func (e *kvConsoleEncoder) Clone() zapcore.Encoder {
	return &kvConsoleEncoder{
		Encoder: e.Encoder.Clone(),
		cfg:     e.cfg,
	}
}

// EncodeEntry writes "[time] [LEVEL] caller msg key=value ..." followed by a line ending.
func (e *kvConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := bufferpool.Get()
	sep := e.cfg.ConsoleSeparator

	prefix := &stringsEncoder{}
	if e.cfg.EncodeTime != nil {
		e.cfg.EncodeTime(entry.Time, prefix)
	}
	if e.cfg.EncodeLevel != nil {
		e.cfg.EncodeLevel(entry.Level, prefix)
	}
	if entry.Caller.Defined && e.cfg.EncodeCaller != nil {
		e.cfg.EncodeCaller(entry.Caller, prefix)
	}
	for _, s := range prefix.elems {
		buf.AppendString(s)
		buf.AppendString(sep)
	}

	buf.AppendString(entry.Message)

	for _, field := range fields {
		buf.AppendString(sep)
		buf.AppendString(field.Key)
		buf.AppendByte('=')
		appendFieldValue(buf, field)
	}

	if entry.Stack != "" && e.cfg.StacktraceKey != "" {
		buf.AppendString(zapcore.DefaultLineEnding)
		buf.AppendString(entry.Stack)
	}

	if e.cfg.LineEnding != "" {
		buf.AppendString(e.cfg.LineEnding)
	} else {
		buf.AppendString(zapcore.DefaultLineEnding)
	}
	return buf, nil
}

// stringsEncoder collects the primitive output of time, level and caller encoders.
type stringsEncoder struct {
	elems []string
}

func (s *stringsEncoder) add(v any)                      { s.elems = append(s.elems, fmt.Sprint(v)) }
func (s *stringsEncoder) AppendBool(v bool)              { s.add(v) }
func (s *stringsEncoder) AppendByteString(v []byte)      { s.elems = append(s.elems, string(v)) }
func (s *stringsEncoder) AppendComplex128(v complex128)  { s.add(v) }
func (s *stringsEncoder) AppendComplex64(v complex64)    { s.add(v) }
func (s *stringsEncoder) AppendFloat64(v float64)        { s.add(v) }
func (s *stringsEncoder) AppendFloat32(v float32)        { s.add(v) }
func (s *stringsEncoder) AppendInt(v int)                { s.add(v) }
func (s *stringsEncoder) AppendInt64(v int64)            { s.add(v) }
func (s *stringsEncoder) AppendInt32(v int32)            { s.add(v) }
func (s *stringsEncoder) AppendInt16(v int16)            { s.add(v) }
func (s *stringsEncoder) AppendInt8(v int8)              { s.add(v) }
func (s *stringsEncoder) AppendString(v string)          { s.elems = append(s.elems, v) }
func (s *stringsEncoder) AppendUint(v uint)              { s.add(v) }
func (s *stringsEncoder) AppendUint64(v uint64)          { s.add(v) }
func (s *stringsEncoder) AppendUint32(v uint32)          { s.add(v) }
func (s *stringsEncoder) AppendUint16(v uint16)          { s.add(v) }
func (s *stringsEncoder) AppendUint8(v uint8)            { s.add(v) }
func (s *stringsEncoder) AppendUintptr(v uintptr)        { s.add(v) }
func (s *stringsEncoder) AppendDuration(v time.Duration) { s.elems = append(s.elems, v.String()) }
func (s *stringsEncoder) AppendTime(v time.Time)         { s.elems = append(s.elems, v.String()) }
func (s *stringsEncoder) AppendArray(v zapcore.ArrayMarshaler) error {
	return v.MarshalLogArray(s)
}
func (s *stringsEncoder) AppendObject(zapcore.ObjectMarshaler) error { return nil }
func (s *stringsEncoder) AppendReflected(v interface{}) error {
	s.add(v)
	return nil
}

func appendFieldValue(buf *buffer.Buffer, field zapcore.Field) {
	switch field.Type {
	case zapcore.StringType:
		buf.AppendString(field.String)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		buf.AppendInt(field.Integer)
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		buf.AppendUint(uint64(field.Integer))
	case zapcore.Float64Type:
		buf.AppendFloat(math.Float64frombits(uint64(field.Integer)), 64)
	case zapcore.Float32Type:
		buf.AppendFloat(float64(math.Float32frombits(uint32(field.Integer))), 32)
	case zapcore.BoolType:
		buf.AppendBool(field.Integer == 1)
	case zapcore.DurationType:
		buf.AppendString(time.Duration(field.Integer).String())
	case zapcore.TimeType:
		t := time.Unix(0, field.Integer)
		if loc, ok := field.Interface.(*time.Location); ok {
			t = t.In(loc)
		}
		buf.AppendString(t.String())
	case zapcore.TimeFullType:
		buf.AppendString(field.Interface.(time.Time).String())
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			buf.AppendString(err.Error())
		} else {
			buf.AppendString("<nil>")
		}
	case zapcore.StringerType:
		if stringer, ok := field.Interface.(fmt.Stringer); ok {
			buf.AppendString(stringer.String())
		}
	default:
		if field.Interface != nil {
			buf.AppendString(fmt.Sprint(field.Interface))
		}
	}
}
