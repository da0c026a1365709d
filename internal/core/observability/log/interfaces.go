package log

import (
	"time"

	"go.uber.org/zap"
)

// Log is the logging interface handed to every subsystem. It is a thin
// facade over zap so that tests can swap in Nop() without touching sinks.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log

	SetLevel(level Level)
	GetLevel() Level
}

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent Level = 0xFF
)

// Field is a structured log field. Aliased to zap's field type so helper
// constructors stay allocation-free.
type Field = zap.Field

func Any(key string, val any) Field         { return zap.Any(key, val) }
func Bool(key string, val bool) Field       { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Float64(key string, val float64) Field { return zap.Float64(key, val) }
func Int(key string, val int) Field         { return zap.Int(key, val) }
func Int64(key string, val int64) Field     { return zap.Int64(key, val) }
func String(key string, val string) Field   { return zap.String(key, val) }
func Uint64(key string, val uint64) Field   { return zap.Uint64(key, val) }
func Error(val error) Field                 { return zap.Error(val) }
