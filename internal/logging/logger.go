// Package logging provides the leveled console logger used for progress
// lines and diagnostics. It is built on zap: a console encoder laid out as
// "2006-01-02 15:04:05 [LEVEL] text", ERROR routed to stderr, everything
// else to stdout, and an optional plain-text file sink.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/supermin/internal/config"
	"github.com/backmassage/supermin/internal/term"
)

const timeLayout = "2006-01-02 15:04:05"

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	log     *zap.SugaredLogger
	success *zap.SugaredLogger
	file    *os.File
}

// NewLogger configures terminal colors from cfg, opens cfg.LogFile for
// appending when set, and writes console output to os.Stdout/os.Stderr.
// Call Close() when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	return New(cfg, os.Stdout, os.Stderr)
}

// New builds a Logger writing to the given console streams. Colors follow
// the current [term] state; callers that skip [NewLogger] get plain output.
func New(cfg *config.Config, stdout, stderr io.Writer) (*Logger, error) {
	l := &Logger{}

	var fileSink zapcore.WriteSyncer
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		fileSink = zapcore.Lock(f)
	}

	threshold := zapcore.InfoLevel
	if cfg.Verbose {
		threshold = zapcore.DebugLevel
	}

	sinks := sinks{
		stdout: zapcore.Lock(zapcore.AddSync(stdout)),
		stderr: zapcore.Lock(zapcore.AddSync(stderr)),
		file:   fileSink,
	}
	l.log = zap.New(sinks.tee(threshold, levelLabel)).Sugar()
	l.success = zap.New(sinks.tee(threshold, successLabel)).Sugar()
	return l, nil
}

// sinks holds the shared writers so the regular and success loggers
// serialize through the same locks.
type sinks struct {
	stdout zapcore.WriteSyncer
	stderr zapcore.WriteSyncer
	file   zapcore.WriteSyncer
}

type labelFunc func(l zapcore.Level, color bool) string

func (s sinks) tee(threshold zapcore.Level, label labelFunc) zapcore.Core {
	colored := zapcore.NewConsoleEncoder(encoderConfig(label, term.Enabled()))
	plain := zapcore.NewConsoleEncoder(encoderConfig(label, false))

	cores := []zapcore.Core{
		zapcore.NewCore(colored, s.stdout, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= threshold && l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(colored, s.stderr, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= threshold && l >= zapcore.ErrorLevel
		})),
	}
	if s.file != nil {
		cores = append(cores, zapcore.NewCore(plain, s.file, threshold))
	}
	return zapcore.NewTee(cores...)
}

func encoderConfig(label labelFunc, color bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(label(l, color))
		},
	}
}

func levelLabel(l zapcore.Level, color bool) string {
	name := l.CapitalString()
	if !color {
		return "[" + name + "]"
	}
	c := term.Blue
	switch l {
	case zapcore.DebugLevel:
		c = term.Cyan
	case zapcore.WarnLevel:
		c = term.Yellow
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		c = term.Red
	}
	return term.Paint(c, "["+name+"]")
}

func successLabel(_ zapcore.Level, color bool) string {
	if !color {
		return "[SUCCESS]"
	}
	return term.Paint(term.Green, "[SUCCESS]")
}

// Close flushes the cores and closes the log file if one was opened.
func (l *Logger) Close() error {
	_ = l.log.Sync()
	_ = l.success.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Success logs at INFO severity with a green SUCCESS label.
func (l *Logger) Success(format string, args ...interface{}) {
	l.success.Infof(format, args...)
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

// Error logs at ERROR level (red), to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

// Debug logs at DEBUG level (cyan); dropped unless the config was verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
