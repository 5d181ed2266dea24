// Package log wraps logrus behind the small leveled interface the rest of the
// module is written against. Loggers are created by the caller and passed in;
// nothing here keeps process-wide state.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debug(msg any)
	DebugF(format string, a ...any)
	Info(msg any)
	InfoF(format string, a ...any)
	Warn(msg any)
	WarnF(format string, a ...any)
	Error(msg any)
	ErrorF(format string, a ...any)
	// With returns a logger that tags every line with key=value.
	With(key string, value any) Logger
}

type logger struct {
	entry *logrus.Entry
}

// New builds a logger at the given level ("trace", "debug", "info", "warn",
// "error"). When file is empty lines go to stdout, otherwise the file is
// truncated and written to; the returned closer releases it.
func New(level, file string) (Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if nil != err {
		return nil, nil, err
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if nil != err {
			return nil, nil, err
		}
		out, closer = f, f
	}
	return NewWithWriter(out, lvl), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func NewWithWriter(w io.Writer, level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return &logger{entry: logrus.NewEntry(l)}
}

// Discard drops everything; handy in tests.
func Discard() Logger {
	return NewWithWriter(io.Discard, logrus.PanicLevel)
}

func ParseLevel(s string) (logrus.Level, error) {
	if s == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(s)
	if nil != err {
		return lvl, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

func (l *logger) Debug(msg any) {
	l.entry.Debug(msg)
}

func (l *logger) DebugF(format string, a ...any) {
	l.entry.Debugf(format, a...)
}

func (l *logger) Info(msg any) {
	l.entry.Info(msg)
}

func (l *logger) InfoF(format string, a ...any) {
	l.entry.Infof(format, a...)
}

func (l *logger) Warn(msg any) {
	l.entry.Warn(msg)
}

func (l *logger) WarnF(format string, a ...any) {
	l.entry.Warnf(format, a...)
}

func (l *logger) Error(msg any) {
	l.entry.Error(msg)
}

func (l *logger) ErrorF(format string, a ...any) {
	l.entry.Errorf(format, a...)
}

func (l *logger) With(key string, value any) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}
