package log

import (
	"io"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var Discard = New(WithLevel(Silent), WithWriter(io.Discard))

// New creates a logger writing to stderr at [Info] level, so that stdout
// carries only command output.
func New(ops ...Option) *Logger {
	defaults := []Option{
		WithLogger(&Logger{zerolog.New(nil).
			With().Timestamp().Logger(),
		}),
		WithWriter(os.Stderr),
		WithLevel(Info),
	}

	var l Logger
	for _, op := range slices.Concat(defaults, ops) {
		op(&l)
	}
	return &l
}

func WithLogger(l *Logger) Option {
	return func(ll *Logger) {
		ll.log = l.log
	}
}

func WithFields(f Fields) Option {
	return func(l *Logger) {
		l.log = l.log.With().Fields(map[string]any(f)).Logger()
	}
}

func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.log = l.log.Level(makeZerologLevel(level))
	}
}

func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		out := w
		if isTerminal(w) {
			out = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
				cw.TimeFormat = time.DateTime
				cw.Out = w
			})
		}
		l.log = l.log.Output(out)
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return true
	}
	return false
}

type Option func(*Logger)

type Fields map[string]any

type Logger struct {
	log zerolog.Logger
}

func (l *Logger) Error(msg string, err error) {
	l.logEntry(Error, msg, nil, err)
}

func (l *Logger) Info(msg string, f Fields) {
	l.logEntry(Info, msg, f, nil)
}

// Zerolog exposes the underlying logger for libraries that accept one directly.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.log
}

func (l *Logger) logEntry(level Level, msg string, f Fields, err error) {
	entry := l.log.WithLevel(makeZerologLevel(level))
	if err != nil {
		entry = entry.Err(err)
	}

	entry.Fields(map[string]any(f)).
		Msg(msg)
}
