package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

var (
	defaultsMu     sync.RWMutex
	defaultLevel   string
	defaultConsole bool
)

// Configure sets the level and format used by New when LOG_LEVEL and
// APP_ENV are unset.
func Configure(level string, console bool) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultLevel, defaultConsole = level, console
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment variable
// to determine the output format. Logs go to stderr and include the provided
// component field.
func NewZerologLogger(component string) Logger {
	defaultsMu.RLock()
	level, console := defaultLevel, defaultConsole
	defaultsMu.RUnlock()
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		console = strings.ToLower(env) == "dev"
	}
	var out io.Writer = os.Stderr
	if console {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(component, out, level)
}

// NewWithWriter writes JSON lines to w at the given level. Unknown or empty
// levels default to debug.
func NewWithWriter(component string, w io.Writer, level string) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
