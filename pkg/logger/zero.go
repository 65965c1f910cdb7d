package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Zero adapts a zerolog.Logger to the Logger interface.
type Zero struct {
	zl zerolog.Logger
}

// NewZero wraps an existing zerolog.Logger.
func NewZero(zl zerolog.Logger) *Zero {
	return &Zero{zl: zl}
}

// NewZeroWriter builds a zerolog-backed Logger writing to w at the given
// level. Unknown level strings fall back to info. When console is true the
// output is human-readable instead of JSON.
func NewZeroWriter(w io.Writer, level string, console bool) *Zero {
	if w == nil {
		w = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Zero{zl: zl}
}

// WithComponent returns a child logger tagged with a component field.
func (z *Zero) WithComponent(component string) *Zero {
	return &Zero{zl: z.zl.With().Str("component", component).Logger()}
}

func (z *Zero) Debug(msg string, args ...any) { emit(z.zl.Debug(), msg, args) }
func (z *Zero) Info(msg string, args ...any)  { emit(z.zl.Info(), msg, args) }
func (z *Zero) Warn(msg string, args ...any)  { emit(z.zl.Warn(), msg, args) }
func (z *Zero) Error(msg string, args ...any) { emit(z.zl.Error(), msg, args) }

var _ Logger = (*Zero)(nil)

func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
