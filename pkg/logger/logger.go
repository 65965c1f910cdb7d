// Package logger defines the logging abstraction used across the agora
// client and server. Implementations exist for zerolog (the server default)
// and log/slog (see the slog subpackage).
package logger

// Logger accepts a message plus alternating key/value pairs, in the style
// of log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Nop discards everything. It is the fallback wherever a nil Logger would
// otherwise be dereferenced.
type Nop struct{}

func (Nop) Debug(msg string, args ...any) {}
func (Nop) Info(msg string, args ...any)  {}
func (Nop) Warn(msg string, args ...any)  {}
func (Nop) Error(msg string, args ...any) {}

var _ Logger = Nop{}

// OrNop returns l, or a Nop logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
