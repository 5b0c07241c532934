package remotelog

import (
	"github.com/angeloszaimis/remotelog/pkg/metrics"
)

// Option configures a Logger.
type Option func(*Logger)

// WithDefaultParams merges params into every payload sent to the endpoint,
// before the call's own params. The map is copied.
func WithDefaultParams(params Fields) Option {
	return func(l *Logger) {
		copied := make(Fields, len(params))
		for k, v := range params {
			copied[k] = v
		}
		l.defaults = paramSource{static: copied}
	}
}

// WithDefaultParamsFunc is WithDefaultParams resolved on every send.
func WithDefaultParamsFunc(fn func() Fields) Option {
	return func(l *Logger) { l.defaults = paramSource{fn: fn} }
}

// WithErrorParser normalizes the "error" param for both the console and the
// payload.
func WithErrorParser(p ErrorParser) Option {
	return func(l *Logger) { l.errorParser = p }
}

// WithSendGate decides whether Info, Warn, Error and Fatal reach the
// endpoint. Default: always.
func WithSendGate(g Gate) Option {
	return func(l *Logger) { l.sendGate = g }
}

// WithConsoleGate decides whether Info, Warn, Error and Fatal reach the
// console. Debug ignores it. Default: always.
func WithConsoleGate(g Gate) Option {
	return func(l *Logger) { l.consoleGate = g }
}

// WithPrintColors overrides the highlight color of some levels with hex
// strings such as "#00bcd4". Unparseable values fall back to the default.
func WithPrintColors(colors map[Level]string) Option {
	return func(l *Logger) {
		for level, hex := range colors {
			if _, _, _, ok := parseHex(hex); ok {
				l.colors[level] = hex
			}
		}
	}
}

// WithConsole replaces the terminal console on stdout.
func WithConsole(c Console) Option {
	return func(l *Logger) {
		if c != nil {
			l.console = c
		}
	}
}

// WithTransport replaces the default HTTP transport. A transport passed
// here is not closed by Logger.Close.
func WithTransport(t Transport) Option {
	return func(l *Logger) {
		if t != nil {
			l.transport = t
		}
	}
}

// WithMetrics reports log calls, console writes and suppressed sends to r.
func WithMetrics(r metrics.Recorder) Option {
	return func(l *Logger) {
		if r != nil {
			l.recorder = r
		}
	}
}

type paramSource struct {
	static Fields
	fn     func() Fields
}

// resolve never panics; a panicking supplier yields no defaults.
func (s paramSource) resolve() (params Fields) {
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()

	if s.fn != nil {
		return s.fn()
	}
	return s.static
}
