package remotelog

import (
	"context"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"

	"github.com/angeloszaimis/remotelog/pkg/metrics"
	"github.com/angeloszaimis/remotelog/pkg/transport"
)

// Transport starts delivering an event without waiting for it. A returned
// error means the send could not even be started.
type Transport interface {
	Send(event transport.Event) error
}

type closer interface {
	Close(ctx context.Context) error
}

// Logger writes each call to the console and sends it to a collection
// endpoint, each sink behind its own gate. Its configuration never changes
// after New, so one Logger may be shared freely between goroutines.
type Logger struct {
	endpoint      string
	defaults      paramSource
	errorParser   ErrorParser
	sendGate      Gate
	consoleGate   Gate
	colors        map[Level]string
	console       Console
	transport     Transport
	ownsTransport bool
	recorder      metrics.Recorder
}

// New builds a Logger for endpoint, which must be an absolute http(s) URL.
// Unless WithTransport is given, the Logger starts its own HTTP transport
// and Close shuts it down.
func New(endpoint string, opts ...Option) (*Logger, error) {
	if err := validation.Validate(endpoint,
		validation.Required,
		validation.By(validateEndpoint),
	); err != nil {
		return nil, errors.Wrap(err, "remotelog: endpoint")
	}

	l := &Logger{
		endpoint: endpoint,
		colors:   make(map[Level]string, len(defaultColors)),
		recorder: metrics.Discard,
	}
	for level, hex := range defaultColors {
		l.colors[level] = hex
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.console == nil {
		l.console = DefaultConsole()
	}
	if l.transport == nil {
		l.transport = transport.New(transport.WithMetrics(l.recorder))
		l.ownsTransport = true
	}

	return l, nil
}

// Endpoint returns the collection endpoint events are sent to.
func (l *Logger) Endpoint() string {
	return l.endpoint
}

// Debug always prints to the console, ignoring the console gate, and never
// sends anything to the endpoint.
func (l *Logger) Debug(message string, params ...Fields) {
	defer guard()

	merged := mergeFields(params)
	l.recorder.Record(metrics.Event{Type: metrics.EventLogCall, Level: LevelDebug.String()})
	l.print(LevelDebug, message, merged)
}

// Info prints and sends an informational entry.
func (l *Logger) Info(message string, params ...Fields) {
	l.log(LevelInfo, message, params)
}

// Warn prints and sends a warning.
func (l *Logger) Warn(message string, params ...Fields) {
	l.log(LevelWarn, message, params)
}

// Error prints and sends an error entry. The "error" param goes through
// the error parser, if any.
func (l *Logger) Error(message string, params ...Fields) {
	l.log(LevelError, message, params)
}

// Fatal only tags the entry; it does not exit.
func (l *Logger) Fatal(message string, params ...Fields) {
	l.log(LevelFatal, message, params)
}

// Close shuts down the transport New created. It is a no-op for a
// transport passed with WithTransport.
func (l *Logger) Close(ctx context.Context) error {
	if !l.ownsTransport {
		return nil
	}
	if c, ok := l.transport.(closer); ok {
		return c.Close(ctx)
	}
	return nil
}

func (l *Logger) log(level Level, message string, params []Fields) {
	defer guard()

	merged := mergeFields(params)
	l.recorder.Record(metrics.Event{Type: metrics.EventLogCall, Level: level.String()})

	if l.consoleGate.Allow() {
		l.print(level, message, merged)
	}

	if !l.sendGate.Allow() {
		l.recorder.Record(metrics.Event{Type: metrics.EventSendSuppressed, Level: level.String()})
		return
	}

	event, err := l.buildEvent(level, message, merged)
	if err != nil {
		l.Debug("remotelog could not encode event", Fields{"level": level.Tag(), "reason": err.Error()})
		return
	}

	if err := l.transport.Send(event); err != nil {
		l.Debug("remotelog failed to send event", Fields{"level": level.Tag(), "reason": err.Error()})
	}
}

// print contains its own panics so a broken console never costs the send.
func (l *Logger) print(level Level, message string, params Fields) {
	defer guard()

	r := Rendering{
		Level:   level,
		Tag:     level.Tag(),
		Color:   l.colors[level],
		Message: message,
		Lines:   consoleLines(l.logString(params)),
	}
	if level == LevelDebug {
		r.Raw = params
	}

	l.console.Print(r)
	l.recorder.Record(metrics.Event{Type: metrics.EventConsoleWritten, Level: level.String()})
}

// guard keeps a misbehaving Console or Transport from crashing the caller.
func guard() {
	recover()
}

func validateEndpoint(value interface{}) error {
	endpoint, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsed.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
