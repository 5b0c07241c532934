// Package remotelog is a small client-side logger with two sinks: a styled
// console and a remote collection endpoint.
//
// Every call at Info, Warn, Error or Fatal is rendered for the console as a
// colored level tag, the message and one "key=value" line per string or
// numeric param. It is also turned into a JSON event
//
//	{"level":"INFO","msg":"user login","env":"prod","userId":42}
//
// where msg is the sanitized message, default params come before the call's
// own params, and a parsed "error" param is spread into top-level fields.
// The event is handed to a Transport without waiting for delivery. Each sink
// has its own Gate; Debug only ever prints and never sends.
//
// Logging never fails the caller: encoding problems drop the offending field,
// panicking hooks are contained, and a send that cannot be started is
// reported as a console-only Debug entry.
//
//	log, err := remotelog.New("https://logs.example/ingest",
//		remotelog.WithDefaultParams(remotelog.Fields{"env": "prod"}),
//		remotelog.WithSendGate(remotelog.When(online)),
//	)
//	if err != nil {
//		return err
//	}
//	defer log.Close(ctx)
//
//	log.Info("user login", remotelog.Fields{"userId": 42})
//
// A Logger is immutable after New. Sharing one process-wide is up to the
// caller.
package remotelog
