// Package logger builds the slog.Logger used for remotelog's own
// diagnostics: transport delivery outcomes, collector lifecycle and
// logship progress. Shipped log events never pass through it.
package logger
