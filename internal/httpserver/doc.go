// Package httpserver wraps http.Server with address validation, an
// observable bound address and a bounded graceful shutdown.
package httpserver
