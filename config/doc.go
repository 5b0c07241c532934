// Package config loads remotelog settings from remotelog.yaml and REMOTELOG_*
// environment variables. It covers the collection endpoint, the console and
// send gates, default params, per-level colors, transport tuning, the
// diagnostics logger and the metrics listener, and translates them into
// logger and transport options.
package config
