package remotelog

import (
	"strings"

	"github.com/pkg/errors"
)

// Level tags a log call. It drives styling and the "level" payload field;
// nothing is filtered by level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelFatal {
		return "unknown"
	}
	return levelNames[l]
}

// Tag is the uppercased name used in console tags and payloads.
func (l Level) Tag() string {
	return strings.ToUpper(l.String())
}

// ParseLevel accepts the lowercase names returned by String, plus "warning".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, errors.Errorf("unknown level %q", s)
	}
}

// Levels lists every level in ascending severity.
func Levels() []Level {
	return []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}
}
