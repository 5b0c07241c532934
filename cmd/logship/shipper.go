package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/angeloszaimis/remotelog/pkg/remotelog"
)

const maxLineSize = 1 << 20

// shipper turns input lines into log calls. A line whose first word names a
// level ("ERROR", "[warn]", "fatal:") is logged at that level, anything else
// at the configured default.
type shipper struct {
	logger       *remotelog.Logger
	defaultLevel remotelog.Level
	source       string
}

func newShipper(logger *remotelog.Logger, level remotelog.Level, source string) *shipper {
	return &shipper{
		logger:       logger,
		defaultLevel: level,
		source:       source,
	}
}

// Run ships r line by line until EOF or ctx is done and returns the number
// of lines shipped. Blank lines are skipped but still counted in line
// numbers.
func (s *shipper) Run(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	shipped, lineNo := 0, 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return shipped, err
		}

		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.ship(line, lineNo)
		shipped++
	}

	if err := scanner.Err(); err != nil {
		return shipped, errors.Wrap(err, "read input")
	}
	return shipped, nil
}

func (s *shipper) ship(line string, lineNo int) {
	level := s.levelFor(line)
	params := remotelog.Fields{
		"line":   lineNo,
		"source": s.source,
	}

	switch level {
	case remotelog.LevelDebug:
		s.logger.Debug(line, params)
	case remotelog.LevelWarn:
		s.logger.Warn(line, params)
	case remotelog.LevelError:
		s.logger.Error(line, params)
	case remotelog.LevelFatal:
		s.logger.Fatal(line, params)
	default:
		s.logger.Info(line, params)
	}
}

func (s *shipper) levelFor(line string) remotelog.Level {
	word, _, _ := strings.Cut(line, " ")
	word = strings.Trim(word, "[]:")

	if level, err := remotelog.ParseLevel(word); err == nil {
		return level
	}
	return s.defaultLevel
}
