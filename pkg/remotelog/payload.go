package remotelog

import (
	"bytes"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/angeloszaimis/remotelog/pkg/transport"
)

// Each run of these characters, with any whitespace mixed into or around
// it, collapses to a single space.
var punctuation = regexp.MustCompile(`[\s()\-&$#!\[\]{}"',.]*[()\-&$#!\[\]{}"',.]+[\s()\-&$#!\[\]{}"',.]*`)

var payloadJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Sanitize strips punctuation from a message, trims it and lowercases it.
// It is idempotent.
func Sanitize(message string) string {
	return strings.ToLower(strings.TrimSpace(punctuation.ReplaceAllString(message, " ")))
}

// orderedFields keeps first-insertion order while letting later writes win,
// the way object spreading does.
type orderedFields struct {
	keys   []string
	values map[string]any
}

func newOrderedFields() *orderedFields {
	return &orderedFields{values: make(map[string]any)}
}

func (o *orderedFields) set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *orderedFields) spread(params Fields) {
	for _, k := range sortedKeys(params) {
		o.set(k, params[k])
	}
}

// encode writes the fields as one JSON object. A value the encoder rejects
// is left out rather than failing the whole event.
func (o *orderedFields) encode() ([]byte, error) {
	stream := payloadJSON.BorrowStream(nil)
	defer payloadJSON.ReturnStream(stream)

	stream.WriteObjectStart()
	first := true
	for _, k := range o.keys {
		raw, err := payloadJSON.Marshal(o.values[k])
		if err != nil {
			continue
		}
		// jsoniter passes invalid UTF-8 through; JSON syntax is ASCII, so
		// any bad byte sits inside a string literal.
		if !utf8.Valid(raw) {
			raw = bytes.ToValidUTF8(raw, []byte("\uFFFD"))
		}
		if !first {
			stream.WriteMore()
		}
		stream.WriteObjectField(strings.ToValidUTF8(k, "\uFFFD"))
		stream.WriteRaw(string(raw))
		first = false
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, errors.Wrap(stream.Error, "encode log event")
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// resolveError replaces the "error" param with its parsed form. A nil parse
// result falls back to the raw value; a map is spread into the params, any
// other value stays under "error".
func (l *Logger) resolveError(params Fields) (remaining, spread Fields) {
	raw, ok := params[ErrorKey]
	if !ok || raw == nil {
		return params, nil
	}

	resolved := raw
	if l.errorParser != nil {
		parsed, ok := l.parseError(raw)
		if !ok {
			delete(params, ErrorKey)
			return params, nil
		}
		if parsed != nil {
			resolved = parsed
		}
	}

	switch v := resolved.(type) {
	case Fields:
		delete(params, ErrorKey)
		return params, v
	case map[string]any:
		delete(params, ErrorKey)
		return params, v
	case error:
		text, ok := errorText(v)
		if !ok {
			delete(params, ErrorKey)
			return params, nil
		}
		params[ErrorKey] = text
	}
	return params, nil
}

// errorText reports false when Error panics, as a typed nil pointer's
// method usually does.
func errorText(err error) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()
	return err.Error(), true
}

// buildEvent assembles {level, msg, ...defaults, ...params} and pairs it
// with the capture time. params must be owned by the caller of buildEvent.
func (l *Logger) buildEvent(level Level, message string, params Fields) (transport.Event, error) {
	timestamp := time.Now().UnixMilli()

	body := newOrderedFields()
	body.set("level", level.Tag())
	body.set("msg", Sanitize(message))
	body.spread(l.defaults.resolve())

	if params != nil {
		remaining, parsed := l.resolveError(params)
		body.spread(remaining)
		body.spread(parsed)
	}

	encoded, err := body.encode()
	if err != nil {
		return transport.Event{}, err
	}

	return transport.Event{
		Endpoint:  l.endpoint,
		Body:      encoded,
		Timestamp: timestamp,
		Level:     level.Tag(),
	}, nil
}
