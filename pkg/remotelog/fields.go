package remotelog

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrorKey is the reserved parameter carrying an error-like value.
const ErrorKey = "error"

// Fields are the parameters of a log call. Values are expected to be
// strings or numbers; anything else is left out of the console rendering
// but still sent to the endpoint.
type Fields map[string]any

// ErrorParser flattens the value stored under ErrorKey into primitive
// fields, e.g. {"code": 500, "detail": "upstream timeout"}.
type ErrorParser func(err any) Fields

// mergeFields folds the variadic params of a log call into one new map.
// It returns nil when no params were passed at all.
func mergeFields(params []Fields) Fields {
	if len(params) == 0 {
		return nil
	}

	merged := make(Fields)
	for _, p := range params {
		for k, v := range p {
			merged[k] = v
		}
	}
	return merged
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// primitive renders strings and numbers. Booleans, nil, maps, slices,
// structs and pointers are not primitive.
func primitive(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	default:
		return "", false
	}
}

// logString renders params as space-joined key=value tokens in key order.
// With an error parser configured, the parsed error's primitive fields are
// rendered in place of the raw error.
func (l *Logger) logString(params Fields) string {
	tokens := make([]string, 0, len(params))

	for _, key := range sortedKeys(params) {
		value := params[key]

		if key == ErrorKey && l.errorParser != nil {
			parsed, ok := l.parseError(value)
			if !ok {
				continue
			}
			for _, k := range sortedKeys(parsed) {
				if s, ok := primitive(parsed[k]); ok {
					tokens = append(tokens, k+"="+s)
				}
			}
			continue
		}

		if s, ok := primitive(value); ok {
			tokens = append(tokens, key+"="+s)
		}
	}

	return strings.TrimSpace(strings.Join(tokens, " "))
}

// consoleLines turns a log string into one line per space-separated token.
func consoleLines(logString string) []string {
	if logString == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(logString, " ", "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseError runs the caller's parser. A panic inside it drops the field.
func (l *Logger) parseError(raw any) (parsed Fields, ok bool) {
	defer func() {
		if recover() != nil {
			parsed, ok = nil, false
		}
	}()
	return l.errorParser(raw), true
}
