package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseFields turns command-line assignments into a record payload.
//
//	title=Groceries       string value
//	done:=true            JSON value (bool, number, array, object, null)
//
// Later assignments to the same key win.
func ParseFields(assignments []string) (map[string]any, error) {
	fields := make(map[string]any, len(assignments))
	for _, a := range assignments {
		// ":=" only counts when it holds the first "=".
		if i := strings.Index(a, ":="); i >= 0 && strings.Index(a, "=") == i+1 {
			key := strings.TrimSpace(a[:i])
			if key == "" {
				return nil, fmt.Errorf("missing field name in %q", a)
			}
			dec := json.NewDecoder(bytes.NewReader([]byte(a[i+2:])))
			dec.UseNumber()
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("field %q: invalid JSON value: %w", key, err)
			}
			if _, err := dec.Token(); err != io.EOF {
				return nil, fmt.Errorf("field %q: unexpected data after JSON value", key)
			}
			fields[key] = v
			continue
		}

		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("missing field name in %q", a)
		}
		fields[key] = value
	}
	return fields, nil
}
