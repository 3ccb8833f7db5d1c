package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	cerrors "github.com/PolarWolf314/coffer/internal/errors"
)

// Keys managed by the store. They cannot appear in Record.Fields.
const (
	KeyID       = "id"
	KeyCreated  = "created"
	KeyModified = "modified"
)

// Record is one item in a module collection. Fields holds the module's own
// payload; its layout is up to the caller.
type Record struct {
	ID       string
	Created  time.Time
	Modified time.Time
	Fields   map[string]any
}

// New returns an unsaved record carrying fields.
func New(fields map[string]any) Record {
	return Record{Fields: fields}
}

// Clone returns a copy whose Fields map can be changed independently. Nested
// values are shared.
func (r Record) Clone() Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	return out
}

// Value returns the named field. The managed keys resolve to the record's
// own id and timestamps.
func (r Record) Value(field string) (any, bool) {
	switch field {
	case KeyID:
		return r.ID, r.ID != ""
	case KeyCreated:
		return r.Created, !r.Created.IsZero()
	case KeyModified:
		return r.Modified, !r.Modified.IsZero()
	}
	v, ok := r.Fields[field]
	return v, ok
}

// String returns the named field when it holds a string.
func (r Record) String(field string) (string, bool) {
	v, ok := r.Value(field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalJSON writes the record as one flat object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[KeyID] = r.ID
	if !r.Created.IsZero() {
		out[KeyCreated] = r.Created.UTC().Format(time.RFC3339Nano)
	}
	if !r.Modified.IsZero() {
		out[KeyModified] = r.Modified.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat object. Numbers are kept as json.Number so
// integers survive a round trip unchanged.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: record must be a JSON object", cerrors.ErrValidation)
	}

	var rec Record
	switch id := raw[KeyID].(type) {
	case nil:
	case string:
		rec.ID = id
	case json.Number:
		rec.ID = id.String()
	default:
		return fmt.Errorf("%w: record id has type %T", cerrors.ErrValidation, id)
	}

	var err error
	if rec.Created, err = parseTimestamp(raw, KeyCreated); err != nil {
		return err
	}
	if rec.Modified, err = parseTimestamp(raw, KeyModified); err != nil {
		return err
	}

	delete(raw, KeyID)
	delete(raw, KeyCreated)
	delete(raw, KeyModified)
	rec.Fields = raw

	*r = rec
	return nil
}

func parseTimestamp(raw map[string]any, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 string", cerrors.ErrValidation, key)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", cerrors.ErrValidation, key, err)
	}
	return t, nil
}

// validateFields rejects managed keys and payloads that cannot be encoded.
func validateFields(fields map[string]any) error {
	for _, k := range []string{KeyID, KeyCreated, KeyModified} {
		if _, ok := fields[k]; ok {
			return fmt.Errorf("%w: field %q is managed by the store", cerrors.ErrValidation, k)
		}
	}
	if _, err := json.Marshal(fields); err != nil {
		return fmt.Errorf("%w: record is not serializable: %v", cerrors.ErrValidation, err)
	}
	return nil
}
