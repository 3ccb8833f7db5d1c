package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/coffer/internal/crypto"
	"github.com/PolarWolf314/coffer/internal/records"
	"github.com/PolarWolf314/coffer/internal/ui"
)

var (
	fieldAssignments []string
	unsetFields      []string
	sortField        string
	sortDescending   bool
	searchFields     []string
	revealSecrets    bool
)

// resetRecordCommandState resets the record commands' global state for testing.
func resetRecordCommandState() {
	fieldAssignments = nil
	unsetFields = nil
	sortField = records.KeyModified
	sortDescending = false
	searchFields = nil
	revealSecrets = false
}

// titleFields are tried in order for the one-line summary of a record.
var titleFields = []string{"title", "name", "service", "site", "bank", "label", "description"}

func recordTitle(rec records.Record) string {
	for _, f := range titleFields {
		if s, ok := rec.String(f); ok && s != "" {
			return s
		}
	}
	return ""
}

// formatRecordLine renders "[id] title (modified)".
func formatRecordLine(rec records.Record) string {
	line := ui.ID.Sprint(rec.ID)
	if title := recordTitle(rec); title != "" {
		line += " " + title
	}
	if done, ok := rec.Fields["completed"].(bool); ok && done {
		line += " " + ui.Success.Sprint("✓")
	}
	if !rec.Modified.IsZero() {
		line += " " + ui.Muted.Sprint(rec.Modified.Local().Format(time.DateTime))
	}
	return line
}

// formatRecord renders every field of rec, masking sensitive values unless
// reveal is set.
func formatRecord(rec records.Record, reveal bool) string {
	var b strings.Builder
	b.WriteString(ui.ID.Sprint(rec.ID) + "\n")
	if !rec.Created.IsZero() {
		b.WriteString(ui.KeyValue(2, ui.Field.Sprint(records.KeyCreated), rec.Created.Local().Format(time.DateTime)) + "\n")
	}
	if !rec.Modified.IsZero() {
		b.WriteString(ui.KeyValue(2, ui.Field.Sprint(records.KeyModified), rec.Modified.Local().Format(time.DateTime)) + "\n")
	}

	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		value := formatValue(rec.Fields[k])
		if isSensitive(k) && !reveal {
			value = ui.Secret.Sprint(crypto.MaskSecret(value, 4))
		}
		b.WriteString(ui.KeyValue(2, ui.Field.Sprint(k), value) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return fmt.Sprintf("%t", val)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
