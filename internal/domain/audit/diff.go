package audit

import (
	"bytes"
	"encoding/json"
	"sort"
)

// AffectedColumns returns the sorted top-level keys whose JSON values differ
// between oldJSON and newJSON. A key missing on one side counts as null.
// Inputs that are not JSON objects yield no columns.
func AffectedColumns(oldJSON, newJSON []byte) []string {
	oldFields := objectFields(oldJSON)
	newFields := objectFields(newJSON)

	keys := make(map[string]struct{}, len(oldFields)+len(newFields))
	for k := range oldFields {
		keys[k] = struct{}{}
	}
	for k := range newFields {
		keys[k] = struct{}{}
	}

	out := make([]string, 0, len(keys))
	for k := range keys {
		if !bytes.Equal(normalizeValue(oldFields[k]), normalizeValue(newFields[k])) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func objectFields(raw []byte) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

var jsonNull = []byte("null")

func normalizeValue(v json.RawMessage) []byte {
	if len(v) == 0 {
		return jsonNull
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return v
	}
	return buf.Bytes()
}
