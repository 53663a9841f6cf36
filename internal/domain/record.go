package domain

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// ToolRecord is one tool's metadata document as a generic key tree. Values are
// whatever the decoder produced: strings, numbers, nested mappings, sequences.
type ToolRecord map[string]any

// DecodeToolRecord parses a JSON document into a ToolRecord.
func DecodeToolRecord(data []byte) (ToolRecord, error) {
	var record ToolRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, E(CodeInvalidArgument, "domain.DecodeToolRecord", "", err)
	}
	return record, nil
}

// ID returns the record's biotoolsID, or "" when absent or not a string.
func (r ToolRecord) ID() string {
	id, _ := r[IdentifierKey].(string)
	return strings.TrimSpace(id)
}

// ToolIDFromPath derives a tool id from a content file path: the basename up
// to the first dot, so "content/data/trimal/trimal.biotools.json" -> "trimal".
func ToolIDFromPath(path string) string {
	base := filepath.Base(path)
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	return base
}
