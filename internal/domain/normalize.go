package domain

import "github.com/google/go-cmp/cmp"

// Normalize returns a deep copy of the record with every key literally named
// "term" removed, at any depth. The registry derives term labels from EDAM
// identifiers on its side, so they are never authoritative in the content tree
// and must not participate in change detection.
func Normalize(record ToolRecord) ToolRecord {
	if record == nil {
		return nil
	}
	return normalizeMapping(record)
}

// Diff reports the structural difference between two normalized records.
// An empty string means the records are equal.
func Diff(remote, local ToolRecord) string {
	return cmp.Diff(remote, local)
}

func normalizeMapping(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		if key == NormalizedKey {
			continue
		}
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return normalizeMapping(v)
	case ToolRecord:
		return normalizeMapping(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return value
	}
}
