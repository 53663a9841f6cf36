package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsTermRecursively(t *testing.T) {
	record := ToolRecord{
		"biotoolsID": "trimal",
		"term":       "top level",
		"topic": []any{
			map[string]any{
				"uri":  "http://edamontology.org/topic_0080",
				"term": "Sequence analysis",
			},
		},
		"function": map[string]any{
			"operation": []any{
				map[string]any{
					"uri":  "http://edamontology.org/operation_0258",
					"term": "Alignment analysis",
					"note": map[string]any{"term": "nested", "keep": true},
				},
			},
		},
	}

	expect := ToolRecord{
		"biotoolsID": "trimal",
		"topic": []any{
			map[string]any{
				"uri": "http://edamontology.org/topic_0080",
			},
		},
		"function": map[string]any{
			"operation": []any{
				map[string]any{
					"uri":  "http://edamontology.org/operation_0258",
					"note": map[string]any{"keep": true},
				},
			},
		},
	}

	got := Normalize(record)
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("normalized record mismatch (-want +got):\n%s", diff)
	}

	// The input record is never mutated.
	require.Equal(t, "top level", record["term"])
}

func TestNormalize_Nil(t *testing.T) {
	require.Nil(t, Normalize(nil))
}

func TestDiff_EqualAfterNormalization(t *testing.T) {
	local := Normalize(ToolRecord{
		"biotoolsID": "trimal",
		"topic":      []any{map[string]any{"uri": "u", "term": "local label"}},
	})
	remote := Normalize(ToolRecord{
		"biotoolsID": "trimal",
		"topic":      []any{map[string]any{"uri": "u", "term": "remote label"}},
	})
	require.Empty(t, Diff(remote, local))
}

func TestDiff_ReportsChange(t *testing.T) {
	local := Normalize(ToolRecord{"biotoolsID": "trimal", "version": "2.0"})
	remote := Normalize(ToolRecord{"biotoolsID": "trimal", "version": "1.0"})
	require.NotEmpty(t, Diff(remote, local))
}
