package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowErrorAlwaysCarriesField(t *testing.T) {
	raw, err := json.Marshal(ImportResult{
		Errors:   []RowError{{Row: 3, Message: "insert business: slug already taken"}},
		Warnings: []string{},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "duplicates_skipped")

	rowErr := decoded["errors"].([]any)[0].(map[string]any)
	assert.Contains(t, rowErr, "field")
	assert.Equal(t, "", rowErr["field"])
	assert.NotContains(t, rowErr, "value", "absent values stay omitted")
}
