package prefstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValue(t *testing.T) {
	for _, v := range []any{"CELSIUS", "", "s:nested", true, false} {
		raw, err := encodeValue(v)
		require.NoError(t, err)

		got, err := decodeValue(raw)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEncodeRejectsUnsupportedType(t *testing.T) {
	_, err := encodeValue(42)
	assert.Error(t, err)
}

func TestDecodeAllSkipsBadEntries(t *testing.T) {
	var skipped []string
	p := decodeAll(map[string]string{
		"unit":   "s:KMH",
		"toggle": "b:maybe",
		"legacy": "KMH",
	}, func(key string, err error) {
		skipped = append(skipped, key)
	})

	assert.Equal(t, 1, p.Len())
	unit, ok := Get(p, StringKey("unit"))
	assert.True(t, ok)
	assert.Equal(t, "KMH", unit)
	assert.ElementsMatch(t, []string{"toggle", "legacy"}, skipped)
}
