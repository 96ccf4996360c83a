package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextFromRow(t *testing.T) {
	max := int64(41)

	next, ok := nextFromRow(maxRow{Max: &max}, true)
	assert.True(t, ok)
	assert.Equal(t, int64(42), next)
}

func TestNextFromRowEmptyCollection(t *testing.T) {
	_, ok := nextFromRow(maxRow{}, false)
	assert.False(t, ok, "no row means no ids exist yet")
}

func TestNextFromRowNullMax(t *testing.T) {
	// $max over documents lacking the field yields a row with a null max.
	_, ok := nextFromRow(maxRow{Max: nil}, true)
	assert.False(t, ok)
}
