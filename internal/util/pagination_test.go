package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	from, limit := Calculate(1, 10)
	assert.Equal(t, 0, from)
	assert.Equal(t, 10, limit)

	from, limit = Calculate(3, 20)
	assert.Equal(t, 40, from)
	assert.Equal(t, 20, limit)

	// out-of-range inputs fall back to sane defaults
	from, limit = Calculate(0, -5)
	assert.Equal(t, 0, from)
	assert.Equal(t, DefaultPageSize, limit)

	_, limit = Calculate(1, 1000)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("seven", 1))
}
