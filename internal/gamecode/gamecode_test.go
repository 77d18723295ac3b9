package gamecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/trump304/internal/randutil"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator(randutil.New(1))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := gen.Generate()
		require.NoError(t, Validate(code))
		seen[code] = true
	}
	// Collisions in 100 draws from 36^6 would mean a broken source
	assert.Len(t, seen, 100)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC123", Normalize("  abc123 "))
	assert.Equal(t, "ABC123", Normalize("ABC123"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("ABC123"))
	assert.Error(t, Validate("ABC12"))
	assert.Error(t, Validate("ABC1234"))
	assert.Error(t, Validate("abc123"))
	assert.Error(t, Validate("ABC12!"))
}
