package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 10))
	assert.Equal(t, "ab", SanitizeString("abcdef", 2))
	assert.Equal(t, "abcdef", SanitizeString("abcdef", 0))
	// Truncation counts runes, not bytes.
	assert.Equal(t, "hél", SanitizeString("héllo", 3))
}
