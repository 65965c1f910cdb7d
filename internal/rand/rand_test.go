package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestIDLength(t *testing.T) {
	for _, n := range []int{1, 16, 64} {
		assert.Len(t, NewRequestID(n), n)
	}
}

func TestNewRequestIDCharset(t *testing.T) {
	id := NewRequestID(256)
	for _, r := range id {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		require.True(t, isLower || isUpper || isDigit, "unexpected rune %q", r)
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		id := NewRequestID(16)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
