package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenAfterMark(t *testing.T) {
	c := NewCache(10)

	assert.False(t, c.Seen("e1"))
	c.MarkSeen("e1")
	assert.True(t, c.Seen("e1"))
	assert.False(t, c.Seen("e2"))
}

func TestOverflowClearsWholeCache(t *testing.T) {
	c := NewCache(3)
	c.MarkSeen("a")
	c.MarkSeen("b")
	c.MarkSeen("c")
	assert.Equal(t, 3, c.Len())

	// The fourth insert drops the whole window first. Forgetting previously
	// seen ids under load is the documented tradeoff of this policy.
	c.MarkSeen("d")
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Seen("d"))
	assert.False(t, c.Seen("a"))
	assert.False(t, c.Seen("b"))
}

func TestZeroSizeFallsBackToDefault(t *testing.T) {
	c := NewCache(0)
	c.MarkSeen("x")
	assert.True(t, c.Seen("x"))
	assert.Equal(t, 1, c.Len())
}
