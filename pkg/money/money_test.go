package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.57, Round2(10.567))
	assert.Equal(t, 10.56, Round2(10.562))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -2.35, Round2(-2.347))
	assert.Equal(t, 100.0, Round2(33.33+33.33+33.34))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(100, 100))
	assert.True(t, Equal(100, 100.01))
	assert.True(t, Equal(100.01, 100))
	assert.False(t, Equal(100, 100.02))
}

func TestGreaterThan(t *testing.T) {
	assert.False(t, GreaterThan(100, 100))
	assert.False(t, GreaterThan(100.01, 100))
	assert.True(t, GreaterThan(100.02, 100))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(0))
	assert.True(t, IsZero(0.004))
	assert.True(t, IsZero(-0.004))
	assert.False(t, IsZero(0.01))
}
