package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_PinnedAndAdvance(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	start := time.Date(2026, time.March, 15, 10, 0, 0, 0, loc)

	c := NewFakeClock(start)
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(start))
	assert.True(t, c.Now().Equal(c.Now()), "must not drift between reads")

	c.Advance(48 * time.Hour)
	assert.True(t, c.Now().Equal(start.Add(48*time.Hour)))
}

func TestSystemClock_UTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
