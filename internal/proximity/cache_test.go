package proximity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestCacheExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(time.Hour)
	c.SetClock(clk.now)

	payload := results(1.5, 2.5)
	c.Store("fp", payload)

	clk.t = clk.t.Add(3599 * time.Second)
	e, ok := c.Lookup("fp")
	require.True(t, ok)
	assert.Equal(t, payload, e.Payload)

	clk.t = clk.t.Add(2 * time.Second)
	_, ok = c.Lookup("fp")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "stale entries are kept until overwritten")

	c.Store("fp", results(9))
	e, ok = c.Lookup("fp")
	require.True(t, ok)
	assert.Equal(t, []float64{9}, distances(e.Payload))
}

func TestCacheEmptyPayloadIsAHit(t *testing.T) {
	c := NewCache(time.Hour)
	c.Store("empty", nil)
	e, ok := c.Lookup("empty")
	assert.True(t, ok)
	assert.Empty(t, e.Payload)
}

func TestCacheIsolatesPayload(t *testing.T) {
	c := NewCache(time.Hour)
	in := results(1, 2)
	c.Store("fp", in)
	in[0].DistanceKM = 100

	e, _ := c.Lookup("fp")
	e.Payload[1].DistanceKM = 200

	again, _ := c.Lookup("fp")
	assert.Equal(t, []float64{1, 2}, distances(again.Payload))
}

func TestCacheReset(t *testing.T) {
	c := NewCache(0)
	c.Store("a", nil)
	c.Store("b", nil)
	c.Reset()
	assert.Zero(t, c.Len())
	_, ok := c.Lookup("a")
	assert.False(t, ok)
}
