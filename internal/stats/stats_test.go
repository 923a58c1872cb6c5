package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderWithoutRedis(t *testing.T) {
	r := New(nil)
	assert.False(t, r.Enabled())
	require.NoError(t, r.Record(context.Background(), "1.2.3.4"))
	tot, err := r.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{}, tot)

	var none *Recorder
	assert.False(t, none.Enabled())
}

func TestBloomPositions(t *testing.T) {
	a := bloomPositions([]byte("1.2.3.4"), bloomBits, bloomHashes)
	b := bloomPositions([]byte("1.2.3.4"), bloomBits, bloomHashes)
	c := bloomPositions([]byte("5.6.7.8"), bloomBits, bloomHashes)
	require.Len(t, a, bloomHashes)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, p := range a {
		assert.GreaterOrEqual(t, p, int64(0))
		assert.Less(t, p, int64(bloomBits))
	}
}

func TestBloomNilClientAllows(t *testing.T) {
	first, err := bloomCheckAndSet(context.Background(), nil, "k", []int64{1, 2}, dayTTL)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestToInt(t *testing.T) {
	assert.Equal(t, int64(42), toInt("42"))
	assert.Zero(t, toInt(nil))
	assert.Zero(t, toInt("x"))
}
