package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%%", likePattern(""))
	assert.Equal(t, "%taco%", likePattern("  taco "))
	assert.Equal(t, `%100\% beef\_ish\\%`, likePattern(`100% beef_ish\`))
}

func TestNullFloatRoundTrip(t *testing.T) {
	assert.Nil(t, floatPtr(nullFloat(nil)))
	v := 37.77
	got := floatPtr(nullFloat(&v))
	if assert.NotNil(t, got) {
		assert.Equal(t, v, *got)
		assert.NotSame(t, &v, got)
	}
	assert.Nil(t, floatPtr(sql.NullFloat64{Float64: 1}))
}

func TestEmptyStatusesSkipQuery(t *testing.T) {
	// no db attached: an empty status list must not reach it
	s := &Store{}
	got, err := s.ByStatus(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.SearchApplicant(context.Background(), "taco", "", []string{})
	assert.NoError(t, err)
	assert.Empty(t, got)
}
