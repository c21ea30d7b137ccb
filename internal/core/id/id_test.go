package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, Unique([]int64{3, 1, 3, 0, 2, -1, 1}))
	assert.Empty(t, Unique(nil))
}

func TestNewEvent_TimeOrdered(t *testing.T) {
	a := NewEvent()
	b := NewEvent()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 7, int(a.Version()))
}
