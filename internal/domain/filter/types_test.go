package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero", Page{}, Page{Number: 1, Size: DefaultPageSize}},
		{"negative", Page{Number: -3, Size: -1}, Page{Number: 1, Size: DefaultPageSize}},
		{"oversized", Page{Number: 2, Size: 1000}, Page{Number: 2, Size: MaxPageSize}},
		{"valid", Page{Number: 3, Size: 25}, Page{Number: 3, Size: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPage_LimitOffset(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	assert.Equal(t, uint64(20), p.Limit())
	assert.Equal(t, uint64(40), p.Offset())

	assert.Equal(t, uint64(0), Page{}.Offset())
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 21, Page{Number: 2, Size: 10})
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext())
	assert.True(t, r.HasPrevious())

	empty := NewResult[int](nil, 0, Page{})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext())
	assert.False(t, empty.HasPrevious())
}
