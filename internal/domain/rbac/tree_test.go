package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adminpanel/internal/core/entity"
)

func page(id int64, parent *int64) Page {
	return Page{BaseEntity: entity.BaseEntity{ID: id}, ParentID: parent}
}

func ptr(v int64) *int64 { return &v }

func TestDescendants(t *testing.T) {
	pages := []Page{
		page(1, nil),
		page(2, ptr(1)),
		page(3, ptr(2)),
		page(4, ptr(1)),
		page(5, nil),
	}

	assert.Equal(t, map[int64]struct{}{2: {}, 3: {}, 4: {}}, Descendants(pages, 1))
	assert.Empty(t, Descendants(pages, 5))
}

func TestDescendants_Cycle(t *testing.T) {
	// 1 -> 2 -> 3 -> 1
	pages := []Page{page(1, ptr(3)), page(2, ptr(1)), page(3, ptr(2))}

	got := Descendants(pages, 1)
	assert.Equal(t, map[int64]struct{}{2: {}, 3: {}}, got)
}

func TestValidParent(t *testing.T) {
	pages := []Page{page(1, nil), page(2, ptr(1)), page(3, ptr(2)), page(9, nil)}

	assert.False(t, ValidParent(pages, 1, 1), "self")
	assert.False(t, ValidParent(pages, 1, 3), "grandchild")
	assert.True(t, ValidParent(pages, 3, 1))
	assert.True(t, ValidParent(pages, 1, 9))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "/users", NormalizeURL("users"))
	assert.Equal(t, "/users", NormalizeURL("/users"))
	assert.Equal(t, "/x", NormalizeURL("  x "))
}
