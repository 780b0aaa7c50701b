package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	p := New(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())
}

func TestNew_NegativeFallsBack(t *testing.T) {
	p := New(-3, -1)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
}

func TestNew_ClampsPerPage(t *testing.T) {
	p := New(2, 9999)
	assert.Equal(t, MaxPerPage, p.PerPage)
	assert.Equal(t, 100, p.Offset())
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 24, Params{Page: 3, PerPage: 12}.Offset())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 12))
	assert.Equal(t, 1, TotalPages(12, 12))
	assert.Equal(t, 2, TotalPages(13, 12))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 25, Params{Page: 2, PerPage: 12})

	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)
	assert.Len(t, r.Data, 2)
}

func TestNewResult_NilData(t *testing.T) {
	r := NewResult[int](nil, 0, New(1, 12))

	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
	assert.False(t, r.HasNext)
	assert.False(t, r.HasPrev)
}
