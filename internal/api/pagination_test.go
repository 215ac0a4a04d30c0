package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/things", nil)
	p := ParsePagination(r, 50, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestParsePaginationClampsAndOffsets(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?page=3&limit=9999", nil)
	p := ParsePagination(r, 50, 500)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 500, p.Limit)
	assert.Equal(t, 1000, p.Offset)

	r = httptest.NewRequest("GET", "/things?page=junk&limit=-2", nil)
	p = ParsePagination(r, 25, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 25, p.Limit)
}

func TestNewPaginatedResponse(t *testing.T) {
	p := PaginationParams{Page: 2, Limit: 10, Offset: 10}
	resp := NewPaginatedResponse([]string{"a"}, p, 25)
	assert.Equal(t, int64(25), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasMore)

	resp = NewPaginatedResponse(nil, PaginationParams{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasMore)
}
