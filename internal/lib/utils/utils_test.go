package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(i int) *int { return &i }

func TestPagination(t *testing.T) {
	tests := []struct {
		name                    string
		page, limit             *int
		wantP, wantL, wantOffst int
	}{
		{name: "defaults", wantP: 1, wantL: 10, wantOffst: 0},
		{name: "third page", page: ptr(3), limit: ptr(20), wantP: 3, wantL: 20, wantOffst: 40},
		{name: "limit clamped", page: ptr(2), limit: ptr(500), wantP: 2, wantL: 100, wantOffst: 100},
		{name: "non positive ignored", page: ptr(0), limit: ptr(-1), wantP: 1, wantL: 10, wantOffst: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, l, offset := Pagination(tt.page, tt.limit)
			assert.Equal(t, tt.wantP, p)
			assert.Equal(t, tt.wantL, l)
			assert.Equal(t, tt.wantOffst, offset)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"totalSeen": 0}))
	assert.Equal(t, "{\n  \"totalSeen\": 0\n}\n", buf.String())
}
