package repository

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults", 0, 0, 0, DefaultPageSize},
		{"negative page", -3, 10, 0, 10},
		{"too large", 2, 10_000, 2, MaxPageSize},
		{"unchanged", 1, 25, 1, 25},
		{"huge page", math.MaxInt, MaxPageSize, MaxPage, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := NormalizePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}
