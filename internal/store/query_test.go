package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemQuerySkip(t *testing.T) {
	tests := []struct {
		name string
		q    ItemQuery
		want int
	}{
		{"first page", ItemQuery{Page: 1, Limit: 12}, 0},
		{"third page", ItemQuery{Page: 3, Limit: 10}, 20},
		{"zero page", ItemQuery{Page: 0, Limit: 10}, 0},
		{"no limit", ItemQuery{Page: 5}, 0},
		{"huge page", ItemQuery{Page: 100000000000000000, Limit: 100}, MaxSkip},
		{"max int page", ItemQuery{Page: math.MaxInt, Limit: 1}, MaxSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Skip())
		})
	}
}
