package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampIndex(t *testing.T) {
	tests := []struct {
		name string
		idx  int
		n    int
		want int
	}{
		{name: "in range", idx: 1, n: 3, want: 1},
		{name: "too large", idx: 5, n: 3, want: 2},
		{name: "negative", idx: -1, n: 3, want: 0},
		{name: "empty", idx: 2, n: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampIndex(tt.idx, tt.n))
		})
	}
}
