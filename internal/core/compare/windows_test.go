package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplementPartitionsDomain(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		excluded []Range
		want     []Range
	}{
		{
			name:     "default windows",
			n:        3500,
			excluded: []Range{{3260, 3280}, {400, 800}},
			want:     []Range{{0, 400}, {800, 3260}, {3280, 3500}},
		},
		{
			name:     "window at the tail",
			n:        3280,
			excluded: []Range{{3260, 3280}, {400, 800}},
			want:     []Range{{0, 400}, {800, 3260}},
		},
		{
			name:     "overlapping windows",
			n:        100,
			excluded: []Range{{10, 50}, {40, 60}},
			want:     []Range{{0, 10}, {60, 100}},
		},
		{
			name:     "nested window",
			n:        100,
			excluded: []Range{{10, 90}, {20, 30}},
			want:     []Range{{0, 10}, {90, 100}},
		},
		{
			name:     "everything excluded",
			n:        20,
			excluded: []Range{{0, 10}, {10, 20}},
			want:     nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := complement(tc.n, tc.excluded...)
			assert.Equal(t, tc.want, got)

			// Every index is either kept or inside an excluded window, never both.
			for i := 0; i < tc.n; i++ {
				kept := false
				for _, r := range got {
					if r.Contains(i) {
						kept = true
					}
				}
				inWindow := false
				for _, r := range tc.excluded {
					if r.Contains(i) {
						inWindow = true
					}
				}
				assert.NotEqual(t, kept, inWindow, "index %d", i)
			}
		})
	}
}

func TestRangeLen(t *testing.T) {
	assert.Equal(t, 20, Range{3260, 3280}.Len())
	assert.Equal(t, 0, Range{5, 5}.Len())
	assert.Equal(t, 0, Range{6, 5}.Len())
	assert.Equal(t, "[400, 800)", Range{400, 800}.String())
}
