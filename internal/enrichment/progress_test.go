package enrichment

import "testing"

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		done, total int
		want        int
	}{
		{done: 0, total: 0, want: 100},
		{done: 10, total: 12, want: 83},
		{done: 12, total: 12, want: 100},
		{done: 1, total: 3, want: 33},
		{done: 2, total: 3, want: 67},
		{done: 15, total: 12, want: 100},
	}
	for _, tt := range tests {
		if got := progressPercent(tt.done, tt.total); got != tt.want {
			t.Errorf("progressPercent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
