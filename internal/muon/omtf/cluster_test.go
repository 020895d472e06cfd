package omtf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muonreco/muonreco/internal/muon/digi"
)

func strips(nums ...int) []digi.RPC {
	out := make([]digi.RPC, len(nums))
	for i, n := range nums {
		out[i] = digi.RPC{Strip: n}
	}
	return out
}

func TestClusterStrips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     []digi.RPC
		bounds [][2]int
	}{
		{"empty", nil, nil},
		{"single", strips(5), [][2]int{{5, 5}}},
		{"contiguous unsorted", strips(7, 5, 6), [][2]int{{5, 7}}},
		{"gap splits", strips(1, 2, 4, 5), [][2]int{{1, 2}, {4, 5}}},
		{"duplicate absorbed", strips(3, 3, 4), [][2]int{{3, 4}}},
		{"out of time dropped", []digi.RPC{{Strip: 1}, {Strip: 2, BX: -1}, {Strip: 3}}, [][2]int{{1, 1}, {3, 3}}},
	}
	for _, tt := range tests {
		got := ClusterStrips(tt.in)
		var bounds [][2]int
		for _, c := range got {
			bounds = append(bounds, [2]int{c.First.Strip, c.Last.Strip})
		}
		assert.Equal(t, tt.bounds, bounds, tt.name)
	}
}

func TestClusterStrips_DoesNotModifyInput(t *testing.T) {
	t.Parallel()
	in := strips(9, 1, 5)
	ClusterStrips(in)
	assert.Equal(t, strips(9, 1, 5), in)
}

func TestCluster_Size(t *testing.T) {
	t.Parallel()
	c := ClusterStrips(strips(10, 11, 12, 13))
	assert.Len(t, c, 1)
	assert.Equal(t, 4, c[0].Size())
}
