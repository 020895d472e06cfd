package omtf

import (
	"sort"

	"github.com/muonreco/muonreco/internal/muon/digi"
)

// Cluster is a run of consecutive fired strips, represented by its boundary
// strips.
type Cluster struct {
	First digi.RPC
	Last  digi.RPC
}

// Size returns the number of strips spanned by the cluster.
func (c Cluster) Size() int { return c.Last.Strip - c.First.Strip + 1 }

// ClusterStrips keeps the in-time (BX 0) strips, sorts them by strip number
// and merges strips whose numbers differ by exactly one. Repeated strips are
// absorbed into the cluster they extend. The input slice is not modified.
func ClusterStrips(strips []digi.RPC) []Cluster {
	inTime := make([]digi.RPC, 0, len(strips))
	for _, s := range strips {
		if s.BX == 0 {
			inTime = append(inTime, s)
		}
	}
	sort.SliceStable(inTime, func(i, j int) bool { return inTime[i].Strip < inTime[j].Strip })

	var clusters []Cluster
	for _, s := range inTime {
		if len(clusters) == 0 {
			clusters = append(clusters, Cluster{First: s, Last: s})
			continue
		}
		last := &clusters[len(clusters)-1]
		switch d := s.Strip - last.Last.Strip; {
		case d == 1:
			last.Last = s
		case d > 1:
			clusters = append(clusters, Cluster{First: s, Last: s})
		}
	}
	return clusters
}
