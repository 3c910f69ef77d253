// das/index.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package das

import (
	"slices"

	"github.com/uamsim/uamsim/math"
)

// Index is a k-d tree over track positions that enumerates the pairs of
// tracks close enough that their circles might overlap.
type Index struct {
	tracks []Track
	tree   *math.KDNode
}

func NewIndex(tracks []Track) *Index {
	pts := make([]math.Point2, len(tracks))
	for i, t := range tracks {
		pts[i] = t.Position
	}
	return &Index{tracks: tracks, tree: math.BuildKDTree(pts)}
}

// Pairs calls fn once for each unordered pair (i, j), i < j, of track
// indices that may be within the sum of their radii as given by radius.
// Every pair that is within range is reported, but so may be some that
// aren't; fn must apply the exact test itself.
func (ix *Index) Pairs(radius func(Track) float64, fn func(i, j int)) {
	var rmax float64
	for _, t := range ix.tracks {
		rmax = max(rmax, radius(t))
	}

	for i, t := range ix.tracks {
		var near []int
		ix.tree.InRadius(t.Position, radius(t)+rmax, func(j int) {
			if j > i {
				near = append(near, j)
			}
		})
		slices.Sort(near)
		for _, j := range near {
			fn(i, j)
		}
	}
}
