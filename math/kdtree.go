// math/kdtree.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"slices"
)

// KDNode is a node in a 2D KD-tree. Each node stores a location and the
// caller's index for the item at that location.
type KDNode struct {
	Location Point2
	Index    int
	Left     *KDNode
	Right    *KDNode
	axis     int
}

type kdItem struct {
	p   Point2
	idx int
}

// BuildKDTree constructs a balanced KD-tree from a slice of points; the
// Index of each node is the point's index in |points|. The tree
// alternates splitting by x and y at each level.
func BuildKDTree(points []Point2) *KDNode {
	if len(points) == 0 {
		return nil
	}
	items := make([]kdItem, len(points))
	for i, p := range points {
		items[i] = kdItem{p: p, idx: i}
	}
	return buildKDTreeRecursive(items, 0)
}

func buildKDTreeRecursive(items []kdItem, depth int) *KDNode {
	if len(items) == 0 {
		return nil
	}

	// Alternate between X (depth even) and Y (depth odd)
	axis := depth % 2
	if len(items) == 1 {
		return &KDNode{Location: items[0].p, Index: items[0].idx, axis: axis}
	}

	// Sort by the splitting axis and find median. Ties are broken by index
	// so that the tree is the same regardless of the sort's stability.
	slices.SortFunc(items, func(a, b kdItem) int {
		if a.p[axis] < b.p[axis] {
			return -1
		} else if a.p[axis] > b.p[axis] {
			return 1
		}
		return a.idx - b.idx
	})

	median := len(items) / 2

	return &KDNode{
		Location: items[median].p,
		Index:    items[median].idx,
		axis:     axis,
		Left:     buildKDTreeRecursive(items[:median], depth+1),
		Right:    buildKDTreeRecursive(items[median+1:], depth+1),
	}
}

// InRadius calls fn with the index of every point within distance r of p
// (inclusive), using Distance2 for the test. The order of the calls is
// unspecified.
func (tree *KDNode) InRadius(p Point2, r float64, fn func(idx int)) {
	if tree == nil {
		return
	}

	if Distance2(p, tree.Location) <= r {
		fn(tree.Index)
	}

	d := p[tree.axis] - tree.Location[tree.axis]
	near, far := tree.Left, tree.Right
	if d > 0 {
		near, far = far, near
	}
	near.InRadius(p, r, fn)
	// A bit of slop in the pruning test keeps round-off in the distance
	// computation from discarding a point that is exactly r away.
	if Abs(d) <= r*(1+1e-9)+1e-9 {
		far.InRadius(p, r, fn)
	}
}
