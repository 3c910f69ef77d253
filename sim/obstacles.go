// sim/obstacles.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"slices"

	"github.com/uamsim/uamsim/math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// ObstacleSource provides static no-fly geometry. Aircraft don't avoid
// obstacles; footprints that overlap one are only reported.
type ObstacleSource interface {
	Obstacles() orb.MultiPolygon
	// Intersecting returns the indices into Obstacles() of the polygons
	// that a circle overlaps, in increasing order.
	Intersecting(c math.Point2, r float64) []int
}

type obstacle struct {
	index int
	poly  orb.Polygon
	rect  rtreego.Rect
}

func (o *obstacle) Bounds() rtreego.Rect { return o.rect }

// StaticObstacles indexes a fixed set of polygons with an R-tree.
type StaticObstacles struct {
	polys orb.MultiPolygon
	tree  *rtreego.Rtree
}

// NewStaticObstacles returns an index over the polygons; empty polygons
// are kept in Obstacles() but never intersect anything.
func NewStaticObstacles(polys orb.MultiPolygon) *StaticObstacles {
	so := &StaticObstacles{polys: polys}

	var objs []rtreego.Spatial
	for i, poly := range polys {
		if len(poly) == 0 || len(poly[0]) == 0 {
			continue
		}
		r, err := boundsRect(math.ExtentFromBound(poly.Bound()))
		if err != nil {
			continue
		}
		objs = append(objs, &obstacle{index: i, poly: poly, rect: r})
	}
	so.tree = rtreego.NewTree(2, 4, 16, objs...)
	return so
}

// boundsRect pads the extent slightly: rtreego requires positive lengths
// and doesn't count rectangles that only touch as intersecting. The
// exact test is done afterward.
func boundsRect(e math.Extent2D) (rtreego.Rect, error) {
	const eps = 1e-6
	return rtreego.NewRect(rtreego.Point{e.P0[0] - eps, e.P0[1] - eps},
		[]float64{e.Width() + 2*eps, e.Height() + 2*eps})
}

func (so *StaticObstacles) Obstacles() orb.MultiPolygon {
	if so == nil {
		return nil
	}
	return so.polys
}

func (so *StaticObstacles) Len() int {
	if so == nil {
		return 0
	}
	return len(so.polys)
}

func (so *StaticObstacles) Intersecting(c math.Point2, r float64) []int {
	if so == nil || so.tree.Size() == 0 {
		return nil
	}

	bb, err := boundsRect(math.CircleExtent(c, r))
	if err != nil {
		return nil
	}
	var idx []int
	for _, s := range so.tree.SearchIntersect(bb) {
		ob := s.(*obstacle)
		if math.CircleIntersectsPolygon(c, r, ob.poly) {
			idx = append(idx, ob.index)
		}
	}
	slices.Sort(idx)
	return idx
}
