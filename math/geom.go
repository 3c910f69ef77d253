// math/geom.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// CirclesIntersect reports whether two closed disks overlap; touching
// boundaries count as intersecting. The result does not depend on the
// order of the arguments.
func CirclesIntersect(ca Point2, ra float64, cb Point2, rb float64) bool {
	return Distance2(ca, cb) <= ra+rb
}

///////////////////////////////////////////////////////////////////////////
// Extent2D

// Extent2D represents a 2D bounding box with the two vertices at its
// opposite minimum and maximum corners.
type Extent2D struct {
	P0, P1 Point2
}

// EmptyExtent2D returns an Extent2D representing an empty bounding box.
func EmptyExtent2D() Extent2D {
	// Degenerate bounds
	return Extent2D{P0: Point2{1e30, 1e30}, P1: Point2{-1e30, -1e30}}
}

// Extent2DFromPoints returns an Extent2D that bounds all of the provided
// points.
func Extent2DFromPoints(pts []Point2) Extent2D {
	e := EmptyExtent2D()
	for _, p := range pts {
		e = e.Union(p)
	}
	return e
}

// CircleExtent returns the bounding box of the disk of radius r at c.
func CircleExtent(c Point2, r float64) Extent2D {
	return Extent2D{P0: Point2{c[0] - r, c[1] - r}, P1: Point2{c[0] + r, c[1] + r}}
}

func (e Extent2D) Union(p Point2) Extent2D {
	for d := 0; d < 2; d++ {
		e.P0[d] = min(e.P0[d], p[d])
		e.P1[d] = max(e.P1[d], p[d])
	}
	return e
}

func (e Extent2D) IsEmpty() bool {
	return e.P0[0] > e.P1[0] || e.P0[1] > e.P1[1]
}

func (e Extent2D) Width() float64 {
	return e.P1[0] - e.P0[0]
}

func (e Extent2D) Height() float64 {
	return e.P1[1] - e.P0[1]
}

// Expand expands the extent by the given distance in all directions.
func (e Extent2D) Expand(d float64) Extent2D {
	return Extent2D{
		P0: Point2{e.P0[0] - d, e.P0[1] - d},
		P1: Point2{e.P1[0] + d, e.P1[1] + d}}
}

func (e Extent2D) Inside(p Point2) bool {
	return p[0] >= e.P0[0] && p[0] <= e.P1[0] && p[1] >= e.P0[1] && p[1] <= e.P1[1]
}

// Overlaps returns true if the two extents share any point.
func Overlaps(a Extent2D, b Extent2D) bool {
	return a.P0[0] <= b.P1[0] && a.P1[0] >= b.P0[0] &&
		a.P0[1] <= b.P1[1] && a.P1[1] >= b.P0[1]
}

// ExtentFromBound converts an orb bounding box.
func ExtentFromBound(b orb.Bound) Extent2D {
	return Extent2D{P0: Point2(b.Min), P1: Point2(b.Max)}
}

///////////////////////////////////////////////////////////////////////////
// Polygons

// CircleIntersectsPolygon returns true if the closed disk of radius r
// centered at c overlaps the polygon, either because the center is inside
// it or because the boundary passes within r of the center.
func CircleIntersectsPolygon(c Point2, r float64, poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if !Overlaps(CircleExtent(c, r), ExtentFromBound(poly.Bound())) {
		return false
	}
	p := orb.Point(c)
	if planar.PolygonContains(poly, p) {
		return true
	}
	return planar.DistanceFrom(poly, p) <= r
}
