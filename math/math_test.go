// math/math_test.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
	"testing"

	"github.com/paulmach/orb"
)

func TestSign(t *testing.T) {
	if Sign(3.5) != 1 || Sign(-0.1) != -1 || Sign(0.0) != 0 {
		t.Errorf("Sign gave unexpected results")
	}
	if Sign(gomath.Copysign(0, -1)) != 0 {
		t.Errorf("Sign(-0) should be 0")
	}
}

func TestCirclesIntersect(t *testing.T) {
	tests := []struct {
		name     string
		ca       Point2
		ra       float64
		cb       Point2
		rb       float64
		expected bool
	}{
		{"coincident", Point2{0, 0}, 1, Point2{0, 0}, 1, true},
		{"overlapping", Point2{0, 0}, 250, Point2{400, 0}, 250, true},
		{"touching", Point2{0, 0}, 250, Point2{500, 0}, 250, true},
		{"touching diagonal", Point2{0, 0}, 2.5, Point2{3, 4}, 2.5, true},
		{"apart", Point2{0, 0}, 250, Point2{500.001, 0}, 250, false},
		{"unequal radii", Point2{0, 0}, 10, Point2{0, 100}, 95, true},
		{"unequal radii apart", Point2{0, 0}, 10, Point2{0, 100}, 89, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := CirclesIntersect(tt.ca, tt.ra, tt.cb, tt.rb)
			ba := CirclesIntersect(tt.cb, tt.rb, tt.ca, tt.ra)
			if ab != tt.expected {
				t.Errorf("CirclesIntersect(%v, %v, %v, %v) = %v, expected %v",
					tt.ca, tt.ra, tt.cb, tt.rb, ab, tt.expected)
			}
			if ab != ba {
				t.Errorf("CirclesIntersect not symmetric: %v vs %v", ab, ba)
			}
		})
	}
}

func TestHeadingVector(t *testing.T) {
	for _, h := range []float64{0, 30, 90, 135, 180, -45, -90} {
		v := HeadingVector(h)
		if gomath.Abs(Length2(v)-1) > 1e-12 {
			t.Errorf("HeadingVector(%v) = %v is not unit length", h, v)
		}
		if b := Bearing(Point2{}, v); gomath.Abs(NormalizeAngle(b-h)) > 1e-9 {
			t.Errorf("HeadingVector(%v) points along %v", h, b)
		}
	}
}

func TestExtent2D(t *testing.T) {
	e := Extent2DFromPoints([]Point2{{1, 2}, {-3, 5}, {4, -1}})
	if e.P0 != (Point2{-3, -1}) || e.P1 != (Point2{4, 5}) {
		t.Errorf("unexpected extent %v", e)
	}
	if !e.Inside(Point2{0, 0}) || e.Inside(Point2{5, 0}) {
		t.Errorf("Inside gave unexpected results for %v", e)
	}
	if !EmptyExtent2D().IsEmpty() || e.IsEmpty() {
		t.Errorf("IsEmpty gave unexpected results")
	}
	if !Overlaps(e, CircleExtent(Point2{6, 0}, 2)) || Overlaps(e, CircleExtent(Point2{7, 0}, 2)) {
		t.Errorf("Overlaps gave unexpected results")
	}
}

func TestCircleIntersectsPolygon(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}}

	tests := []struct {
		name     string
		c        Point2
		r        float64
		expected bool
	}{
		{"center inside", Point2{50, 50}, 1, true},
		{"near edge", Point2{-10, 50}, 17, true},
		{"near corner", Point2{110, 110}, 15, true},
		{"outside", Point2{-20, 50}, 17, false},
		{"far away", Point2{1000, 1000}, 17, false},
	}

	for _, tt := range tests {
		if got := CircleIntersectsPolygon(tt.c, tt.r, square); got != tt.expected {
			t.Errorf("%s: CircleIntersectsPolygon(%v, %v) = %v, expected %v", tt.name, tt.c, tt.r, got, tt.expected)
		}
	}

	if CircleIntersectsPolygon(Point2{0, 0}, 10, nil) {
		t.Errorf("empty polygon should never intersect")
	}
}
