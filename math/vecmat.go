// math/vecmat.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
)

///////////////////////////////////////////////////////////////////////////
// Point2

// Point2 is a position in the simulation plane, in meters. +x is east and
// +y is north.
type Point2 [2]float64

func (p Point2) X() float64 { return p[0] }
func (p Point2) Y() float64 { return p[1] }

func (p Point2) IsFinite() bool {
	return IsFinite(p[0]) && IsFinite(p[1])
}

func (p Point2) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p[0], p[1])
}

// Various useful functions for arithmetic with 2D points/vectors.
// Names are brief in order to avoid clutter when they're used.

// a+b
func Add2(a, b Point2) Point2 {
	return Point2{a[0] + b[0], a[1] + b[1]}
}

// a-b
func Sub2(a, b Point2) Point2 {
	return Point2{a[0] - b[0], a[1] - b[1]}
}

// a*s
func Scale2(a Point2, s float64) Point2 {
	return Point2{s * a[0], s * a[1]}
}

// Length of v
func Length2(v Point2) float64 {
	return gomath.Sqrt(v[0]*v[0] + v[1]*v[1])
}

// Distance between two points. Distance2(a, b) == Distance2(b, a) exactly,
// since the differences only change sign.
func Distance2(a, b Point2) float64 {
	return Length2(Sub2(a, b))
}

// Normalizes the given vector.
func Normalize2(a Point2) Point2 {
	l := Length2(a)
	if l == 0 {
		return Point2{0, 0}
	}
	return Scale2(a, 1/l)
}

// HeadingVector returns the unit vector for a heading given in degrees,
// measured counter-clockwise from +x.
func HeadingVector(deg float64) Point2 {
	s, c := gomath.Sincos(Radians(deg))
	return Point2{c, s}
}
