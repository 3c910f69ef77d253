// math/heading.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"
	"fmt"
	gomath "math"
)

///////////////////////////////////////////////////////////////////////////
// headings

// Headings in the simulation are signed degrees measured counter-clockwise
// from +x (east), in the range (-180, 180]. This is the atan2 convention,
// not a compass heading.

var ErrInvalidHeading = errors.New("Invalid heading")

// InvalidHeadingError is returned when a heading outside of (-180, 180] is
// given to a function that classifies headings.
type InvalidHeadingError struct {
	Heading float64
}

func (e *InvalidHeadingError) Error() string {
	return fmt.Sprintf("%v: %g not in (-180, 180]", ErrInvalidHeading, e.Heading)
}

func (e *InvalidHeadingError) Unwrap() error { return ErrInvalidHeading }

// NormalizeAngle reduces the angle to (-180, 180].
func NormalizeAngle(a float64) float64 {
	a = gomath.Mod(a, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// Quadrant returns the quadrant of a heading: 1 for [0,90), 2 for
// [90,180], 3 for [-90,0) and 4 for (-180,-90).
func Quadrant(h float64) (int, error) {
	switch {
	case h >= 0 && h < 90:
		return 1, nil
	case h >= 90 && h <= 180:
		return 2, nil
	case h >= -90 && h < 0:
		return 3, nil
	case h > -180 && h < -90:
		return 4, nil
	default:
		// Also catches NaN.
		return 0, &InvalidHeadingError{Heading: h}
	}
}

// Bearing returns the heading from |from| to |to| in degrees. Coincident
// points give 0.
func Bearing(from, to Point2) float64 {
	v := Sub2(to, from)
	return NormalizeAngle(Degrees(gomath.Atan2(v[1], v[0])))
}
