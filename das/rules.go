// das/rules.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package das

import (
	"errors"
	"fmt"

	"github.com/uamsim/uamsim/math"
)

var ErrDegenerateGeometry = errors.New("Intruder displacement matches no geometry case")

// DegenerateGeometryError reports a displacement to the intruder that is
// zero or lies on an axis.
type DegenerateGeometryError struct {
	Position math.Point2
}

func (e *DegenerateGeometryError) Error() string {
	if e.Position == (math.Point2{}) {
		return fmt.Sprintf("%s: intruder at the same position: %v", e.Position, ErrDegenerateGeometry)
	}
	return fmt.Sprintf("%s: intruder on an axis: %v", e.Position, ErrDegenerateGeometry)
}

func (e *DegenerateGeometryError) Unwrap() error { return ErrDegenerateGeometry }

// GeometryCase classifies where the intruder is relative to us by the
// signs of the displacement's components.
type GeometryCase int

const (
	NoGeometryCase GeometryCase = iota
	NorthEast                          // (+,+)
	NorthWest                          // (-,+)
	SouthWest                          // (-,-)
	SouthEast                          // (+,-)
)

func (g GeometryCase) String() string {
	return [...]string{"none", "(+,+)", "(-,+)", "(-,-)", "(+,-)"}[g]
}

// ClassifyGeometry returns the case for the displacement from own to
// intruder. A displacement with a zero component matches no case and is
// an error.
func ClassifyGeometry(d math.Point2) (GeometryCase, error) {
	sx, sy := math.Sign(d[0]), math.Sign(d[1])
	switch {
	case sx > 0 && sy > 0:
		return NorthEast, nil
	case sx < 0 && sy > 0:
		return NorthWest, nil
	case sx < 0 && sy < 0:
		return SouthWest, nil
	case sx > 0 && sy < 0:
		return SouthEast, nil
	default:
		return NoGeometryCase, &DegenerateGeometryError{Position: d}
	}
}

type ruleKey struct {
	Case             GeometryCase
	OwnQuadrant      int
	IntruderQuadrant int
}

const (
	AvoidAcceleration = -1 // m/s^2
	AvoidTurn         = 25 // degrees
)

// avoidanceRules is the complete rule set: one conflicting pair of
// heading quadrants per geometry case. Anything not listed is no action.
var avoidanceRules = map[ruleKey]Command{
	{NorthEast, 1, 4}: {Acceleration: AvoidAcceleration, Heading: AvoidTurn},
	{NorthWest, 2, 3}: {Acceleration: AvoidAcceleration, Heading: -AvoidTurn},
	{SouthWest, 4, 1}: {Acceleration: AvoidAcceleration, Heading: AvoidTurn},
	{SouthEast, 3, 2}: {Acceleration: AvoidAcceleration, Heading: -AvoidTurn},
}

// LookupRule returns the command for the given geometry and heading
// quadrants and whether a rule matched.
func LookupRule(g GeometryCase, ownQuadrant, intruderQuadrant int) (Command, bool) {
	cmd, ok := avoidanceRules[ruleKey{g, ownQuadrant, intruderQuadrant}]
	return cmd, ok
}
