// nav/nav.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package nav implements the per-aircraft flight model: first-order
// position and speed integration with a distance-based acceleration
// envelope, and a turn-rate-limited heading controller that steers
// toward the leg's end point.
package nav

import (
	"fmt"
	"log/slog"

	"github.com/uamsim/uamsim/math"
)

// Performance holds the aircraft's fixed physical limits.
type Performance struct {
	MaxSpeed        float64 // m/s
	MaxAcceleration float64 // m/s^2
}

type FlightState struct {
	Position math.Point2
	End      math.Point2

	Heading          float64 // degrees, (-180, 180]
	ReferenceHeading float64 // bearing from Position to End
	Speed            float64 // m/s, [0, MaxSpeed]
	Acceleration     float64 // m/s^2, set each tick
}

type Nav struct {
	FlightState FlightState
	Perf        Performance
}

// MakeNav returns a Nav at |start| with the given initial heading, bound
// to fly to |end|.
func MakeNav(start, end math.Point2, heading float64, perf Performance) Nav {
	nav := Nav{
		FlightState: FlightState{
			Position: start,
			End:      end,
			Heading:  math.NormalizeAngle(heading),
		},
		Perf: perf,
	}
	nav.FlightState.UpdateReferenceHeading()
	return nav
}

// HeadingRadians is derived from Heading on each call so that the two
// can never disagree.
func (fs *FlightState) HeadingRadians() float64 {
	return math.Radians(fs.Heading)
}

func (fs *FlightState) DistanceToEnd() float64 {
	return math.Distance2(fs.Position, fs.End)
}

// Deviation is the raw difference between the current heading and the
// bearing to the end point.
func (fs *FlightState) Deviation() float64 {
	return fs.Heading - fs.ReferenceHeading
}

func (fs *FlightState) Summary() string {
	return fmt.Sprintf("pos %s heading %.1f ref %.1f speed %.1f accel %.1f",
		fs.Position, fs.Heading, fs.ReferenceHeading, fs.Speed, fs.Acceleration)
}

func (fs FlightState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("position", fs.Position),
		slog.Any("end", fs.End),
		slog.Float64("heading", fs.Heading),
		slog.Float64("reference_heading", fs.ReferenceHeading),
		slog.Float64("speed", fs.Speed),
		slog.Float64("acceleration", fs.Acceleration))
}

// Retarget binds a new end point and refreshes the reference heading.
func (nav *Nav) Retarget(end math.Point2) {
	nav.FlightState.End = end
	nav.FlightState.UpdateReferenceHeading()
}

// Update advances the flight state by one tick of length dt. The order
// matters: the position is integrated with the heading from before this
// tick's turn, then the speed, then the heading is steered toward the
// refreshed bearing. accelDelta is added to the envelope's acceleration
// for this tick and headingDelta is applied after the heading controller.
//
// If the heading controller fails, the error is returned and the flight
// state is left partially updated; callers that need all-or-nothing
// semantics should update a copy.
func (nav *Nav) Update(callsign string, tick int, dt, accelDelta, headingDelta float64) error {
	fs := &nav.FlightState

	nav.updatePosition(dt)
	NavLog(callsign, tick, NavLogPosition, "pos=%s speed=%.2f hdg=%.2f", fs.Position, fs.Speed, fs.Heading)

	nav.updateSpeed(dt, accelDelta)
	NavLog(callsign, tick, NavLogSpeed, "dist=%.1f accel=%.1f (delta %.1f) speed=%.2f",
		fs.DistanceToEnd(), fs.Acceleration, accelDelta, fs.Speed)

	fs.UpdateReferenceHeading()
	prev := fs.Heading
	if err := fs.CorrectHeading(); err != nil {
		return err
	}
	if headingDelta != 0 {
		fs.Heading = math.NormalizeAngle(fs.Heading + headingDelta)
	}
	NavLog(callsign, tick, NavLogHeading, "ref=%.2f heading %.2f -> %.2f (delta %.1f)",
		fs.ReferenceHeading, prev, fs.Heading, headingDelta)

	return nil
}
