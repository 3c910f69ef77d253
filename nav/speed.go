// nav/speed.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"github.com/uamsim/uamsim/math"
)

const (
	// BrakingDistance is the distance to the end point inside which the
	// aircraft decelerates at twice its maximum acceleration.
	BrakingDistance = 1500 // meters
	// TouchdownDistance is the distance inside which the braking
	// acceleration is applied as a full, unscaled step each tick.
	TouchdownDistance = 700 // meters
)

// ApplyAccelerationPolicy sets the acceleration from the distance to the
// end point and returns it.
func (nav *Nav) ApplyAccelerationPolicy() float64 {
	fs := &nav.FlightState
	if fs.DistanceToEnd() < BrakingDistance {
		fs.Acceleration = -2 * nav.Perf.MaxAcceleration
	} else {
		fs.Acceleration = nav.Perf.MaxAcceleration
	}
	return fs.Acceleration
}

// UpdatePosition integrates the position forward by dt using the current
// speed and heading.
func (nav *Nav) UpdatePosition(dt float64) {
	nav.updatePosition(dt)
}

func (nav *Nav) updatePosition(dt float64) {
	nav.ApplyAccelerationPolicy()

	fs := &nav.FlightState
	v := math.Scale2(math.HeadingVector(fs.Heading), fs.Speed*dt)
	fs.Position = math.Add2(fs.Position, v)
}

// UpdateSpeed advances the speed by one tick. accelDelta is added to the
// policy acceleration before it is applied.
func (nav *Nav) UpdateSpeed(dt, accelDelta float64) {
	nav.updateSpeed(dt, accelDelta)
}

func (nav *Nav) updateSpeed(dt, accelDelta float64) {
	nav.ApplyAccelerationPolicy()

	fs := &nav.FlightState
	fs.Acceleration += accelDelta

	if fs.DistanceToEnd() <= TouchdownDistance {
		// Not scaled by dt; braking is sharper close in.
		fs.Speed += fs.Acceleration
	} else if fs.Speed < nav.Perf.MaxSpeed {
		fs.Speed += 0.5 * fs.Acceleration * dt
	} else {
		fs.Speed = nav.Perf.MaxSpeed
	}

	fs.Speed = math.Clamp(fs.Speed, 0, nav.Perf.MaxSpeed)
}
