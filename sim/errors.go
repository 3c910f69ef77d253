// sim/errors.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"

	"github.com/uamsim/uamsim/das"
)

var (
	ErrInvalidAcceleration = errors.New("Maximum acceleration must be positive")
	ErrInvalidPosition     = errors.New("Position is not finite")
	ErrInvalidRadius       = errors.New("Radius must be positive")
	ErrInvalidSpeed        = errors.New("Maximum speed must be positive")
	ErrInvalidTimestep     = errors.New("Timestep must be positive")
	ErrNoLocations         = errors.New("No locations available")
	ErrRadiusOrdering      = errors.New("Radii must satisfy footprint < NMAC < detection")
	ErrUnknownAircraft     = errors.New("Unknown aircraft")
	ErrUnknownController   = das.ErrUnknownController
	ErrUnknownLocation     = errors.New("Unknown location")
)
