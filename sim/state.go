// sim/state.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"log/slog"

	"github.com/uamsim/uamsim/das"
)

// Observation is the per-aircraft state handed to an external decision
// process. The intruder slices are parallel and ordered nearest first.
type Observation struct {
	ID                    AgentID   `json:"id"`
	Deviation             float64   `json:"deviation"`
	Speed                 float64   `json:"speed"`
	IntruderCount         int       `json:"intruder_count"`
	IntruderDistances     []float64 `json:"intruder_distances"`
	IntruderSpeedDeltas   []float64 `json:"intruder_speed_deltas"`
	IntruderHeadingDeltas []float64 `json:"intruder_heading_deltas"`
}

func MakeObservation(ac *Aircraft, in das.Intruders) Observation {
	return Observation{
		ID:                    ac.ID,
		Deviation:             ac.Nav.FlightState.Deviation(),
		Speed:                 ac.Nav.FlightState.Speed,
		IntruderCount:         len(in),
		IntruderDistances:     in.Distances(),
		IntruderSpeedDeltas:   in.SpeedDeltas(),
		IntruderHeadingDeltas: in.HeadingDeltas(),
	}
}

func (o Observation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(o.ID)),
		slog.Float64("deviation", o.Deviation),
		slog.Float64("speed", o.Speed),
		slog.Int("intruder_count", o.IntruderCount))
}
