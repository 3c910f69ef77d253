// sim/step.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"

	"github.com/uamsim/uamsim/das"
	"github.com/uamsim/uamsim/nav"
)

// StepResult is an aircraft's flight state after one tick along with
// what produced it.
type StepResult struct {
	Nav      nav.Nav
	Command  das.Command
	Intruder *das.Intruder // nil if there was none
}

// StepAgent computes the aircraft's flight state after one tick without
// modifying it. The nearest of |in| is passed to the controller, though
// only once the aircraft has left its starting vertiport.
func StepAgent(ac *Aircraft, in das.Intruders, dt float64, ctrl das.Controller) (StepResult, error) {
	res := StepResult{Nav: ac.Nav}
	if ac.Departed {
		res.Intruder = in.Nearest()
	}

	if ctrl != nil {
		cmd, err := ctrl.Action(das.MakeObservation(ac.Track(), res.Intruder))
		if err != nil {
			return StepResult{}, fmt.Errorf("%s: %w", ac.Callsign(), err)
		}
		res.Command = cmd
	}
	if res.Intruder != nil && !res.Command.IsZero() {
		nav.NavLog(ac.Callsign(), ac.Age, nav.NavLogAvoid, "intruder %d: accel %+.0f heading %+.0f",
			res.Intruder.ID, res.Command.Acceleration, res.Command.Heading)
	}

	if err := res.Nav.Update(ac.Callsign(), ac.Age, dt, res.Command.Acceleration, res.Command.Heading); err != nil {
		return StepResult{}, fmt.Errorf("%s: %w", ac.Callsign(), err)
	}
	return res, nil
}
