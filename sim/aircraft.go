// sim/aircraft.go
// Copyright(c) 2022-2025 uamsim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/uamsim/uamsim/das"
	"github.com/uamsim/uamsim/log"
	"github.com/uamsim/uamsim/math"
	"github.com/uamsim/uamsim/nav"
	"github.com/uamsim/uamsim/rand"
)

type AgentID = das.AgentID

var lastAgentID atomic.Uint64

func nextAgentID() AgentID {
	return AgentID(lastAgentID.Add(1))
}

// Constants are an aircraft's fixed physical parameters. The defaults
// are for an Airbus H175.
type Constants struct {
	MaxSpeed         float64 `json:"max_speed"`         // m/s
	MaxAcceleration  float64 `json:"max_acceleration"`  // m/s^2
	FootprintRadius  float64 `json:"footprint_radius"`  // m
	NMACRadius       float64 `json:"nmac_radius"`       // m
	DetectionRadius  float64 `json:"detection_radius"`  // m
	LandingProximity float64 `json:"landing_proximity"` // m
}

func DefaultConstants() Constants {
	return Constants{
		MaxSpeed:         79,
		MaxAcceleration:  1,
		FootprintRadius:  17,
		NMACRadius:       150,
		DetectionRadius:  250,
		LandingProximity: 50,
	}
}

// Validate returns all of the problems with the constants, joined.
func (c Constants) Validate() error {
	var errs []error
	if !(c.MaxSpeed > 0) {
		errs = append(errs, fmt.Errorf("max speed %g: %w", c.MaxSpeed, ErrInvalidSpeed))
	}
	if !(c.MaxAcceleration > 0) {
		errs = append(errs, fmt.Errorf("max acceleration %g: %w", c.MaxAcceleration, ErrInvalidAcceleration))
	}
	radii := []struct {
		name string
		r    float64
	}{
		{"footprint", c.FootprintRadius},
		{"NMAC", c.NMACRadius},
		{"detection", c.DetectionRadius},
		{"landing proximity", c.LandingProximity},
	}
	ok := true
	for _, r := range radii {
		if !(r.r > 0) || !math.IsFinite(r.r) {
			errs = append(errs, fmt.Errorf("%s radius %g: %w", r.name, r.r, ErrInvalidRadius))
			ok = false
		}
	}
	if ok && !(c.FootprintRadius < c.NMACRadius && c.NMACRadius < c.DetectionRadius) {
		errs = append(errs, fmt.Errorf("footprint %g, NMAC %g, detection %g: %w", c.FootprintRadius,
			c.NMACRadius, c.DetectionRadius, ErrRadiusOrdering))
	}
	return errors.Join(errs...)
}

type Aircraft struct {
	ID AgentID

	Nav       nav.Nav
	Constants Constants

	// Start is where the current leg began; the end point is in
	// Nav.FlightState.End.
	Start math.Point2
	// Optional names of the leg's vertiports.
	From, To string

	Departed bool
	Arrived  bool

	// Number of ticks this aircraft has been advanced.
	Age int
}

// NewAircraft returns an aircraft sitting at |start| bound for |end|
// with a random initial heading drawn from r.
func NewAircraft(start, end math.Point2, c Constants, r *rand.Rand) (*Aircraft, error) {
	if !start.IsFinite() || !end.IsFinite() {
		return nil, fmt.Errorf("start %s end %s: %w", start, end, ErrInvalidPosition)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Integer part in [-178, 177] plus a fraction.
	heading := float64(r.Intn(356)-178) + r.Float64()

	return &Aircraft{
		ID:        nextAgentID(),
		Nav:       nav.MakeNav(start, end, heading, nav.Performance{MaxSpeed: c.MaxSpeed, MaxAcceleration: c.MaxAcceleration}),
		Constants: c,
		Start:     start,
	}, nil
}

func (ac *Aircraft) Callsign() string {
	return fmt.Sprintf("UAV%d", ac.ID)
}

func (ac *Aircraft) Position() math.Point2 { return ac.Nav.FlightState.Position }

func (ac *Aircraft) End() math.Point2 { return ac.Nav.FlightState.End }

// Track returns the aircraft as detection sees it.
func (ac *Aircraft) Track() das.Track {
	fs := &ac.Nav.FlightState
	return das.Track{
		ID:              ac.ID,
		Position:        fs.Position,
		Heading:         fs.Heading,
		Speed:           fs.Speed,
		FootprintRadius: ac.Constants.FootprintRadius,
		NMACRadius:      ac.Constants.NMACRadius,
		DetectionRadius: ac.Constants.DetectionRadius,
	}
}

// Reset starts a new leg from the current one's end point to |newEnd|.
// The id, speed and physical constants carry over.
func (ac *Aircraft) Reset(newEnd math.Point2) {
	ac.Start = ac.Nav.FlightState.End
	ac.Nav.Retarget(newEnd)
	ac.Departed = false
	ac.Arrived = false
}

// updateFlags sets Departed and Arrived from the current position and
// reports which of them changed.
func (ac *Aircraft) updateFlags() (departed, arrived bool) {
	pos := ac.Position()
	if !ac.Departed && math.Distance2(pos, ac.Start) > ac.Constants.LandingProximity {
		ac.Departed = true
		departed = true
	}
	if !ac.Arrived && math.Distance2(pos, ac.End()) <= ac.Constants.LandingProximity {
		ac.Arrived = true
		arrived = true
	}
	return
}

// Step advances the aircraft by one tick in place, detecting intruders
// among |population| (which may include the aircraft itself). Use
// Sim.Step to advance a population so that every aircraft sees the
// others' pre-tick state.
func (ac *Aircraft) Step(population []das.Track, dt float64, ctrl das.Controller) error {
	if ac.Arrived {
		return nil
	}
	in := das.Detect(ac.Track(), population)
	res, err := StepAgent(ac, in, dt, ctrl)
	if err != nil {
		return err
	}
	ac.Nav = res.Nav
	ac.Age++
	ac.updateFlags()
	return nil
}

// GetState returns the aircraft's observation against |population|.
func (ac *Aircraft) GetState(population []das.Track) Observation {
	return MakeObservation(ac, das.Detect(ac.Track(), population))
}

// Check logs an error for any violated flight state invariants.
func (ac *Aircraft) Check(lg *log.Logger) {
	fs := &ac.Nav.FlightState
	if fs.Heading <= -180 || fs.Heading > 180 {
		lg.Error("heading out of range", slog.Any("aircraft", ac))
	}
	if fs.Speed < 0 || fs.Speed > ac.Constants.MaxSpeed {
		lg.Error("speed out of range", slog.Any("aircraft", ac))
	}
	if !fs.Position.IsFinite() {
		lg.Error("non-finite position", slog.Any("aircraft", ac))
	}
}

func (ac *Aircraft) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(ac.ID)),
		slog.String("from", ac.From),
		slog.String("to", ac.To),
		slog.Any("start", ac.Start),
		slog.Any("flight_state", ac.Nav.FlightState),
		slog.Bool("departed", ac.Departed),
		slog.Bool("arrived", ac.Arrived),
		slog.Int("age", ac.Age))
}
